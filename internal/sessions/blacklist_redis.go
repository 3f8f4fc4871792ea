package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist revokes access tokens ahead of their JWT expiry. Logout writes
// the token under a prefixed key whose TTL equals the token's remaining
// lifetime, so entries vanish exactly when the token would have expired
// anyway. A nil Blacklist, or one built over a nil client, disables
// revocation: every check reports clean.
type Blacklist struct {
	client *redis.Client
	prefix string
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client, prefix: "blacklist:access:"}
}

// Revoke marks the token revoked for ttl. Tokens already past expiry need
// no entry, so a non-positive ttl is a no-op.
func (b *Blacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if b == nil || b.client == nil || ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.prefix+token, "1", ttl).Err()
}

// Contains reports whether the token has been revoked. The signature
// matches middleware.Blacklist so b.Contains plugs into AuthMiddleware.
func (b *Blacklist) Contains(ctx context.Context, token string) (bool, error) {
	if b == nil || b.client == nil {
		return false, nil
	}
	n, err := b.client.Exists(ctx, b.prefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
