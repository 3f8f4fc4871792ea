package authclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Slot persists a single session across restarts. Implementations must
// treat a nil session as "cleared".
type Slot interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// MemorySlot keeps the session in process memory. Useful for tests and
// for callers that do not need persistence.
type MemorySlot struct {
	mu sync.Mutex
	s  *Session
}

func NewMemorySlot() *MemorySlot { return &MemorySlot{} }

func (m *MemorySlot) Load(_ context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.clone(), nil
}

func (m *MemorySlot) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s.clone()
	return nil
}

func (m *MemorySlot) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

// RedisSlot persists the session as an opaque JSON value under one key,
// expiring alongside the refresh token.
type RedisSlot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisSlot(client *redis.Client, key string, ttl time.Duration) *RedisSlot {
	if key == "" {
		key = "authclient:session"
	}
	return &RedisSlot{client: client, key: key, ttl: ttl}
}

func (r *RedisSlot) Load(ctx context.Context) (*Session, error) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisSlot) Save(ctx context.Context, s *Session) error {
	if s == nil {
		return r.Clear(ctx)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, raw, r.ttl).Err()
}

func (r *RedisSlot) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
