package authclient

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Refresher keeps the access token in a store fresh, refreshing it just
// in time. Concurrent callers hitting the same stale token share one
// refresh round trip.
type Refresher struct {
	ex  *Exchanger
	ttl time.Duration
	now func() time.Time
	sf  singleflight.Group
}

func NewRefresher(ex *Exchanger) *Refresher {
	return &Refresher{ex: ex, ttl: AccessTokenTTL, now: time.Now}
}

// EnsureFresh returns a usable session, refreshing first when the
// access token has expired. No network call is made while the token is
// still fresh. When the refresh token itself is rejected, the session
// is tagged with RefreshErrorTag, kept in the store, and
// ErrRefreshAccessToken is returned.
func (r *Refresher) EnsureFresh(ctx context.Context, store *Store) (*Session, error) {
	s := store.Read()
	if s == nil {
		return nil, ErrUnauthenticated
	}
	if s.Err != "" {
		return s, ErrRefreshAccessToken
	}
	if r.now().Before(s.AccessTokenExpiry) {
		return s, nil
	}
	v, err, _ := r.sf.Do("refresh", func() (interface{}, error) {
		// Re-read: a caller that queued behind the winning flight may
		// already see the patched token.
		cur := store.Read()
		if cur == nil {
			return nil, ErrUnauthenticated
		}
		if cur.Err != "" {
			return cur, ErrRefreshAccessToken
		}
		if r.now().Before(cur.AccessTokenExpiry) {
			return cur, nil
		}
		access, rerr := r.ex.Refresh(ctx, cur.RefreshToken)
		if rerr != nil {
			tagged := *cur
			tagged.Err = RefreshErrorTag
			if serr := store.Replace(ctx, &tagged); serr != nil {
				return nil, serr
			}
			return &tagged, ErrRefreshAccessToken
		}
		if perr := store.PatchTokens(ctx, access, r.now().Add(r.ttl)); perr != nil {
			return nil, perr
		}
		return store.Read(), nil
	})
	if s, ok := v.(*Session); ok {
		return s, err
	}
	return nil, err
}
