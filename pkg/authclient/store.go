package authclient

import (
	"context"
	"sync"
	"time"
)

// Store is the single holder of the current session. Reads never block
// on I/O; the two mutators (Replace, PatchTokens) write through to the
// slot so the session survives restarts.
type Store struct {
	mu   sync.RWMutex
	slot Slot
	cur  *Session
}

// NewStore builds a store backed by slot and loads any persisted
// session. A nil slot yields a memory-only store.
func NewStore(ctx context.Context, slot Slot) (*Store, error) {
	st := &Store{slot: slot}
	if slot != nil {
		s, err := slot.Load(ctx)
		if err != nil {
			return nil, err
		}
		st.cur = s
	}
	return st, nil
}

// Read returns a copy of the current session, or nil when logged out.
// A session carrying an Err tag is still returned; callers decide how
// to react to it.
func (st *Store) Read() *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.cur.clone()
}

// Replace swaps the whole session. Passing nil logs out.
func (st *Store) Replace(ctx context.Context, s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.slot != nil {
		if err := st.slot.Save(ctx, s); err != nil {
			return err
		}
	}
	st.cur = s.clone()
	return nil
}

// PatchTokens updates only the access token and its expiry, keeping the
// refresh token and profile intact. It fails with ErrNoSession when no
// session is held.
func (st *Store) PatchTokens(ctx context.Context, accessToken string, expiry time.Time) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.cur == nil {
		return ErrNoSession
	}
	next := *st.cur
	next.AccessToken = accessToken
	next.AccessTokenExpiry = expiry
	next.Err = ""
	if st.slot != nil {
		if err := st.slot.Save(ctx, &next); err != nil {
			return err
		}
	}
	st.cur = &next
	return nil
}

// Logout drops the session. Calling it with no session held is a no-op.
func (st *Store) Logout(ctx context.Context) error {
	return st.Replace(ctx, nil)
}
