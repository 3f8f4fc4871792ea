package authclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testSession(access string) *Session {
	return &Session{
		AccessToken:       access,
		RefreshToken:      "R1",
		AccessTokenExpiry: time.Now().Add(AccessTokenTTL),
		Profile:           Profile{ID: "u1", Phone: "09120000000", Name: "Sara"},
	}
}

func TestStoreReadEmpty(t *testing.T) {
	st, err := NewStore(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, st.Read())
}

func TestStoreReplaceAndRead(t *testing.T) {
	ctx := context.Background()
	st, err := NewStore(ctx, NewMemorySlot())
	require.NoError(t, err)

	require.NoError(t, st.Replace(ctx, testSession("A1")))
	got := st.Read()
	require.NotNil(t, got)
	require.Equal(t, "A1", got.AccessToken)

	// Mutating the returned copy must not leak into the store.
	got.AccessToken = "tampered"
	require.Equal(t, "A1", st.Read().AccessToken)
}

func TestStorePatchTokensKeepsRefreshAndProfile(t *testing.T) {
	ctx := context.Background()
	st, err := NewStore(ctx, NewMemorySlot())
	require.NoError(t, err)
	require.NoError(t, st.Replace(ctx, testSession("A1")))

	expiry := time.Now().Add(AccessTokenTTL)
	require.NoError(t, st.PatchTokens(ctx, "A2", expiry))

	got := st.Read()
	require.Equal(t, "A2", got.AccessToken)
	require.Equal(t, "R1", got.RefreshToken)
	require.Equal(t, "Sara", got.Profile.Name)
	require.WithinDuration(t, expiry, got.AccessTokenExpiry, time.Second)
}

func TestStorePatchTokensWithoutSession(t *testing.T) {
	st, err := NewStore(context.Background(), nil)
	require.NoError(t, err)
	err = st.PatchTokens(context.Background(), "A2", time.Now())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestStoreLogoutIdempotent(t *testing.T) {
	ctx := context.Background()
	st, err := NewStore(ctx, NewMemorySlot())
	require.NoError(t, err)
	require.NoError(t, st.Replace(ctx, testSession("A1")))

	require.NoError(t, st.Logout(ctx))
	require.Nil(t, st.Read())
	require.NoError(t, st.Logout(ctx))
	require.Nil(t, st.Read())
}

func TestRedisSlotPersistsAcrossStores(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()
	slot := NewRedisSlot(client, "test:session", time.Hour)

	st, err := NewStore(ctx, slot)
	require.NoError(t, err)
	require.NoError(t, st.Replace(ctx, testSession("A1")))

	// A fresh store over the same slot sees the persisted session.
	st2, err := NewStore(ctx, NewRedisSlot(client, "test:session", time.Hour))
	require.NoError(t, err)
	got := st2.Read()
	require.NotNil(t, got)
	require.Equal(t, "A1", got.AccessToken)
	require.Equal(t, "u1", got.Profile.ID)

	require.NoError(t, st2.Logout(ctx))
	st3, err := NewStore(ctx, slot)
	require.NoError(t, err)
	require.Nil(t, st3.Read())
}
