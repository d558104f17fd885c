package ctxstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ExpiryOnRead(t *testing.T) {
	store := NewMemoryStore(300 * time.Second)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	ctx := context.Background()
	require.NoError(t, store.Begin(ctx, "user-1"))

	_, ok, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(301 * time.Second)
	_, ok, err = store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)

	// expiry removed the entry, so a touch cannot revive it
	require.NoError(t, store.Touch(ctx, "user-1"))
	_, ok, err = store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_TouchRefreshes(t *testing.T) {
	store := NewMemoryStore(300 * time.Second)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	ctx := context.Background()
	require.NoError(t, store.Begin(ctx, "user-1"))

	now = now.Add(200 * time.Second)
	require.NoError(t, store.Touch(ctx, "user-1"))

	now = now.Add(200 * time.Second)
	_, ok, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryStore_EndRemoves(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, "user-1"))
	require.NoError(t, store.End(ctx, "user-1"))

	_, ok, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)

	// ending an absent context is a no-op
	require.NoError(t, store.End(ctx, "user-2"))
}

func TestMemoryStore_UsersAreIsolated(t *testing.T) {
	store := NewMemoryStore(300 * time.Second)
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, "user-1"))

	_, ok, err := store.Get(ctx, "user-2")
	require.NoError(t, err)
	require.False(t, ok)
}
