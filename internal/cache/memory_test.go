package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("v1"), 0))
	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), value)

	require.NoError(t, store.Set(ctx, "k", []byte("v2"), 0))
	value, _, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)

	require.NoError(t, store.Delete(ctx, "k", "missing"))
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore().WithClock(func() time.Time { return clock() })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Minute))
	require.NoError(t, store.Set(ctx, "forever", []byte("v"), 0))

	_, ok, err := store.Get(ctx, "short")
	require.NoError(t, err)
	require.True(t, ok)

	clock = func() time.Time { return now.Add(2 * time.Minute) }

	_, ok, err = store.Get(ctx, "short")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.Get(ctx, "forever")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryStoreIncrementWithTTL(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore().WithClock(func() time.Time { return clock() })
	ctx := context.Background()

	count, ttl, err := store.IncrementWithTTL(ctx, "counter", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, time.Minute, ttl)

	count, ttl, err = store.IncrementWithTTL(ctx, "counter", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.LessOrEqual(t, ttl, time.Minute)

	// The counter resets once the window lapses.
	clock = func() time.Time { return now.Add(2 * time.Minute) }
	count, _, err = store.IncrementWithTTL(ctx, "counter", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore().WithClock(func() time.Time { return clock() })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("v"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("v"), time.Hour))
	require.NoError(t, store.Set(ctx, "c", []byte("v"), 0))

	clock = func() time.Time { return now.Add(30 * time.Minute) }
	require.Equal(t, 1, store.PurgeExpired())

	_, ok, _ := store.Get(ctx, "b")
	require.True(t, ok)
	_, ok, _ = store.Get(ctx, "c")
	require.True(t, ok)
}
