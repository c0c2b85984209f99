package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestNewLock_UniqueOwners(t *testing.T) {
	_, client := setupTestRedis(t)

	a := NewLock(client)
	b := NewLock(client)

	assert.NotEmpty(t, a.OwnerID())
	assert.NotEqual(t, a.OwnerID(), b.OwnerID())
}

func TestLock_Acquire(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "scrape", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	val, err := mr.Get(DefaultLockPrefix + "scrape")
	require.NoError(t, err)
	assert.Equal(t, lock.OwnerID(), val)
	assert.Equal(t, time.Minute, mr.TTL(DefaultLockPrefix+"scrape"))
}

func TestLock_Acquire_HeldElsewhere(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	first := NewLock(client)
	second := NewLock(client)

	ok, err := first.Acquire(ctx, "scrape", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx, "scrape", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = first.Acquire(ctx, "scrape", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "locks are not re-entrant")
}

func TestLock_Acquire_AfterExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	first := NewLock(client)
	second := NewLock(client)

	ok, err := first.Acquire(ctx, "scrape", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = second.Acquire(ctx, "scrape", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_Release(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	_, err := lock.Acquire(ctx, "reindex", time.Minute)
	require.NoError(t, err)

	require.NoError(t, lock.Release(ctx, "reindex"))
	assert.False(t, mr.Exists(DefaultLockPrefix+"reindex"))

	assert.NoError(t, lock.Release(ctx, "reindex"), "releasing twice is safe")
}

func TestLock_Release_ForeignLockUntouched(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	owner := NewLock(client)
	other := NewLock(client)

	_, err := owner.Acquire(ctx, "reindex", time.Minute)
	require.NoError(t, err)

	require.NoError(t, other.Release(ctx, "reindex"))
	assert.True(t, mr.Exists(DefaultLockPrefix+"reindex"))
}

func TestLock_Extend(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	owner := NewLock(client)
	other := NewLock(client)

	_, err := owner.Acquire(ctx, "scrape", time.Minute)
	require.NoError(t, err)

	require.NoError(t, owner.Extend(ctx, "scrape", 10*time.Minute))
	assert.Equal(t, 10*time.Minute, mr.TTL(DefaultLockPrefix+"scrape"))

	err = other.Extend(ctx, "scrape", time.Hour)
	assert.ErrorIs(t, err, ErrLockNotOwned)

	err = owner.Extend(ctx, "missing", time.Hour)
	assert.ErrorIs(t, err, ErrLockNotOwned)
}

func TestLock_CustomPrefix(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLockWithPrefix(client, "test:")

	ok, err := lock.Acquire(context.Background(), "scrape", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("test:scrape"))
}

func TestLock_Ping(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)

	assert.NoError(t, lock.Ping(context.Background()))

	mr.Close()
	assert.Error(t, lock.Ping(context.Background()))
}
