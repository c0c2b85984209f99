package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*Lock)(nil)

// DefaultLockPrefix namespaces scheduler locks in a shared Redis.
const DefaultLockPrefix = "vta:lock:"

// ErrLockNotOwned is returned by Extend when another instance holds the lock
// or it has already expired.
var ErrLockNotOwned = errors.New("lock not held by this instance")

// Lock is a SET NX PX lock keyed by job name. The value is a per-process
// owner token so one instance can never release or extend another's lock.
type Lock struct {
	client redis.UniversalClient
	prefix string
	owner  string
}

// NewLock creates a lock using DefaultLockPrefix.
func NewLock(client redis.UniversalClient) *Lock {
	return NewLockWithPrefix(client, DefaultLockPrefix)
}

// NewLockWithPrefix creates a lock whose keys start with prefix.
func NewLockWithPrefix(client redis.UniversalClient, prefix string) *Lock {
	return &Lock{client: client, prefix: prefix, owner: ownerToken()}
}

// ownerToken is host:pid:random.
func ownerToken() string {
	host, _ := os.Hostname()
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s:%d:%s", host, os.Getpid(), hex.EncodeToString(buf))
}

func (l *Lock) key(name string) string {
	return l.prefix + name
}

// Acquire sets the key only if absent. A lock this instance already holds
// is not re-entrant.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(name), l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// compareAndDelete and compareAndExpire only touch the key when the stored
// owner matches ARGV[1].
var (
	compareAndDelete = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`)
	compareAndExpire = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		end
		return 0
	`)
)

// Release deletes the key if this instance owns it. Releasing an expired or
// foreign lock is not an error.
func (l *Lock) Release(ctx context.Context, name string) error {
	err := compareAndDelete.Run(ctx, l.client, []string{l.key(name)}, l.owner).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Extend pushes the expiry of a held lock out to ttl from now.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	n, err := compareAndExpire.Run(ctx, l.client, []string{l.key(name)}, l.owner, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("extend lock %s: %w", name, ErrLockNotOwned)
	}
	return nil
}

// Ping checks Redis is reachable.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID identifies this instance in lock values.
func (l *Lock) OwnerID() string {
	return l.owner
}
