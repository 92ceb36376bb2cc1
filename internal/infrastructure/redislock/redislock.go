// Package redislock serializes outlet rollups across processes with a Redis
// SET NX lease.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"NewsIntegrity/internal/ports"
)

const (
	DefaultTTL   = 30 * time.Second
	pollInterval = 50 * time.Millisecond
)

// release deletes the key only while it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements ports.Locker on a Redis client.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

var _ ports.Locker = (*Locker)(nil)

// New returns a Locker. Keys are namespaced with prefix.
func New(client *redis.Client, prefix string, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{client: client, ttl: ttl, prefix: prefix}
}

// Lock polls until the lease is acquired or ctx ends. The lease expires after
// the TTL even if the holder dies.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	if l.client == nil {
		return nil, errors.New("redis client not configured")
	}

	fullKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", fullKey, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// The caller's ctx may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = release.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
	}, nil
}
