package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// TokenBlacklist remembers revoked token ids until the tokens expire.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryBlacklist keeps revoked ids in process memory. Suitable for a single
// instance.
type MemoryBlacklist struct {
	clock   clockwork.Clock
	revoked map[string]time.Time
	mutex   sync.RWMutex
}

func NewMemoryBlacklist(clock clockwork.Clock) *MemoryBlacklist {
	return &MemoryBlacklist{
		clock:   clock,
		revoked: make(map[string]time.Time),
	}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.revoked[jti] = expiresAt
	return nil
}

func (b *MemoryBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	exp, ok := b.revoked[jti]
	return ok && b.clock.Now().Before(exp), nil
}

// Purge drops entries whose token has expired anyway and returns how many
// were removed.
func (b *MemoryBlacklist) Purge() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	now := b.clock.Now()
	removed := 0
	for jti, exp := range b.revoked {
		if !now.Before(exp) {
			delete(b.revoked, jti)
			removed++
		}
	}
	return removed
}

const blacklistKeyPrefix = "bikerental:revoked:"

// RedisBlacklist shares revocations between instances. Keys expire with the
// token so no purge is needed.
type RedisBlacklist struct {
	client *redis.Client
	clock  clockwork.Clock
}

func NewRedisBlacklist(client *redis.Client, clock clockwork.Clock) *RedisBlacklist {
	return &RedisBlacklist{client: client, clock: clock}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (b *RedisBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.clock.Now())
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistKeyPrefix+jti, 1, ttl).Err()
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := b.client.Get(ctx, blacklistKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
