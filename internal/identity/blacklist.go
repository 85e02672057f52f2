package identity

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Blacklist records signed-out tokens until they would have expired.
type Blacklist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	Revoked(ctx context.Context, token string) (bool, error)
}

type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time), now: time.Now}
}

func (b *MemoryBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	for t, exp := range b.entries {
		if now.After(exp) {
			delete(b.entries, t)
		}
	}
	b.entries[token] = now.Add(ttl)
	return nil
}

func (b *MemoryBlacklist) Revoked(ctx context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.entries[token]
	if !ok {
		return false, nil
	}
	if b.now().After(exp) {
		delete(b.entries, token)
		return false, nil
	}
	return true, nil
}

const revokedKeyPrefix = "nocturne:revoked:"

// RedisBlacklist shares revocations across API instances.
type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, revokedKeyPrefix+token, 1, ttl).Err()
}

func (b *RedisBlacklist) Revoked(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, revokedKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
