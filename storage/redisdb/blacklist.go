package redisdb

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/shulehub/shule/core"
)

const blacklistKeyPrefix = "token:blacklist:"

func Open(conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

type tokenBlacklist struct {
	client *redis.Client
}

var _ core.TokenBlacklist = (*tokenBlacklist)(nil) // interface compliance check

func NewTokenBlacklist(client *redis.Client) core.TokenBlacklist {
	return &tokenBlacklist{client: client}
}

// Blacklist marks the token ID as revoked; the key expires with the token so
// the set never grows unbounded.
func (bl *tokenBlacklist) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	if err := bl.client.Set(ctx, blacklistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return errors.Wrap(err, "blacklisting token")
	}
	return nil
}

func (bl *tokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := bl.client.Exists(ctx, blacklistKeyPrefix+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking token blacklist")
	}
	return n > 0, nil
}

// inMemoryBlacklist backs tests; entries expire lazily on lookup.
type inMemoryBlacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

var _ core.TokenBlacklist = (*inMemoryBlacklist)(nil)

func NewInMemoryBlacklist() core.TokenBlacklist {
	return &inMemoryBlacklist{entries: make(map[string]time.Time)}
}

func (bl *inMemoryBlacklist) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	bl.mu.Lock()
	defer bl.mu.Unlock()
	bl.entries[jti] = time.Now().Add(ttl)
	return nil
}

func (bl *inMemoryBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	bl.mu.RLock()
	exp, ok := bl.entries[jti]
	bl.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		bl.mu.Lock()
		delete(bl.entries, jti)
		bl.mu.Unlock()
		return false, nil
	}
	return true, nil
}
