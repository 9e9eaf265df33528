// internal/services/payment_guard.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// PaymentGuard serializes payment attempts per transaction across instances.
type PaymentGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisPaymentGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisPaymentGuard pings addr before returning.
func NewRedisPaymentGuard(addr, password string, db int, ttl time.Duration) (*RedisPaymentGuard, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisPaymentGuard{rdb: rdb, ttl: ttl}, nil
}

func (g *RedisPaymentGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, lockKey(key), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	return ok, nil
}

func (g *RedisPaymentGuard) Release(ctx context.Context, key string) error {
	return g.rdb.Del(ctx, lockKey(key)).Err()
}

func (g *RedisPaymentGuard) Close() error {
	return g.rdb.Close()
}

func lockKey(key string) string {
	return fmt.Sprintf("lock:payment:%s", key)
}

// MemoryPaymentGuard is the single-instance fallback when Redis is not configured.
type MemoryPaymentGuard struct {
	mu    sync.Mutex
	held  map[string]time.Time
	ttl   time.Duration
	clock func() time.Time
}

func NewMemoryPaymentGuard(ttl time.Duration) *MemoryPaymentGuard {
	return &MemoryPaymentGuard{
		held:  make(map[string]time.Time),
		ttl:   ttl,
		clock: time.Now,
	}
}

func (g *MemoryPaymentGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock()
	if expires, ok := g.held[key]; ok && now.Before(expires) {
		return false, nil
	}
	g.held[key] = now.Add(g.ttl)
	return true, nil
}

func (g *MemoryPaymentGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.held, key)
	g.mu.Unlock()
	return nil
}
