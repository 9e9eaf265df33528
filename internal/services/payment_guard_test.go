// internal/services/payment_guard_test.go
package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPaymentGuardSingleHolder(t *testing.T) {
	guard := NewMemoryPaymentGuard(time.Minute)
	ctx := context.Background()

	ok, err := guard.Acquire(ctx, "txn-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Acquire(ctx, "txn-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = guard.Acquire(ctx, "txn-2")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, guard.Release(ctx, "txn-1"))
	ok, _ = guard.Acquire(ctx, "txn-1")
	assert.True(t, ok)
}

func TestMemoryPaymentGuardExpires(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	guard := NewMemoryPaymentGuard(time.Minute)
	guard.clock = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := guard.Acquire(ctx, "txn-1")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = guard.Acquire(ctx, "txn-1")
	assert.True(t, ok)
}

func TestMemoryPaymentGuardConcurrentAcquire(t *testing.T) {
	guard := NewMemoryPaymentGuard(time.Minute)
	var winners int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := guard.Acquire(context.Background(), "txn-1"); ok {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}
