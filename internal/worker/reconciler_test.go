// internal/worker/reconciler_test.go
package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCanceller struct {
	mu      sync.Mutex
	cutoffs []time.Time
	result  int
	err     error
}

func (f *fakeCanceller) CancelStaleCredit(_ context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.result, f.err
}

func (f *fakeCanceller) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRunOnceUsesStaleCutoff(t *testing.T) {
	canceller := &fakeCanceller{result: 3}
	r := NewReconciler(canceller, time.Minute, 2*time.Hour, quietLogger())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	assert.Equal(t, 3, r.RunOnce(context.Background()))
	require.Len(t, canceller.cutoffs, 1)
	assert.Equal(t, now.Add(-2*time.Hour), canceller.cutoffs[0])
}

func TestRunOnceSwallowsErrors(t *testing.T) {
	canceller := &fakeCanceller{err: errors.New("connection refused")}
	r := NewReconciler(canceller, time.Minute, time.Hour, quietLogger())

	assert.Equal(t, 0, r.RunOnce(context.Background()))
}

func TestDefaults(t *testing.T) {
	r := NewReconciler(&fakeCanceller{}, 0, 0, quietLogger())

	assert.Equal(t, 5*time.Minute, r.interval)
	assert.Equal(t, time.Hour, r.staleAfter)
}

func TestStartStopsOnCancel(t *testing.T) {
	canceller := &fakeCanceller{}
	r := NewReconciler(canceller, 5*time.Millisecond, time.Hour, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return canceller.calls() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
