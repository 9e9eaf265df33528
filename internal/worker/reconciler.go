// internal/worker/reconciler.go
package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// StaleCreditCanceller cancels credit transactions that never got a
// verification document before cutoff.
type StaleCreditCanceller interface {
	CancelStaleCredit(ctx context.Context, cutoff time.Time) (int, error)
}

// Reconciler periodically cleans up credit purchases abandoned between
// transaction creation and document upload.
type Reconciler struct {
	transactions StaleCreditCanceller
	interval     time.Duration
	staleAfter   time.Duration
	logger       logrus.FieldLogger
	now          func() time.Time
}

func NewReconciler(transactions StaleCreditCanceller, interval, staleAfter time.Duration, logger logrus.FieldLogger) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	return &Reconciler{
		transactions: transactions,
		interval:     interval,
		staleAfter:   staleAfter,
		logger:       logger.WithField("worker", "reconciler"),
		now:          time.Now,
	}
}

// Start runs until ctx is done.
func (r *Reconciler) Start(ctx context.Context) {
	r.logger.WithFields(logrus.Fields{
		"interval":    r.interval,
		"stale_after": r.staleAfter,
	}).Info("Starting reconciler")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping reconciler")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single pass and returns the number of cancelled transactions.
func (r *Reconciler) RunOnce(ctx context.Context) int {
	cutoff := r.now().Add(-r.staleAfter)

	cancelled, err := r.transactions.CancelStaleCredit(ctx, cutoff)
	if err != nil {
		r.logger.WithError(err).Error("Reconciliation failed")
		return 0
	}
	if cancelled > 0 {
		r.logger.WithField("cancelled", cancelled).Info("Cancelled stale credit transactions")
	}
	return cancelled
}
