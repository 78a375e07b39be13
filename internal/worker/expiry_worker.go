package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// StaleOrderExpirer releases capacity held by pending orders past their
// deadline.
type StaleOrderExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// ExpiryWorker periodically sweeps pending orders whose reservation window
// has lapsed.
type ExpiryWorker struct {
	orders   StaleOrderExpirer
	interval time.Duration
}

func NewExpiryWorker(orders StaleOrderExpirer, interval time.Duration) *ExpiryWorker {
	return &ExpiryWorker{orders: orders, interval: interval}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (w *ExpiryWorker) Run(ctx context.Context) {
	logrus.WithField("interval", w.interval).Info("starting reservation expiry worker")

	w.sweep(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logrus.Info("stopping reservation expiry worker")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	if _, err := w.orders.ExpireStale(ctx); err != nil {
		logrus.WithError(err).Error("failed to expire stale reservations")
	}
}
