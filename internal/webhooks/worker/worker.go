package worker

import (
	"context"
	"time"

	"referral-server/internal/observability"
)

const retryBatchSize = 100

// DeliveryRetrier re-attempts webhook deliveries that are due
type DeliveryRetrier interface {
	RetryFailedDeliveries(ctx context.Context, limit int) error
}

// WebhookWorker handles background webhook retry processing
type WebhookWorker struct {
	retrier  DeliveryRetrier
	logger   *observability.Logger
	stopChan chan struct{}
	interval time.Duration
}

// New creates a new WebhookWorker
func New(retrier DeliveryRetrier, logger *observability.Logger, interval time.Duration) *WebhookWorker {
	return &WebhookWorker{
		retrier:  retrier,
		logger:   logger,
		stopChan: make(chan struct{}),
		interval: interval,
	}
}

// Start runs retries immediately and then on every tick until stopped
func (w *WebhookWorker) Start(ctx context.Context) {
	w.logger.Info(ctx, "Starting webhook retry worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.processRetries(ctx)

	for {
		select {
		case <-ticker.C:
			w.processRetries(ctx)
		case <-w.stopChan:
			w.logger.Info(ctx, "Stopping webhook retry worker")
			return
		case <-ctx.Done():
			w.logger.Info(ctx, "Context cancelled, stopping webhook retry worker")
			return
		}
	}
}

// Stop stops the background worker
func (w *WebhookWorker) Stop() {
	close(w.stopChan)
}

func (w *WebhookWorker) processRetries(ctx context.Context) {
	if err := w.retrier.RetryFailedDeliveries(ctx, retryBatchSize); err != nil {
		w.logger.Error(ctx, "failed to process webhook retries", err)
	}
}
