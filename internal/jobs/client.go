package jobs

import (
	"context"
	"errors"
	"fmt"

	"referral-server/internal/observability"

	"github.com/hibiken/asynq"
)

// ErrAlreadyQueued is returned when an identical task is still pending
var ErrAlreadyQueued = errors.New("job already queued")

// enqueuer is the subset of *asynq.Client the job client needs
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client handles enqueueing background jobs
type Client struct {
	client enqueuer
	logger *observability.Logger
}

// NewClient creates a new job client
func NewClient(redisOpt asynq.RedisClientOpt, logger *observability.Logger) *Client {
	return &Client{
		client: asynq.NewClient(redisOpt),
		logger: logger,
	}
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueRewardSettlement enqueues a settlement job for a referral
func (c *Client) EnqueueRewardSettlement(ctx context.Context, payload RewardSettlementJobPayload) error {
	ctx = observability.WithFields(ctx, observability.Field{Key: "referral_id", Value: payload.ReferralID})

	task, err := NewRewardSettlementTask(payload)
	if err != nil {
		c.logger.Error(ctx, "failed to create reward settlement task", err)
		return fmt.Errorf("failed to create reward settlement task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			c.logger.Info(ctx, "reward settlement already queued")
			return ErrAlreadyQueued
		}
		c.logger.Error(ctx, "failed to enqueue reward settlement task", err)
		return fmt.Errorf("failed to enqueue reward settlement task: %w", err)
	}

	c.logger.Info(ctx, fmt.Sprintf("enqueued reward settlement task: %s (queue: %s)", info.ID, info.Queue))
	return nil
}
