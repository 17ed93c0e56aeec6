package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"referral-server/internal/observability"

	"github.com/segmentio/kafka-go"
)

// messageReader is the subset of *kafka.Reader the consumer needs
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer handles consuming events from Kafka
type Consumer struct {
	reader          messageReader
	logger          *observability.Logger
	retryBackoff    time.Duration
	maxRetryBackoff time.Duration
}

// ConsumerConfig contains configuration for Kafka consumer
type ConsumerConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config ConsumerConfig, logger *observability.Logger) *Consumer {
	if config.MinBytes == 0 {
		config.MinBytes = 10e3
	}
	if config.MaxBytes == 0 {
		config.MaxBytes = 10e6
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.Topic,
		GroupID:     config.GroupID,
		MinBytes:    config.MinBytes,
		MaxBytes:    config.MaxBytes,
		StartOffset: kafka.FirstOffset,
		// Offsets are committed explicitly after the handler succeeds
		CommitInterval: 0,
	})

	return &Consumer{
		reader:          reader,
		logger:          logger,
		retryBackoff:    500 * time.Millisecond,
		maxRetryBackoff: 30 * time.Second,
	}
}

// uncommittedPerWorker bounds how far fetching may run ahead of the oldest
// unhandled offset.
const uncommittedPerWorker = 100

type fetched struct {
	msg     kafka.Message
	event   EventMessage
	pending *pendingOffset
}

// ConsumeEvents fetches events until ctx is cancelled and runs handler on up
// to concurrency events at once. A failing handler is retried with backoff
// until it succeeds or ctx is cancelled. Offsets are committed per partition
// only once every earlier fetched offset of that partition has been handled;
// undecodable messages count as handled.
func (c *Consumer) ConsumeEvents(ctx context.Context, concurrency int, handler func(context.Context, EventMessage) error) error {
	if concurrency <= 0 {
		concurrency = 1
	}
	c.logger.Info(ctx, fmt.Sprintf("Starting Kafka consumer with %d workers", concurrency))

	tracker := newOffsetTracker(concurrency * uncommittedPerWorker)
	work := make(chan fetched)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range work {
				if !c.handleWithRetry(ctx, f, handler) {
					continue
				}
				c.complete(ctx, tracker, f.pending)
			}
		}()
	}

	err := c.fetchLoop(ctx, tracker, work)

	close(work)
	wg.Wait()

	c.logger.Info(ctx, "Stopping Kafka consumer")
	return err
}

func (c *Consumer) fetchLoop(ctx context.Context, tracker *offsetTracker, work chan<- fetched) error {
	backoff := c.retryBackoff
	for {
		if !tracker.reserve(ctx) {
			return ctx.Err()
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			tracker.release(1)
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			c.logger.Error(ctx, "failed to fetch message from kafka", err)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = c.nextBackoff(backoff)
			continue
		}
		backoff = c.retryBackoff

		pending := tracker.track(msg)

		var event EventMessage
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error(ctx, "failed to unmarshal event, skipping", err)
			c.complete(ctx, tracker, pending)
			continue
		}

		select {
		case work <- fetched{msg: msg, event: event, pending: pending}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handleWithRetry reports whether the handler eventually succeeded
func (c *Consumer) handleWithRetry(ctx context.Context, f fetched, handler func(context.Context, EventMessage) error) bool {
	msgCtx := observability.WithFields(ctx,
		observability.Field{Key: "event_type", Value: f.event.Type},
		observability.Field{Key: "event_id", Value: f.event.ID},
		observability.Field{Key: "partition", Value: f.msg.Partition},
		observability.Field{Key: "offset", Value: f.msg.Offset},
	)

	backoff := c.retryBackoff
	for attempt := 1; ; attempt++ {
		err := handler(msgCtx, f.event)
		if err == nil {
			c.logger.Debug(msgCtx, fmt.Sprintf("processed event %s", f.event.Type))
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.logger.Error(msgCtx, fmt.Sprintf("failed to process event (attempt %d), retrying in %s", attempt, backoff), err)
		if !sleep(ctx, backoff) {
			return false
		}
		backoff = c.nextBackoff(backoff)
	}
}

// complete marks an offset handled and commits the partition's handled prefix
func (c *Consumer) complete(ctx context.Context, tracker *offsetTracker, pending *pendingOffset) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	msg, popped := tracker.markDone(pending)
	if popped == 0 {
		return
	}
	tracker.release(popped)
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error(ctx, fmt.Sprintf("failed to commit offset %d on partition %d", msg.Offset, msg.Partition), err)
	}
}

func (c *Consumer) nextBackoff(current time.Duration) time.Duration {
	return min(current*2, c.maxRetryBackoff)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type pendingOffset struct {
	msg  kafka.Message
	done bool
}

// offsetTracker keeps fetched offsets per partition in fetch order. Callers
// hold mu across markDone and the commit so commits never move backwards.
type offsetTracker struct {
	mu         sync.Mutex
	partitions map[int][]*pendingOffset
	window     chan struct{}
}

func newOffsetTracker(maxUncommitted int) *offsetTracker {
	return &offsetTracker{
		partitions: map[int][]*pendingOffset{},
		window:     make(chan struct{}, maxUncommitted),
	}
}

// reserve blocks until another offset may be fetched
func (t *offsetTracker) reserve(ctx context.Context) bool {
	select {
	case t.window <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (t *offsetTracker) release(n int) {
	for i := 0; i < n; i++ {
		<-t.window
	}
}

func (t *offsetTracker) track(msg kafka.Message) *pendingOffset {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := &pendingOffset{msg: msg}
	t.partitions[msg.Partition] = append(t.partitions[msg.Partition], p)
	return p
}

// markDone returns the highest message of the partition whose earlier
// offsets are all handled and how many offsets marking p made committable.
func (t *offsetTracker) markDone(p *pendingOffset) (kafka.Message, int) {
	p.done = true

	queue := t.partitions[p.msg.Partition]
	var (
		last   kafka.Message
		popped int
	)
	for len(queue) > 0 && queue[0].done {
		last = queue[0].msg
		popped++
		queue = queue[1:]
	}
	t.partitions[p.msg.Partition] = queue
	return last, popped
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
