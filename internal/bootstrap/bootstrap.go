package bootstrap

import (
	"context"
	"fmt"

	"referral-server/internal/audit"
	authHandler "referral-server/internal/auth/handler"
	authProcessor "referral-server/internal/auth/processor"
	kafkaClient "referral-server/internal/clients/kafka"
	redisClient "referral-server/internal/clients/redis"
	"referral-server/internal/config"
	fraudHandler "referral-server/internal/fraud/handler"
	fraudProcessor "referral-server/internal/fraud/processor"
	"referral-server/internal/jobs"
	"referral-server/internal/observability"
	"referral-server/internal/ratelimit"
	settlementProcessor "referral-server/internal/settlement/processor"
	"referral-server/internal/store"
	"referral-server/internal/webhooks/events"
	webhookProducer "referral-server/internal/webhooks/producer"

	"github.com/hibiken/asynq"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	// Core
	Store  store.Store
	Logger *observability.Logger

	// Handlers
	AuthHandler  authHandler.Handler
	FraudHandler fraudHandler.Handler
	RateLimiter  *ratelimit.Service

	// Clients (for cleanup)
	KafkaProducer *kafkaClient.Producer
	Dispatcher    *events.Dispatcher
	JobClient     *jobs.Client
	Redis         *redisClient.Client
}

// Initialize sets up all application dependencies
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger: logger,
	}

	// Initialize database store
	var err error
	deps.Store, err = NewStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := deps.Store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize Redis for rate limiting
	deps.Redis, err = redisClient.NewClient(cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	deps.RateLimiter = ratelimit.NewService(deps.Redis, cfg.RateLimit.RequestsPerMinute, logger)

	// Initialize Kafka producer and the webhook event dispatcher on top of it
	deps.KafkaProducer = kafkaClient.NewProducer(kafkaClient.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	}, logger)
	eventProducer := webhookProducer.New(deps.KafkaProducer, logger)
	deps.Dispatcher = events.NewDispatcher(eventProducer, logger, cfg.Settlement.DispatchTimeout)

	// Initialize the job client used to queue background settlement
	deps.JobClient = jobs.NewClient(RedisClientOpt(cfg.Redis), logger)

	auditLogger := audit.New(&deps.Store, logger)

	// Initialize settlement and fraud processors
	settlementProc := settlementProcessor.New(&deps.Store, auditLogger, deps.Dispatcher, deps.JobClient, logger)
	fraudProc := fraudProcessor.New(&deps.Store, &settlementProc, auditLogger, deps.Dispatcher, logger)
	deps.FraudHandler = fraudHandler.New(&fraudProc, &settlementProc, logger)

	// Initialize auth processor and handler
	authProc := authProcessor.New(authProcessor.AuthConfig{JWTSecret: cfg.Auth.JWTSecret}, logger)
	deps.AuthHandler = authHandler.New(authProc, logger)

	return deps, nil
}

// NewStore opens the database with the configured resolution timeouts
func NewStore(cfg *config.Config, logger *observability.Logger) (store.Store, error) {
	s, err := store.New(cfg.Database.ConnectionString(), logger, store.Options{
		LockTimeout: cfg.Settlement.LockTimeout,
		TxTimeout:   cfg.Settlement.TxTimeout,
	})
	if err != nil {
		return store.Store{}, fmt.Errorf("failed to connect to database: %w", err)
	}
	return s, nil
}

// RedisClientOpt converts the Redis settings into asynq connection options
func RedisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Cleanup closes all resources that need cleanup. In-flight webhook
// dispatches are drained before the producer closes.
func (d *Dependencies) Cleanup() {
	if d.Dispatcher != nil {
		d.Dispatcher.Wait()
	}
	if d.KafkaProducer != nil {
		d.KafkaProducer.Close()
	}
	if d.JobClient != nil {
		d.JobClient.Close()
	}
	if d.Redis != nil {
		d.Redis.Close()
	}
	d.Store.Close()
}
