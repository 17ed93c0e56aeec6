package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"referral-server/internal/audit"
	"referral-server/internal/bootstrap"
	kafkaClient "referral-server/internal/clients/kafka"
	"referral-server/internal/config"
	"referral-server/internal/jobs"
	"referral-server/internal/jobs/workers"
	"referral-server/internal/observability"
	settlementProcessor "referral-server/internal/settlement/processor"
	"referral-server/internal/webhooks/events"
	webhookProducer "referral-server/internal/webhooks/producer"

	"github.com/hibiken/asynq"
)

func main() {
	logger := observability.NewLogger()
	ctx := context.Background()

	logger.Info(ctx, "Starting background worker server...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(ctx, "failed to load configuration", err)
	}

	dataStore, err := bootstrap.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize store", err)
	}
	defer dataStore.Close()

	// REWARD_CREATED events go through the same Kafka pipeline as the API's
	kafkaProducer := kafkaClient.NewProducer(kafkaClient.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	}, logger)
	defer kafkaProducer.Close()
	dispatcher := events.NewDispatcher(webhookProducer.New(kafkaProducer, logger), logger, cfg.Settlement.DispatchTimeout)
	defer dispatcher.Wait()

	redisOpt := bootstrap.RedisClientOpt(cfg.Redis)
	jobClient := jobs.NewClient(redisOpt, logger)
	defer jobClient.Close()

	settlementProc := settlementProcessor.New(&dataStore, audit.New(&dataStore, logger), dispatcher, jobClient, logger)
	settlementWorker := workers.NewSettlementWorker(&settlementProc, logger)

	// Create Asynq server with queue configuration
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerPool.SettlementWorkers,
			Queues: map[string]int{
				jobs.QueueHigh:   6,
				jobs.QueueMedium: 3,
				jobs.QueueLow:    1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error(ctx, fmt.Sprintf("task %s failed", task.Type()), err)
			}),
			RetryDelayFunc: asynq.DefaultRetryDelayFunc,
			Logger:         &asynqLogger{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TypeRewardSettlement, settlementWorker.ProcessRewardSettlementTask)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := srv.Start(mux); err != nil {
		logger.Fatal(ctx, "failed to start worker server", err)
	}
	logger.Info(ctx, fmt.Sprintf("Worker server started on Redis: %s", redisOpt.Addr))

	<-sigChan
	logger.Info(ctx, "Shutting down worker server...")

	srv.Shutdown()
	logger.Info(ctx, "Worker server stopped")
}

// asynqLogger adapts observability.Logger to asynq.Logger interface
type asynqLogger struct {
	logger *observability.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(context.Background(), fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(context.Background(), fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(context.Background(), fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(context.Background(), fmt.Sprint(args...), nil)
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(context.Background(), fmt.Sprint(args...), nil)
	os.Exit(1)
}
