package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"referral-server/internal/bootstrap"
	"referral-server/internal/clients/kafka"
	"referral-server/internal/config"
	"referral-server/internal/observability"
	webhookConsumer "referral-server/internal/webhooks/consumer"
	webhookService "referral-server/internal/webhooks/service"
	webhookWorker "referral-server/internal/webhooks/worker"
)

func main() {
	logger := observability.NewLogger()
	ctx := context.Background()

	logger.Info(ctx, "Starting webhook delivery worker...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(ctx, "failed to load configuration", err)
	}

	dataStore, err := bootstrap.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize store", err)
	}
	defer dataStore.Close()

	kafkaConsumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.ConsumerGroup,
	}, logger)

	// Deliver events from Kafka and retry failed deliveries on a timer
	webhookSvc := webhookService.New(&dataStore, logger)
	eventConsumer := webhookConsumer.New(kafkaConsumer, webhookSvc, logger, cfg.WorkerPool.WebhookWorkers)
	retryWorker := webhookWorker.New(webhookSvc, logger, cfg.WorkerPool.WebhookRetryPeriod)

	logger.Info(ctx, fmt.Sprintf(`Webhook worker configuration:
  - Delivery workers: %d
  - Retry period: %s
  - Kafka brokers: %v
  - Kafka topic: %s
  - Consumer group: %s`,
		cfg.WorkerPool.WebhookWorkers, cfg.WorkerPool.WebhookRetryPeriod, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup))

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := eventConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(ctx, "webhook event consumer stopped with error", err)
			cancel()
		}
	}()
	go retryWorker.Start(ctx)

	logger.Info(ctx, "Webhook delivery worker started successfully")

	select {
	case <-sigChan:
		logger.Info(ctx, "Received shutdown signal, stopping workers...")
	case <-ctx.Done():
	}
	cancel()

	retryWorker.Stop()
	if err := eventConsumer.Stop(); err != nil {
		logger.Error(ctx, "Error stopping webhook event consumer", err)
	}

	logger.Info(ctx, "Webhook delivery worker stopped")
}
