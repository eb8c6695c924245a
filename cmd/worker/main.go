package main

import (
	"context"
	"os"

	"github.com/angelmondragon/storefront-backend/internal/boot"
	"github.com/angelmondragon/storefront-backend/internal/consumers/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/kafka"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
)

func main() {
	proc, err := boot.Start("worker")
	if err != nil {
		os.Exit(1)
	}
	ctx, stop := proc.Signals(nil)
	defer stop()
	proc.Exit(ctx, run(ctx, proc))
}

func run(ctx context.Context, proc *boot.Process) error {
	cfg, logg := proc.Config, proc.Log

	dbClient, err := proc.Database(ctx)
	if err != nil {
		return err
	}
	redisClient, err := proc.Redis(ctx)
	if err != nil {
		return err
	}
	src, closeSource, err := openSource(ctx, cfg, logg)
	if err != nil {
		return err
	}
	proc.Defer("event source", closeSource)

	claims, err := idempotency.NewManager(redisClient, cfg.Eventing.ConsumerIdempotencyTTL)
	if err != nil {
		return err
	}
	consumer, err := orders.NewConsumer(orders.NewDecoders(), claims, logg)
	if err != nil {
		return err
	}
	service, err := NewService(ServiceParams{
		Config:  cfg,
		Logger:  logg,
		DB:      dbClient,
		Redis:   redisClient,
		Source:  src,
		Handler: consumer,
	})
	if err != nil {
		return err
	}

	logg.Info(logg.WithField(ctx, "source", src.Name()), "worker.started")
	return service.Run(ctx)
}

// openSource subscribes to the sink the publisher writes to.
func openSource(ctx context.Context, cfg *config.Config, logg *logger.Logger) (source, func() error, error) {
	if cfg.Outbox.UsesKafka() {
		reader, err := kafka.NewReader(cfg.Kafka, cfg.Kafka.OrdersTopic)
		if err != nil {
			return nil, nil, err
		}
		return &kafkaSource{reader: reader}, reader.Close, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.RoleConsume, logg)
	if err != nil {
		return nil, nil, err
	}
	return &pubsubSource{ping: client.Ping, subscription: client.OrdersSubscription()}, client.Close, nil
}
