package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	kafkago "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/kafka"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const heartbeatInterval = 30 * time.Second

// messageHandler processes one delivery. A nil return acknowledges it.
type messageHandler interface {
	Handle(ctx context.Context, attributes map[string]string, data []byte) error
}

// source feeds deliveries from a broker into a handler until ctx is done.
type source interface {
	Name() string
	Ping(context.Context) error
	Run(ctx context.Context, h messageHandler) error
}

type pinger interface {
	Ping(context.Context) error
}

type ServiceParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      pinger
	Redis   pinger
	Source  source
	Handler messageHandler
}

// Service runs one source into one handler once every dependency answers.
type Service struct {
	logg    *logger.Logger
	deps    []dependency
	source  source
	handler messageHandler
}

type dependency struct {
	name string
	ping func(context.Context) error
}

func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.Config == nil:
		return nil, errors.New("config is required")
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.Redis == nil:
		return nil, errors.New("redis client is required")
	case p.Source == nil:
		return nil, errors.New("event source is required")
	case p.Handler == nil:
		return nil, errors.New("message handler is required")
	}
	return &Service{
		logg: p.Logger,
		deps: []dependency{
			{"database", p.DB.Ping},
			{"redis", p.Redis.Ping},
			{p.Source.Name(), p.Source.Ping},
		},
		source:  p.Source,
		handler: p.Handler,
	}, nil
}

func (s *Service) ready(ctx context.Context) error {
	for _, d := range s.deps {
		if err := d.ping(ctx); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "dependency", d.name), "worker.dependency_down", err)
			return fmt.Errorf("%s ping failed: %w", d.name, err)
		}
	}
	return nil
}

// Run consumes until ctx is canceled or the source fails.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	s.logg.Info(ctx, "worker.ready")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.source.Run(gctx, s.handler)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(gctx, "worker.source_failed", err)
		}
		return err
	})
	g.Go(func() error {
		beat := time.NewTicker(heartbeatInterval)
		defer beat.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-beat.C:
				s.logg.Debug(gctx, "worker.heartbeat")
			}
		}
	})

	if err := g.Wait(); ctx.Err() == nil {
		return err
	}
	return ctx.Err()
}

type pubsubSource struct {
	ping         func(context.Context) error
	subscription *gcppubsub.Subscriber
}

func (p *pubsubSource) Name() string { return config.EventSinkPubSub }

func (p *pubsubSource) Ping(ctx context.Context) error { return p.ping(ctx) }

func (p *pubsubSource) Run(ctx context.Context, h messageHandler) error {
	if p.subscription == nil {
		return errors.New("orders subscription not configured")
	}
	return p.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		if err := h.Handle(ctx, msg.Attributes, msg.Data); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type kafkaConsumer interface {
	Ping(context.Context) error
	Consume(ctx context.Context, h kafka.Handler) error
}

type kafkaSource struct {
	reader kafkaConsumer
}

func (k *kafkaSource) Name() string { return config.EventSinkKafka }

func (k *kafkaSource) Ping(ctx context.Context) error { return k.reader.Ping(ctx) }

func (k *kafkaSource) Run(ctx context.Context, h messageHandler) error {
	return k.reader.Consume(ctx, func(ctx context.Context, msg kafkago.Message) error {
		return h.Handle(ctx, kafka.HeadersToMap(msg.Headers), msg.Value)
	})
}
