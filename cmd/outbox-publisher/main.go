package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/internal/boot"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

func main() {
	proc, err := boot.Start("outbox-publisher")
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
	sink, topic, closeSink, err := openSink(ctx, cfg, logg)
	if err != nil {
		return err
	}
	proc.Defer("event sink", closeSink)

	events, err := registry.NewEventRegistry(topic)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	relay, err := NewRelay(RelayParams{
		Outbox:        cfg.Outbox,
		Logger:        logg,
		DB:            dbClient,
		Sink:          sink,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      events,
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
		Events:        metrics.NewOutboxMetrics(reg),
		Jobs:          metrics.NewJobMetrics(reg),
	})
	if err != nil {
		return err
	}

	// The publisher has no API; its port only serves /metrics.
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	boot.Serve(gctx, g, metricsSrv, 5*time.Second)
	g.Go(func() error { return relay.Run(gctx) })

	logg.Info(logg.WithFields(ctx, map[string]any{"sink": sink.Name(), "topic": topic}), "outbox-publisher.started")
	return g.Wait()
}
