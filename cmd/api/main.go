package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/boot"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const shutdownGrace = 15 * time.Second

func main() {
	proc, err := boot.Start("api")
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
	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := buildServices(cfg, logg, dbClient, redisClient, sessions, reg)
	if err != nil {
		return err
	}
	router := routes.NewRouter(cfg, logg, dbClient, redisClient, sessions, reg, metrics.NewHTTPMetrics(reg), services)

	// PORT wins so the container platform can pick the listener.
	port := cfg.App.Port
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      otelhttp.NewHandler(router, "storefront-api"),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	boot.Serve(gctx, g, srv, shutdownGrace)
	logg.Info(logg.WithField(ctx, "addr", srv.Addr), "api.listening")
	return g.Wait()
}
