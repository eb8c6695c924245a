// Package boot is the startup and teardown shared by the storefront binaries.
package boot

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type closer struct {
	name string
	fn   func() error
}

// Process carries the config and logger of one binary and closes what it opened, in reverse.
type Process struct {
	Name   string
	Config *config.Config
	Log    *logger.Logger

	closers []closer
}

// Start reads an optional .env file, loads the config and builds the logger it describes.
func Start(name string) (*Process, error) {
	boot := logger.New(logger.Options{ServiceName: name})
	if err := godotenv.Load(); err != nil {
		boot.Debug(context.Background(), "no .env file, using the process environment")
	}
	cfg, err := config.Load()
	if err != nil {
		boot.Error(context.Background(), "config.invalid", err)
		return nil, err
	}
	return FromConfig(name, cfg), nil
}

// FromConfig builds a Process around an already loaded config.
func FromConfig(name string, cfg *config.Config) *Process {
	cfg.Service.Kind = name
	return &Process{
		Name:   name,
		Config: cfg,
		Log: logger.New(logger.Options{
			ServiceName: name,
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
			Format:      cfg.App.LogFormat,
		}),
	}
}

// Defer registers fn to run on Close.
func (p *Process) Defer(name string, fn func() error) {
	p.closers = append(p.closers, closer{name: name, fn: fn})
}

// Close runs every deferred closer, newest first, and joins their errors.
func (p *Process) Close() error {
	var err error
	for i := len(p.closers) - 1; i >= 0; i-- {
		c := p.closers[i]
		if cerr := c.fn(); cerr != nil {
			p.Log.Error(context.Background(), "close "+c.name, cerr)
			err = multierr.Append(err, cerr)
		}
	}
	p.closers = nil
	return err
}

// Database opens the pool and, in dev with auto migrate on, brings the schema up.
func (p *Process) Database(ctx context.Context) (*db.Client, error) {
	client, err := db.New(ctx, p.Config.DB, p.Log)
	if err != nil {
		return nil, err
	}
	p.Defer("database", client.Close)
	if err := migrate.MaybeRunDev(ctx, p.Config, p.Log, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (p *Process) Redis(ctx context.Context) (*redis.Client, error) {
	client, err := redis.New(ctx, p.Config.Redis, p.Log)
	if err != nil {
		return nil, err
	}
	p.Defer("redis", client.Close)
	return client, nil
}

// Signals is canceled on SIGINT or SIGTERM and carries the process fields for logging.
func (p *Process) Signals(fields map[string]any) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	base := map[string]any{"env": p.Config.App.Env, "serviceKind": p.Name}
	for k, v := range fields {
		base[k] = v
	}
	return p.Log.WithFields(ctx, base), stop
}

// Serve runs srv in g until ctx ends, then drains it for at most grace.
func Serve(ctx context.Context, g *errgroup.Group, srv *http.Server, grace time.Duration) {
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		drain, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return srv.Shutdown(drain)
	})
}

// Exit closes p and terminates with status 1 when err is a real failure.
func (p *Process) Exit(ctx context.Context, err error) {
	closeErr := p.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		p.Log.Error(ctx, p.Name+".failed", err)
		os.Exit(1)
	}
	if closeErr != nil {
		os.Exit(1)
	}
	p.Log.Info(ctx, p.Name+".stopped")
}
