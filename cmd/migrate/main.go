package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

const usage = `usage: migrate [flags] <command>

commands:
  up         apply all pending migrations (sqlite: create tables from models)
  down       roll back the latest migration
  status     list migrations and when they were applied
  to         migrate up or down to -version
  create     write an empty migration named -name into -dir
  validate   check migration file names and goose markers
`

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	name := flag.String("name", "", "migration name for create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for to")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	if err := run(command, *dir, *name, *version); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", command, err)
		os.Exit(1)
	}
}

func run(command, dir, name, version string) error {
	migrations, err := migrate.Source(dir)
	if err != nil {
		return err
	}

	// neither of these touches the database
	switch command {
	case "create":
		if name == "" {
			return fmt.Errorf("-name is required")
		}
		target := dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.Create(target, name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.Validate(migrations); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": command})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer client.Close()

	if client.IsSQLite() {
		if command != "up" {
			return fmt.Errorf("only up is supported on sqlite")
		}
		return migrate.AutoMigrate(ctx, client)
	}
	return runGoose(ctx, logg, client, migrations, command, version)
}

func runGoose(ctx context.Context, logg *logger.Logger, client *db.Client, migrations fs.FS, command, version string) error {
	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	runner, err := migrate.NewRunner(sqlDB, migrations)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err := runner.Up(ctx)
		logg.Info(logg.WithField(ctx, "applied", len(results)), "migrations applied")
		return err
	case "down":
		result, err := runner.Down(ctx)
		if result != nil && result.Source != nil {
			logg.Info(logg.WithField(ctx, "version", result.Source.Version), "migration rolled back")
		}
		return err
	case "to":
		if version == "" {
			return fmt.Errorf("-version is required")
		}
		results, err := runner.To(ctx, version)
		logg.Info(logg.WithFields(ctx, map[string]any{"version": version, "steps": len(results)}), "schema moved")
		return err
	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
