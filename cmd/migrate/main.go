package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/config"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	action := flag.String("action", "up", "Migration action: up, down, steps, status, force")
	steps := flag.Int("steps", 0, "Steps to move (steps action, negative reverts)")
	version := flag.Int("version", 0, "Version to record (force action, -1 clears)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	log := config.NewLogger(cfg.Environment, cfg.LogLevel)

	dbName, err := database.DatabaseName(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	// golang-migrate needs database/sql
	db, err := database.NewPool(database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	log.Info("connected to database", slog.String("database", dbName))

	// Create migrator
	migrator, err := database.NewMigrator(db, dbName, database.WithMigrationLogger(log))
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *action {
	case "up":
		log.Info("running migrations")
		if err := migrator.Up(ctx); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		log.Info("migrations completed")

	case "down":
		log.Info("rolling back last migration")
		if err := migrator.Down(); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		log.Info("migration rolled back")

	case "steps":
		if *steps == 0 {
			return fmt.Errorf("steps flag is required for steps action")
		}
		if err := migrator.Steps(*steps); err != nil {
			return fmt.Errorf("migration steps failed: %w", err)
		}
		log.Info("migration steps applied", slog.Int("steps", *steps))

	case "status", "version":
		status, err := migrator.Status()
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		log.Info("schema status",
			slog.Uint64("version", uint64(status.Version)),
			slog.Uint64("latest", uint64(status.Latest)),
			slog.Bool("dirty", status.Dirty),
			slog.Bool("pending", status.Pending()),
		)

	case "force":
		if *version == 0 {
			return fmt.Errorf("version flag is required for force action")
		}
		log.Info("forcing migration version", slog.Int("version", *version))
		if err := migrator.Force(*version); err != nil {
			return fmt.Errorf("force migration failed: %w", err)
		}
		log.Info("migration version forced")

	default:
		return fmt.Errorf("invalid action: %s (use: up, down, steps, status, force)", *action)
	}

	return nil
}
