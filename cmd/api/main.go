package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/api"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/assets"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/audit"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/cache"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/config"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/database"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/overlay"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/recolor"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/repository"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/service"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/styletransfer"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/worker"
)

const (
	// Finished jobs stay pollable this long when there is no database.
	memoryJobRetention = time.Hour
	cacheCleanupPeriod = 10 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting StyleKit API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("cache_backend", cfg.CacheBackend),
		slog.Bool("remote_enabled", cfg.RemoteEnabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditLogger := audit.NewSlogLogger(logger)

	// Database (optional)
	var pool *pgxpool.Pool
	deps := &api.Dependencies{
		MaxImageSize: cfg.MaxImageSize,
		RateLimit: middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		},
	}
	if cfg.DatabaseURL != "" {
		pool, err = database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		deps.DB = pool
		logger.Info("connected to database")
	}

	// Models
	m := loadModels(ctx, cfg, auditLogger, logger)
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("failed to release models", slog.Any("error", err))
		}
	}()

	// Analysis cache
	analysisCache, err := newCache(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}

	// Analyze
	var analysisRepo service.AnalysisRepositoryInterface
	if pool != nil {
		analysisRepo = repository.NewAnalysisRepository(pool)
	}
	deps.Analyzer = service.NewStyleService(m.classifier, analysisCache, cfg.CacheTTL, analysisRepo, auditLogger, logger)

	// Local edits
	store := assets.NewFSStore(os.DirFS(cfg.AssetsDir))
	deps.Editor = service.NewEditService(
		recolor.New(m.extractor, logger),
		overlay.NewCompositor(m.extractor, store, logger),
		auditLogger,
		logger,
	)

	// Remote style transfer
	var jobRepo repository.RemoteJobRepositoryInterface
	if pool != nil {
		jobRepo = repository.NewRemoteJobRepository(pool)
	} else {
		jobRepo = repository.NewMemoryRemoteJobRepository(memoryJobRetention)
	}

	var queue service.JobQueue
	if cfg.RemoteEnabled() {
		client := styletransfer.NewClient(styletransfer.Config{
			BaseURL:      cfg.StyleAPIURL,
			APIKey:       cfg.StyleAPIKey,
			Timeout:      cfg.StyleAPITimeout,
			PollInterval: cfg.StylePollInterval,
			MaxAttempts:  cfg.StylePollAttempts,
		})
		remoteWorker := worker.NewRemoteJobWorker(
			service.JPEGRunner{Runner: client},
			jobRepo,
			auditLogger,
			logger,
			worker.RemoteJobWorkerConfig{
				Workers:    cfg.RemoteWorkers,
				QueueSize:  cfg.RemoteQueueSize,
				JobTimeout: cfg.RemoteJobTimeout,
			},
		)
		remoteWorker.Start()
		defer remoteWorker.Stop()
		queue = remoteWorker
	}
	deps.Remote = service.NewRemoteService(jobRepo, queue, logger)

	// Setup router
	router := api.NewRouter(logger, deps)
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Error("shutdown timed out")
	}

	logger.Info("server stopped")

	return nil
}

// newCache picks the analysis cache backend. The Postgres backend also
// gets a janitor goroutine that lives as long as ctx.
func newCache(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheBackend {
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("postgres cache requires DATABASE_URL")
		}
		pgCache := cache.NewPGCache(pool)
		go cleanupCache(ctx, pgCache, logger)
		return pgCache, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		context.AfterFunc(ctx, func() { _ = client.Close() })
		return cache.NewRedisCache(client, "stylekit:"), nil

	default:
		return cache.NewMemoryCache(0), nil
	}
}

func cleanupCache(ctx context.Context, c *cache.PGCache, logger *slog.Logger) {
	ticker := time.NewTicker(cacheCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.CleanupExpired(ctx)
			if err != nil {
				logger.Warn("cache cleanup failed", slog.Any("error", err))
				continue
			}
			if n > 0 {
				logger.Debug("cache cleanup", slog.Int64("removed", n))
			}
		}
	}
}
