package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pasbridge/internal/adapters"
	"pasbridge/internal/adapters/storage"
	"pasbridge/internal/email"
	"pasbridge/internal/events"
	apphttp "pasbridge/internal/http"
	"pasbridge/internal/http/router"
	"pasbridge/internal/notification"
	"pasbridge/internal/pas"
	"pasbridge/internal/scheduler"
	"pasbridge/internal/transactions"
	"pasbridge/internal/transactions/handler"
	"pasbridge/internal/transactions/repository"
	"pasbridge/platform/config"
	"pasbridge/platform/db"
	"pasbridge/platform/logger"
	"pasbridge/platform/metrics"
	"pasbridge/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	notificationModule := notification.New(email.NewSender(cfg), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	queue, closeQueue := initQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	val := validator.New()

	// ========================================================================
	// PAS + Orchestration
	// ========================================================================

	pasServices := pas.NewServices(pas.NewSession(pas.NewClient(cfg, log, m), cfg, initTokenCache(cfg, log), log, m))

	auditRepo := repository.New(pool)
	audit := adapters.NewTransactionAudit(auditRepo, initArchive(ctx, cfg, log), log, m)

	orchestrator, err := transactions.NewOrchestrator(pasServices, audit, eventBus, cfg, log, m)
	if err != nil {
		log.Error("failed to initialize orchestrator", "error", err)
		panic("failed to initialize orchestrator: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	var enqueuer handler.Enqueuer
	if queue != nil {
		enqueuer = queue
	}
	transactionsModule := transactions.NewModule(orchestrator, enqueuer, auditRepo, val, log, m)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.PoolHealth{Pool: pool},
		Metrics:  prometheus.DefaultGatherer,
		EventBus: eventBus,
		Modules:  []apphttp.Module{transactionsModule},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; async transaction endpoint disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize transaction queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// initTokenCache shares the PAS session through Redis when it is configured.
func initTokenCache(cfg config.SchedulerConfig, log *logger.Logger) pas.TokenCache {
	if cfg.GetRedisURL() == "" {
		return nil
	}
	client, err := scheduler.NewRedisClient(cfg)
	if err != nil {
		log.Warn("PAS token cache disabled", "error", err)
		return nil
	}
	return pas.NewRedisTokenCache(client, "")
}

func initArchive(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) adapters.PayloadArchiver {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; payload archive disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Warn("payload archive disabled", "error", err)
		return nil
	}

	bucket := cfg.GetMinioBucketPayloadArchive()
	if err := withRetry(ctx, log, "ensure payload archive bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Warn("payload archive disabled", "error", err, "bucket", bucket)
		return nil
	}
	log.Info("payload archive initialized", "bucket", bucket)

	return storage.NewPayloadArchive(storageSvc, bucket)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
