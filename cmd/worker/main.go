package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pasbridge/internal/adapters"
	"pasbridge/internal/adapters/storage"
	"pasbridge/internal/email"
	"pasbridge/internal/events"
	"pasbridge/internal/notification"
	"pasbridge/internal/pas"
	"pasbridge/internal/scheduler"
	"pasbridge/internal/transactions"
	"pasbridge/internal/transactions/repository"
	"pasbridge/platform/config"
	"pasbridge/platform/db"
	"pasbridge/platform/logger"
	"pasbridge/platform/metrics"
	"pasbridge/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

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

	eventBus := events.NewInMemoryBus(log)

	notificationModule := notification.New(email.NewSender(cfg), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	var tokenCache pas.TokenCache
	if redisClient, err := scheduler.NewRedisClient(cfg); err != nil {
		log.Warn("PAS token cache disabled", "error", err)
	} else {
		defer func() { _ = redisClient.Close() }()
		tokenCache = pas.NewRedisTokenCache(redisClient, "")
	}
	pasServices := pas.NewServices(pas.NewSession(pas.NewClient(cfg, log, m), cfg, tokenCache, log, m))

	auditRepo := repository.New(pool)
	audit := adapters.NewTransactionAudit(auditRepo, initArchive(cfg, log), log, m)

	orchestrator, err := transactions.NewOrchestrator(pasServices, audit, eventBus, cfg, log, m)
	if err != nil {
		log.Error("failed to initialize orchestrator", "error", err)
		panic("failed to initialize orchestrator: " + err.Error())
	}

	retention := scheduler.NewAuditRetention(auditRepo, cfg, log)
	go retention.Run(ctx)

	go serveMetrics(ctx, cfg.WorkerMetricsAddr, log)

	worker, err := scheduler.NewWorker(cfg, orchestrator, transactions.QueueDecoder(validator.New()), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	eventBus.Wait()
}

// serveMetrics exposes /metrics for the worker process. An empty addr disables it.
func serveMetrics(ctx context.Context, addr string, log *logger.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server stopped", "error", err)
	}
}

func initArchive(cfg config.MinIOConfig, log *logger.Logger) adapters.PayloadArchiver {
	if !cfg.IsMinIOEnabled() {
		return nil
	}
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Warn("payload archive disabled", "error", err)
		return nil
	}
	return storage.NewPayloadArchive(storageSvc, cfg.GetMinioBucketPayloadArchive())
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
