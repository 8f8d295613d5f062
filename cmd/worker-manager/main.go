// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"assessment-workers/internal/catalog"
	"assessment-workers/internal/common/camunda"
	"assessment-workers/internal/common/config"
	"assessment-workers/internal/common/database"
	apperrors "assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/common/metrics"
	"assessment-workers/internal/common/observability"
	"assessment-workers/internal/common/validation"
	"assessment-workers/internal/valuation"
	"assessment-workers/pkg/registry"

	// Appraisal Workers (2)
	ca "assessment-workers/internal/workers/appraisal/compute-appraisal"
	lau "assessment-workers/internal/workers/appraisal/list-available-usages"

	// Assessment Workers (2)
	cas "assessment-workers/internal/workers/assessment/calculate-assessment"
	ral "assessment-workers/internal/workers/assessment/resolve-assessment-level"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewFromConfig(cfg.Logging)
	if err != nil {
		bootLog.Fatal("logger init failed", zap.Error(err))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting assessment worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// Money leaves the workers as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true

	policy, err := cfg.Valuation.Policy()
	if err != nil {
		zapLog.Fatal("valuation policy invalid", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ClientConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry (catalog source postgres only) ---
	var pg *database.PostgresClient
	if cfg.Valuation.Catalog.Source == config.CatalogSourcePostgres {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		zapLog.Info("PostgreSQL connected successfully")
	}
	defer pg.Close()

	// --- Init Redis (optional catalog cache) ---
	var redis *database.RedisClient
	if cfg.Database.Redis.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
			_ = redis.Close()
			redis = nil
		} else {
			zapLog.Info("Redis connected successfully")
		}
	}
	defer redis.Close()

	// --- Load the cost catalog ---
	catCfg := cfg.Valuation.Catalog
	loader := catalog.NewLoader(&catalog.Config{
		Source:   catCfg.Source,
		Path:     catCfg.Path,
		Schedule: catCfg.Schedule,
		CacheTTL: catCfg.CacheTTLDuration(),
		Timeout:  catCfg.TimeoutDuration(),
	}, pg.GetDB(), redis.GetClient(), log)

	var costs *valuation.CostCatalog
	err = retryWithBackoff(func() error {
		var err error
		costs, err = loader.Load(ctx)
		if err != nil {
			metrics.CatalogLoads.WithLabelValues(catCfg.Source, "error").Inc()
			return err
		}
		metrics.CatalogLoads.WithLabelValues(catCfg.Source, "ok").Inc()
		return nil
	}, 3, 2*time.Second, zapLog, "Cost catalog load")
	if err != nil {
		stdErr := apperrors.NewCatalogLoadFailedError(catCfg.Source, err)
		zapLog.Fatal("cost catalog unavailable",
			zap.String("code", string(stdErr.Code)),
			zap.Error(stdErr),
		)
	}
	metrics.CatalogEntries.Set(float64(costs.Len()))

	// --- Input schemas from the activity registry ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err), zap.String("path", cfg.Registry.Path))
	}
	validator, err := validation.NewValidator(reg)
	if err != nil {
		zapLog.Fatal("activity registry schemas invalid", zap.Error(err))
	}

	resolver := valuation.DefaultResolver()
	pool := camunda.NewPool(zeebe.GetClient(), log)

	// --- Register Workers ---
	if config.IsWorkerEnabled(cfg, ca.TaskType) {
		handler, err := ca.NewHandler(&ca.Config{Timeout: handlerTimeout(cfg, ca.TaskType)}, ca.Dependencies{
			Catalog:       costs,
			Policy:        policy,
			Validator:     validator,
			Observability: obs,
		}, log)
		if err != nil {
			zapLog.Fatal("failed to create compute-appraisal handler", zap.Error(err))
		}
		pool.Start(ca.TaskType, config.GetWorkerConfig(cfg, ca.TaskType), handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, lau.TaskType) {
		handler, err := lau.NewHandler(&lau.Config{Timeout: handlerTimeout(cfg, lau.TaskType)}, lau.Dependencies{
			Catalog:       costs,
			Validator:     validator,
			Observability: obs,
		}, log)
		if err != nil {
			zapLog.Fatal("failed to create list-available-usages handler", zap.Error(err))
		}
		pool.Start(lau.TaskType, config.GetWorkerConfig(cfg, lau.TaskType), handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, ral.TaskType) {
		handler := ral.NewHandler(&ral.Config{Timeout: handlerTimeout(cfg, ral.TaskType)}, ral.Dependencies{
			Resolver:      resolver,
			Validator:     validator,
			Observability: obs,
		}, log)
		pool.Start(ral.TaskType, config.GetWorkerConfig(cfg, ral.TaskType), handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, cas.TaskType) {
		handler, err := cas.NewHandler(&cas.Config{Timeout: handlerTimeout(cfg, cas.TaskType)}, cas.Dependencies{
			Catalog:       costs,
			Resolver:      resolver,
			Policy:        policy,
			Validator:     validator,
			Observability: obs,
		}, log)
		if err != nil {
			zapLog.Fatal("failed to create calculate-assessment handler", zap.Error(err))
		}
		pool.Start(cas.TaskType, config.GetWorkerConfig(cfg, cas.TaskType), handler.Handle)
	}
	zapLog.Info("Workers registered", zap.Strings("taskTypes", pool.TaskTypes()))

	// --- Health & Metrics Server ---
	server := newServer(cfg.Server.Address, costs, zeebe)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	pool.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Flush(shutdownCtx); err != nil {
		zapLog.Warn("Error flushing spans", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// handlerTimeout is the per-job deadline of taskType, taken from its worker config.
func handlerTimeout(cfg *config.Config, taskType string) time.Duration {
	return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
}
