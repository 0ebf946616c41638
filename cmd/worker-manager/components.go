package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"travel-orchestrator/internal/common/config"
	"travel-orchestrator/internal/common/database"
	"travel-orchestrator/internal/common/logger"
	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/session"
	"travel-orchestrator/internal/tools"
	"travel-orchestrator/pkg/registry"
)

type readinessCheck func(ctx context.Context) error

// components holds everything the workers share, minus the Zeebe client.
type components struct {
	store   session.Store
	invoker tools.Invoker
	catalog *registry.Catalog
	checks  map[string]readinessCheck
	closers []func() error
	purger  *session.PostgresStore
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// buildComponents connects the configured session backend, the tool proxy
// and, when enabled, the Elasticsearch station index.
func buildComponents(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger, connectRetries int) (*components, error) {
	c := &components{checks: make(map[string]readinessCheck)}

	if err := c.connectSessionStore(ctx, cfg, zapLog, connectRetries); err != nil {
		c.Close()
		return nil, err
	}

	catalog, err := registry.LoadRegistry(cfg.Tools.RegistryPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("load tool registry: %w", err)
	}
	c.catalog = catalog

	proxy := tools.NewHTTPInvoker(tools.HTTPConfig{
		BaseURL:    cfg.Tools.BaseURL,
		APIKey:     cfg.Tools.APIKey,
		Timeout:    config.GetDuration(cfg.Tools.Timeout),
		MaxRetries: cfg.Tools.MaxRetries,
		RateLimit:  cfg.Tools.RateLimit,
		Burst:      cfg.Tools.Burst,
	}, catalog, log)
	router := tools.NewRouter(proxy)

	if cfg.Tools.StationIndex.Enabled {
		var es *database.Elasticsearch
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, connectRetries, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			c.Close()
			return nil, err
		}
		router.Handle(models.ToolFindStations, tools.NewStationIndex(es.Client, cfg.Tools.StationIndex.Index, log))
		c.checks["elasticsearch"] = es.Ping
		zapLog.Info("find_stations served from Elasticsearch", zap.String("index", cfg.Tools.StationIndex.Index))
	}
	c.invoker = router
	return c, nil
}

func (c *components) connectSessionStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, retries int) error {
	ttl := cfg.SessionTTL()

	switch cfg.Session.Backend {
	case config.SessionBackendMemory, "":
		c.store = session.NewMemoryStore()

	case config.SessionBackendRedis:
		rc := database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(func() error {
			return rc.Ping(ctx)
		}, retries, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			_ = rc.Close()
			return err
		}
		c.store = session.NewRedisStore(rc.Client, cfg.Session.KeyPrefix, ttl)
		c.checks["redis"] = rc.Ping
		c.closers = append(c.closers, rc.Close)

	case config.SessionBackendPostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		err = retryWithBackoff(func() error {
			return pg.Ping(ctx)
		}, retries, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			_ = pg.Close()
			return err
		}
		c.closers = append(c.closers, pg.Close)
		store := session.NewPostgresStore(pg.DB, session.DefaultTable, ttl)
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("create session table: %w", err)
		}
		c.store = store
		c.purger = store
		c.checks["postgres"] = pg.Ping

	default:
		return fmt.Errorf("session backend %q not supported", cfg.Session.Backend)
	}

	zapLog.Info("Session store ready", zap.String("backend", cfg.Session.Backend), zap.Duration("ttl", ttl))
	return nil
}

// runPurger deletes expired Postgres sessions until ctx is done.
func runPurger(ctx context.Context, store *session.PostgresStore, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Purge(ctx)
			if err != nil {
				log.Warn("Session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("Expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}
