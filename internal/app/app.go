// Package app wires the gateway's components together and runs the server.
// Both binaries (the daemon and the CLI serve command) share this path.
package app

import (
	"context"
	"time"

	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/infrastructure/database/redis"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/metrics"
	"github.com/tradepulse/tradepulse/internal/infrastructure/query"
	"github.com/tradepulse/tradepulse/internal/infrastructure/refdata"
	httpiface "github.com/tradepulse/tradepulse/internal/interfaces/http"
	"github.com/tradepulse/tradepulse/internal/interfaces/http/handlers"
	"github.com/tradepulse/tradepulse/internal/session"
	"github.com/tradepulse/tradepulse/pkg/errors"
)

// warmupTimeout bounds the initial reference data load.  A failure is not
// fatal: readiness stays false and the store retries lazily on first use.
const warmupTimeout = 30 * time.Second

type options struct {
	configFile string
}

// Option customizes Run.
type Option func(*options)

// WithConfigFile enables hot-reload of the safe orchestrator tunables
// (debounce windows, row limits, idle timeout) when the file changes.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// Run starts the gateway and blocks until ctx is canceled or the server
// fails.  All components are torn down before it returns.
func Run(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	m := metrics.New()

	backend, err := query.NewClient(cfg.Backend, cfg.Orchestrator,
		query.WithLogger(log.Named("query")))
	if err != nil {
		return err
	}

	var (
		redisClient *redis.Client
		refCache    redis.Cache
	)
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis, log.Named("redis"))
		if err != nil {
			// Reference data degrades to direct backend loads.
			log.Warn("redis unavailable, continuing without warm cache", logging.Err(err))
		} else {
			defer redisClient.Close()
			opts := []redis.CacheOption{}
			if cfg.Redis.KeyPrefix != "" {
				opts = append(opts, redis.WithPrefix(cfg.Redis.KeyPrefix))
			}
			if cfg.Redis.DefaultTTL > 0 {
				opts = append(opts, redis.WithDefaultTTL(cfg.Redis.DefaultTTL))
			}
			refCache = redis.NewCache(redisClient, log.Named("redis"), opts...)
		}
	}

	storeOpts := []refdata.Option{}
	if refCache != nil {
		storeOpts = append(storeOpts, refdata.WithCache(refCache))
	}
	store := refdata.NewStore(backend, log.Named("refdata"), storeOpts...)

	warmCtx, cancelWarm := context.WithTimeout(ctx, warmupTimeout)
	if err := store.Load(warmCtx); err != nil {
		log.Warn("reference data warmup failed, readiness gated until retry", logging.Err(err))
	}
	cancelWarm()

	manager := session.NewManager(backend, cfg.Orchestrator, log, m)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go manager.Run(sweepCtx)

	if o.configFile != "" {
		config.Watch(o.configFile, func(next *config.Config) {
			manager.UpdateOrchestratorConfig(next.Orchestrator)
		})
	}

	checkers := []handlers.HealthChecker{
		handlers.CheckerFunc{CheckerName: "backend", Fn: backend.Ping},
		handlers.CheckerFunc{CheckerName: "refdata", Fn: func(context.Context) error {
			if !store.Ready() {
				return errors.New(errors.ErrCodeRefDataNotLoaded, "reference data not loaded")
			}
			return nil
		}},
	}
	if redisClient != nil {
		checkers = append(checkers, handlers.CheckerFunc{CheckerName: "redis", Fn: redisClient.Ping})
	}

	router := httpiface.NewRouter(httpiface.RouterConfig{
		SessionHandler: handlers.NewSessionHandler(manager, handlers.WithReadyGate(store.Ready)),
		RefDataHandler: handlers.NewRefDataHandler(store),
		HealthHandler:  handlers.NewHealthHandler(config.Version, checkers...),
		Logger:         log.Named("http"),
		Metrics:        m,
		Mode:           cfg.Server.Mode,
	})

	srv := httpiface.NewServer(cfg.Server, router, log.Named("http"))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		manager.CloseAll()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", logging.Err(err))
	}
	manager.CloseAll()
	log.Info("gateway stopped")
	return nil
}
