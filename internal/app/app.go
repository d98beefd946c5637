package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/courtsync/external/livescore"
	"github.com/riskibarqy/courtsync/internal/config"
	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/infrastructure/courtmap"
	"github.com/riskibarqy/courtsync/internal/infrastructure/notify"
	"github.com/riskibarqy/courtsync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/courtsync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/courtsync/internal/interfaces/httpapi"
	"github.com/riskibarqy/courtsync/internal/platform/cache"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
	"github.com/riskibarqy/courtsync/internal/platform/metrics"
	"github.com/riskibarqy/courtsync/internal/platform/resilience"
	"github.com/riskibarqy/courtsync/internal/usecase"
	"github.com/sourcegraph/conc"
)

// App owns the engine, the HTTP server and every connection they share.
type App struct {
	cfg     config.Config
	logger  *logging.Logger
	engine  *usecase.Engine
	server  *http.Server
	closers []func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{cfg: cfg, logger: logger}
	built := false
	defer func() {
		if !built {
			a.close()
		}
	}()

	m := metrics.New()
	client := livescore.NewClient(livescore.Config{
		Timeout:     cfg.FetchTimeout,
		MaxAttempts: cfg.FetchMaxAttempts,
		RetryDelay:  cfg.FetchRetryDelay,
		UserAgent:   cfg.FetchUserAgent,
		Logger:      logger,
		OnFetch:     m.Fetch,
	})
	source := cache.NewResponseCache(client, cache.Options{
		TTL:        cfg.CacheTTL,
		EvictAge:   cfg.CacheEvictAge,
		MaxEntries: cfg.CacheMaxEntries,
		OnLookup:   m.CacheLookup,
	})

	courtRepo, mapRepo, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	courtMap := courtmap.NewStore(mapRepo)
	if err := courtMap.Load(ctx, cfg.CourtMap); err != nil {
		return nil, err
	}

	notifier, err := a.buildNotifier()
	if err != nil {
		return nil, err
	}

	engine, err := usecase.NewEngine(usecase.EngineConfig{
		CourtCount:             cfg.CourtCount,
		PollInterval:           cfg.PollInterval,
		PollStagger:            cfg.PollStagger,
		WatchdogInterval:       cfg.WatchdogInterval,
		WatchdogStallThreshold: cfg.WatchdogStallThreshold,
		StaleTimeout:           cfg.StaleTimeout,
		PostMatchHold:          cfg.PostMatchHold,
		SmartSwitchInterval:    cfg.SmartSwitchInterval,
		SmartSwitchMaxProbes:   cfg.SmartSwitchMaxProbes,
		ReassignInterval:       cfg.ReassignInterval,
		MetadataRefreshEvery:   cfg.MetadataRefreshEvery,
		MetadataRefreshWorkers: cfg.MetadataRefreshWorkers,
		PersistDebounce:        cfg.PersistDebounce,
		ChangeLogSize:          cfg.ChangeLogSize,
	}, usecase.EngineDeps{
		Source:     source,
		Repository: courtRepo,
		Notifier:   notifier,
		Mapper:     courtMap,
		Metrics:    m,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	a.engine = engine

	handler := httpapi.NewHandler(engine, courtMap, logger)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		ServiceName:        cfg.ServiceName,
		ControlToken:       cfg.ControlToken,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MetricsHandler:     m.Handler(),
	}, logger)

	a.server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	built = true
	return a, nil
}

// Handler exposes the router for in-process callers.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run restores persisted courts, then serves HTTP and drives the engine until
// ctx is canceled or the listener fails. Shutdown drains HTTP first so no
// control request lands on a stopping engine.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := a.engine.Restore(ctx); err != nil {
		a.engine.Close()
		return fmt.Errorf("restore courts: %w", err)
	}

	engineCtx, stopEngine := context.WithCancel(context.WithoutCancel(ctx))
	defer stopEngine()

	var wg conc.WaitGroup
	wg.Go(func() {
		_ = a.engine.Run(engineCtx)
	})

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("graceful shutdown failed", "error", err)
	}
	a.logger.Info("http server stopped")

	stopEngine()
	wg.Wait()
	return runErr
}

func (a *App) openStorage(ctx context.Context) (court.Repository, court.MappingRepository, error) {
	if a.cfg.StorageDriver != config.StoragePostgres {
		a.logger.Info("court storage", "driver", config.StorageMemory)
		return memory.NewCourtRepository(nil), memory.NewCourtMapRepository(), nil
	}

	db, err := postgres.Open(ctx, a.cfg.DBURL, a.cfg.DBDisablePreparedBinary)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
	}
	a.closers = append(a.closers, db.Close)
	a.logger.Info("court storage", "driver", config.StoragePostgres, "database", postgres.DatabaseName(a.cfg.DBURL))

	return postgres.NewCourtRepository(db), postgres.NewCourtMapRepository(db), nil
}

func (a *App) buildNotifier() (usecase.Notifier, error) {
	notifiers := notify.Multi{notify.NewLogNotifier(a.logger.Named("events"))}

	if a.cfg.WebhookEnabled {
		webhook, err := notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:     a.cfg.WebhookURL,
			Secret:  a.cfg.WebhookSecret,
			Timeout: a.cfg.WebhookTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          a.cfg.WebhookCircuitEnabled,
				FailureThreshold: a.cfg.WebhookCircuitFailureCount,
				OpenTimeout:      a.cfg.WebhookCircuitOpenTimeout,
				HalfOpenMaxReq:   a.cfg.WebhookCircuitHalfOpenMaxReq,
			},
		}, a.logger.Named("webhook"))
		if err != nil {
			return nil, fmt.Errorf("build webhook notifier: %w", err)
		}
		notifiers = append(notifiers, webhook)
	}

	if a.cfg.RedisEnabled {
		client := notify.NewRedisClient(a.cfg.RedisAddr, a.cfg.RedisPassword)
		a.closers = append(a.closers, client.Close)
		notifiers = append(notifiers, notify.NewRedisNotifier(client, a.cfg.RedisChannel))
		a.logger.Info("redis notifier enabled", "addr", a.cfg.RedisAddr, "channel", a.cfg.RedisChannel)
	}

	return notifiers, nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close resource failed", "error", err)
		}
	}
	a.closers = nil
}
