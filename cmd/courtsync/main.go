package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/courtsync/internal/app"
	"github.com/riskibarqy/courtsync/internal/config"
	"github.com/riskibarqy/courtsync/internal/observability"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	base := logging.NewJSON(cfg.LogLevel)
	shipped, stopShipping, err := observability.InitLogShipping(cfg, base)
	if err != nil {
		panic(err)
	}
	logger := shipped.With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)

	runErr := run(cfg, logger)
	if runErr != nil {
		logger.Error("courtsync exited", "error", runErr)
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	if err := stopShipping(drainCtx); err != nil {
		base.Warn("log shipping drain failed", "error", err)
	}
	cancel()
	_ = logger.Sync()
	if runErr != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()
	if core := observability.UptraceLogCore(cfg); core != nil {
		logger = logger.Tee(core)
		logging.SetDefault(logger)
	}

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := observability.StopPprofServer(pprofSrv, logger, cfg.ShutdownTimeout); err != nil {
			logger.Warn("pprof shutdown failed", "error", err)
		}
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
