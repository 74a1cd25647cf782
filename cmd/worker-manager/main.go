package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"technician-dispatch/internal/api"
	"technician-dispatch/internal/app"
	"technician-dispatch/internal/common/camunda"
	"technician-dispatch/internal/common/config"
	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/common/observability"
	"technician-dispatch/pkg/registry"

	at "technician-dispatch/internal/workers/dispatch/assign-technician"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.ServiceOptions)
	if err != nil {
		zapLog.Fatal("dependency init failed", zap.Error(err))
	}
	defer a.Close()
	zapLog.Info("storage clients connected")

	checks := a.Checks()

	var (
		zeebe   *camunda.Client
		workers []worker.JobWorker
	)
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.Connect(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		if err != nil {
			zapLog.Fatal("zeebe connection failed", zap.Error(err))
		}
		checks = append(checks, api.Check{Name: "zeebe", Ping: zeebe.HealthCheck})

		reg, err := registry.LoadRegistry(cfg.RegistryPath)
		if err != nil {
			zapLog.Warn("activity registry not loaded, using built-in input schema", zap.Error(err))
		}

		if reg != nil {
			if activity, ok := reg.Find(at.TaskType); ok && !activity.Ready() {
				zapLog.Warn("activity not marked completed in registry",
					zap.String("taskType", at.TaskType),
					zap.String("status", activity.ImplementationStatus),
				)
			}
		}

		if config.IsWorkerEnabled(cfg, at.TaskType) {
			wcfg := config.GetWorkerConfig(cfg, at.TaskType)
			handler, err := at.NewHandler(at.NewConfig(wcfg), a.Engine, reg, log)
			if err != nil {
				zapLog.Fatal("worker init failed", zap.String("taskType", at.TaskType), zap.Error(err))
			}
			workers = append(workers, camunda.StartWorker(zeebe.GetClient(), at.TaskType, wcfg, handler, obs, log))
		} else {
			zapLog.Info("worker disabled", zap.String("taskType", at.TaskType))
		}
	} else {
		zapLog.Info("camunda disabled, serving HTTP trigger only")
	}

	router := api.NewRouter(api.Deps{Matcher: a.Engine, Checks: checks, Logger: log})
	srv := api.NewServer(cfg.HTTP.Address, router, log)
	srvErr := srv.Start()

	select {
	case <-ctx.Done():
		zapLog.Info("shutdown signal received")
	case err := <-srvErr:
		if err != nil {
			zapLog.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("error closing zeebe client", zap.Error(err))
		}
	}

	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("worker manager stopped")
}
