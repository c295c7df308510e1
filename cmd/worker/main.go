package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tracemoney/tracemoney/internal/app"
	jobmetrics "github.com/tracemoney/tracemoney/internal/jobs"
	"github.com/tracemoney/tracemoney/internal/observability"
	"github.com/tracemoney/tracemoney/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		slog.Default().Error("worker", slog.Any("error", err))
		os.Exit(1)
	}
}

// run wires the worker and blocks until ctx ends.
func run(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	services, err := app.NewServices(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}
	defer services.Close()

	if _, err := services.Tickers.Load(ctx); err != nil {
		return fmt.Errorf("load ticker directory: %w", err)
	}

	registry := observability.NewMetrics()
	metrics := jobmetrics.NewMetrics(registry.Registerer())
	services.Reports.SetObserver(registry)
	go func() {
		srv := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: registry.Handler(), ReadHeaderTimeout: 5 * time.Second}
		if err := app.Serve(ctx, srv, logger); err != nil {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	refreshJob := jobs.NewTickersRefreshJob(services.Tickers, services.Cache, logger, metrics)
	warmupJob := jobs.NewFinancialsWarmupJob(services.Reports, services.Tickers.PeerGroups(), logger, metrics)

	refreshTask, err := jobs.NewTickersRefreshTask(time.Time{})
	if err != nil {
		return fmt.Errorf("build refresh task: %w", err)
	}
	warmupTask, err := jobs.NewFinancialsWarmupTask(time.Time{}, nil)
	if err != nil {
		return fmt.Errorf("build warmup task: %w", err)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTickersRefresh, Handler: refreshJob.Handle},
			{Type: jobs.TaskFinancialsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 5 * * *", Task: refreshTask},
			{Spec: "30 5 * * *", Task: warmupTask},
		},
	})
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker run: %w", err)
	}
	return nil
}
