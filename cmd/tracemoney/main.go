package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	apihttp "github.com/tracemoney/tracemoney/internal/api/http"
	"github.com/tracemoney/tracemoney/internal/app"
	dashboardhttp "github.com/tracemoney/tracemoney/internal/dashboard/http"
	"github.com/tracemoney/tracemoney/internal/financials"
	"github.com/tracemoney/tracemoney/internal/flowgraph"
	"github.com/tracemoney/tracemoney/internal/observability"
	"github.com/tracemoney/tracemoney/internal/view"
	"github.com/tracemoney/tracemoney/jobs"
	"github.com/tracemoney/tracemoney/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		slog.Default().Error("tracemoney", slog.Any("error", err))
		os.Exit(1)
	}
}

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

	metrics := observability.NewMetrics()
	services.Reports.SetObserver(metrics)

	if _, err := services.Tickers.Load(ctx); err != nil {
		return fmt.Errorf("load ticker directory: %w", err)
	}
	if err := services.Cache.ListenForInvalidation(ctx, financials.InvalidationChannel); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	dashboardHandler := dashboardhttp.NewHandler(
		logger,
		services.Reports,
		services.Tickers.Directory(),
		services.Tickers,
		templates,
		report.NewClient(cfg.GotenbergURL),
		dashboardhttp.Config{
			DefaultTicker:  cfg.DefaultTicker,
			CompareTickers: [2]string{cfg.CompareTickers[0], cfg.CompareTickers[1]},
		},
	)
	apiHandler := apihttp.NewHandler(
		logger,
		services.Reports,
		services.Tickers.Directory(),
		services.Tickers,
		flowgraph.NewBuilder(),
	)

	var jobsHandler *jobs.Handler
	if services.Redis != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobsHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobsHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Dashboard:  dashboardHandler,
		API:        apiHandler,
		Jobs:       jobsHandler,
		Metrics:    metrics,
		RequestLog: !cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}
	if err := app.Serve(ctx, srv, logger); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
