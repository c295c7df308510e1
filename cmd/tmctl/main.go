package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tracemoney/tracemoney/cmd/tmctl/cli"
	"github.com/tracemoney/tracemoney/internal/app"
	"github.com/tracemoney/tracemoney/jobs"
)

// lazyServices opens the shared services on first use.
type lazyServices struct {
	once     sync.Once
	services *app.Services
	cfg      *app.Config
	logger   *slog.Logger
	err      error
}

func (l *lazyServices) config() (*app.Config, *slog.Logger, error) {
	if l.cfg == nil {
		cfg, err := app.LoadConfig()
		if err != nil {
			return nil, nil, err
		}
		l.cfg, l.logger = cfg, app.NewLogger(cfg)
	}
	return l.cfg, l.logger, nil
}

func (l *lazyServices) get(ctx context.Context) (*app.Services, *slog.Logger, error) {
	l.once.Do(func() {
		cfg, logger, err := l.config()
		if err != nil {
			l.err = err
			return
		}
		l.services, l.err = app.NewServices(ctx, cfg, logger)
	})
	return l.services, l.logger, l.err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lazy := &lazyServices{}
	defer func() { lazy.services.Close() }()

	rt := cli.Runtime{
		Reports: func(ctx context.Context) (cli.ReportSource, error) {
			services, _, err := lazy.get(ctx)
			if err != nil {
				return nil, err
			}
			if _, err := services.Tickers.Load(ctx); err != nil {
				return nil, err
			}
			return services.Reports, nil
		},
		Refresher: func(ctx context.Context) (*jobs.TickersRefreshJob, error) {
			services, logger, err := lazy.get(ctx)
			if err != nil {
				return nil, err
			}
			return jobs.NewTickersRefreshJob(services.Tickers, services.Cache, logger, nil), nil
		},
		Jobs: func(context.Context) (cli.JobsQueue, error) {
			cfg, _, err := lazy.config()
			if err != nil {
				return nil, err
			}
			queue, err := cli.NewJobsCLI(cfg.RedisAddr)
			if err != nil {
				return nil, err
			}
			return queue, nil
		},
	}

	if err := cli.NewRootCommand(rt).ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "tmctl:", err)
		stop()
		lazy.services.Close()
		os.Exit(1)
	}
}
