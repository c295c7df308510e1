package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tracemoney/tracemoney/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DirectoryRefresher reloads the ticker directory from SEC.
type DirectoryRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// CacheBumper invalidates every cached report.
type CacheBumper interface {
	Bump(ctx context.Context) (int64, error)
}

// TickersRefreshJob refreshes the directory and then invalidates cached
// reports so CIK changes take effect.
type TickersRefreshJob struct {
	Tickers DirectoryRefresher
	Cache   CacheBumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewTickersRefreshJob wires dependencies for the refresh handler.
func NewTickersRefreshJob(refresher DirectoryRefresher, cache CacheBumper, logger *slog.Logger, metrics *jobmetrics.Metrics) *TickersRefreshJob {
	return &TickersRefreshJob{
		Tickers: refresher,
		Cache:   cache,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskTickersRefresh tasks.
func (j *TickersRefreshJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Tickers == nil {
		return errors.New("tickers refresh: handler not configured")
	}
	tracker := j.metrics().Track(TaskTickersRefresh)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := j.now()
	count, err := j.Tickers.Refresh(ctx)
	if err != nil {
		logger.Error("refresh ticker directory", slog.Any("error", err))
		return err
	}
	j.metrics().SetDirectorySize(count)

	if j.Cache != nil {
		version, err := j.Cache.Bump(ctx)
		if err != nil {
			logger.Error("bump report cache", slog.Any("error", err))
			return fmt.Errorf("tickers refresh: bump cache: %w", err)
		}
		logger.Info("report cache invalidated", slog.Int64("version", version))
	}

	logger.Info("completed tickers refresh", slog.Int("companies", count), slog.Duration("duration", j.now().Sub(start)))
	return nil
}

func (j *TickersRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTickersRefresh))
	}
	return slog.Default().With(slog.String("job", TaskTickersRefresh))
}

func (j *TickersRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *TickersRefreshJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
