package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tracemoney/tracemoney/internal/financials"
	jobmetrics "github.com/tracemoney/tracemoney/internal/jobs"
)

const warmupTimeout = 30 * time.Second

// ReportLoader loads, and thereby caches, a company report.
type ReportLoader interface {
	Report(ctx context.Context, ticker string) (financials.Report, error)
}

// Universe lists the tickers warmed when a task names none.
type Universe interface {
	Tickers() []string
}

// FinancialsWarmupJob preloads reports so the first page view is served from
// the cache.
type FinancialsWarmupJob struct {
	Reports  ReportLoader
	Universe Universe
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewFinancialsWarmupJob wires dependencies for the warmup handler.
func NewFinancialsWarmupJob(reports ReportLoader, universe Universe, logger *slog.Logger, metrics *jobmetrics.Metrics) *FinancialsWarmupJob {
	return &FinancialsWarmupJob{
		Reports:  reports,
		Universe: universe,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskFinancialsWarmup tasks. Tickers missing from the SEC
// directory are skipped; any other failure fails the task once every ticker
// has been attempted.
func (j *FinancialsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reports == nil {
		return errors.New("financials warmup: handler not configured")
	}
	var payload FinancialsWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("financials warmup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	tickers := payload.Tickers
	if len(tickers) == 0 && j.Universe != nil {
		tickers = j.Universe.Tickers()
	}

	tracker := j.metrics().Track(TaskFinancialsWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	if len(tickers) == 0 {
		logger.Info("no tickers to warm")
		return nil
	}
	logger.Info("starting financials warmup", slog.Int("tickers", len(tickers)))

	start := j.now()
	var loaded, skipped, failed int
	var firstErr error
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := j.warm(ctx, ticker)
		switch {
		case err == nil:
			loaded++
		case errors.Is(err, financials.ErrTickerNotFound):
			skipped++
			logger.Warn("skip unknown ticker", slog.String("ticker", ticker))
		default:
			failed++
			logger.Error("warm ticker", slog.String("ticker", ticker), slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	j.metrics().AddWarmed(jobmetrics.OutcomeLoaded, loaded)
	j.metrics().AddWarmed(jobmetrics.OutcomeSkipped, skipped)
	j.metrics().AddWarmed(jobmetrics.OutcomeFailed, failed)

	logger.Info("completed financials warmup",
		slog.Int("loaded", loaded), slog.Int("skipped", skipped), slog.Int("failed", failed),
		slog.Duration("duration", j.now().Sub(start)))
	if firstErr != nil {
		return fmt.Errorf("financials warmup: %d of %d tickers failed: %w", failed, len(tickers), firstErr)
	}
	return nil
}

func (j *FinancialsWarmupJob) warm(ctx context.Context, ticker string) error {
	tickerCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()
	_, err := j.Reports.Report(tickerCtx, ticker)
	return err
}

func (j *FinancialsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFinancialsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskFinancialsWarmup))
}

func (j *FinancialsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *FinancialsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
