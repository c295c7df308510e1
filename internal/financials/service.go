package financials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tracemoney/tracemoney/internal/tickers"
)

// FactsSource fetches the us-gaap facts of a company by CIK.
type FactsSource interface {
	CompanyFacts(ctx context.Context, cik string) (Facts, error)
}

// Directory resolves tickers to SEC registrants.
type Directory interface {
	Company(ticker string) (tickers.Company, bool)
}

// fetchTimeout bounds a shared report fetch, which outlives the caller that
// started it.
const fetchTimeout = 30 * time.Second

// Report load sources passed to an Observer.
const (
	SourceCache = "cache"
	SourceSEC   = "sec"
)

// Observer is told how each report load was served.
type Observer interface {
	ObserveReportLoad(source string, elapsed time.Duration, err error)
}

// Service assembles reports, caching them and collapsing concurrent fetches
// of the same ticker into one upstream call.
type Service struct {
	source FactsSource
	dir    Directory
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
	obs    Observer
	now    func() time.Time
}

// NewService constructs a Service. cache may be nil.
func NewService(source FactsSource, dir Directory, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, dir: dir, cache: cache, logger: logger, now: time.Now}
}

// SetObserver installs o; nil disables observation.
func (s *Service) SetObserver(o Observer) {
	s.obs = o
}

// Report returns the report of ticker. Callers asking for the same ticker
// share one fetch; a caller whose ctx ends stops waiting without failing the
// others.
func (s *Service) Report(ctx context.Context, ticker string) (Report, error) {
	if s.source == nil || s.dir == nil {
		return Report{}, errors.New("financials: service not configured")
	}
	ticker = tickers.NormalizeTicker(ticker)
	company, ok := s.dir.Company(ticker)
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}
	ch := s.group.DoChan(ticker, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return s.cachedReport(fetchCtx, company)
	})
	select {
	case <-ctx.Done():
		return Report{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Report{}, res.Err
		}
		if res.Shared {
			s.logger.Debug("report fetch shared", slog.String("ticker", ticker))
		}
		return res.Val.(Report), nil
	}
}

func (s *Service) cachedReport(ctx context.Context, company tickers.Company) (report Report, err error) {
	started := s.now()
	source := SourceSEC
	defer func() {
		if s.obs != nil {
			s.obs.ObserveReportLoad(source, s.now().Sub(started), err)
		}
	}()
	if s.cache == nil {
		return s.load(ctx, company)
	}
	var key string
	key, err = s.cache.BuildKey(ctx, reportKey(company.Ticker)...)
	if err != nil {
		return Report{}, err
	}
	source = SourceCache
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		source = SourceSEC
		return s.load(ctx, company)
	})
	return report, err
}

func (s *Service) load(ctx context.Context, company tickers.Company) (Report, error) {
	started := s.now()
	facts, err := s.source.CompanyFacts(ctx, company.CIK)
	if err != nil {
		if errors.Is(err, ErrCompanyFactsNotFound) {
			return Report{}, fmt.Errorf("%w: %s", ErrTickerNotFound, company.Ticker)
		}
		return Report{}, fmt.Errorf("financials: fetch %s: %w", company.Ticker, err)
	}
	report := BuildReport(company, facts, s.now())
	s.logger.Info("report built",
		slog.String("ticker", company.Ticker),
		slog.Int("health_score", report.HealthScore),
		slog.Duration("elapsed", s.now().Sub(started)),
	)
	return report, nil
}

// BuildReport derives the report from raw facts. Missing figures are zero.
func BuildReport(company tickers.Company, facts Facts, fetchedAt time.Time) Report {
	report := Report{
		Ticker:            company.Ticker,
		Name:              company.Name,
		Revenue:           latestFloat(facts, TagRevenue),
		NetIncome:         latestFloat(facts, TagNetIncome),
		OperatingCashFlow: latestFloat(facts, TagOperatingCashFlow),
		InvestingCashFlow: latestFloat(facts, TagInvestingCashFlow),
		FinancingCashFlow: latestFloat(facts, TagFinancingCashFlow),
		FetchedAt:         fetchedAt.UTC(),
	}
	report.NetCashFlow = report.OperatingCashFlow + report.InvestingCashFlow + report.FinancingCashFlow
	report.HealthScore, report.Indicators = HealthScore(report.Snapshot())

	ocf := LastYears(facts, TagOperatingCashFlow, TrendYears)
	report.Trends = Trends{
		Revenue:           LastYears(facts, TagRevenue, TrendYears),
		NetIncome:         LastYears(facts, TagNetIncome, TrendYears),
		OperatingCashFlow: ocf,
		FreeCashFlow:      FreeCashFlowHistory(ocf, LastYears(facts, TagInvestingCashFlow, TrendYears)),
	}
	return report
}
