package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tracemoney/tracemoney/internal/financials"
	platformcache "github.com/tracemoney/tracemoney/internal/platform/cache"
	platformdb "github.com/tracemoney/tracemoney/internal/platform/db"
	"github.com/tracemoney/tracemoney/internal/tickers"
	tickersdb "github.com/tracemoney/tracemoney/internal/tickers/db"
)

// Services bundles the domain services shared by the server, the worker and
// the CLI. Redis and Pool are nil when the backing store is not available.
type Services struct {
	Redis   *redis.Client
	Pool    *pgxpool.Pool
	SEC     *financials.SECClient
	Tickers *tickers.Service
	Cache   *financials.Cache
	Reports *financials.Service
}

// NewServices connects the optional stores and wires the SEC backed services.
// A Redis outage disables the report cache instead of failing startup. The
// ticker directory is not loaded; call Tickers.Load.
func NewServices(ctx context.Context, cfg *Config, logger *slog.Logger) (*Services, error) {
	s := &Services{}

	redisClient, err := platformcache.New(ctx, platformcache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("report cache disabled", slog.Any("error", err))
	} else {
		s.Redis = redisClient
	}

	var repo tickers.Repository
	if cfg.PGDSN != "" {
		pool, err := platformdb.New(ctx, platformdb.Config{DSN: cfg.PGDSN})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.Pool = pool
		pgRepo := tickersdb.NewRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		repo = pgRepo
	}

	s.SEC = financials.NewSECClient(financials.SECConfig{
		UserAgent:  cfg.SECUserAgent,
		DataURL:    cfg.SECDataURL,
		TickersURL: cfg.SECTickersURL,
		Timeout:    cfg.SECTimeout,
	})
	s.Tickers = tickers.NewService(repo, s.SEC, logger)
	s.Cache = financials.NewCache(s.Redis, cfg.CacheTTL)
	s.Reports = financials.NewService(s.SEC, s.Tickers.Directory(), s.Cache, logger)
	return s, nil
}

// Close releases the store connections.
func (s *Services) Close() {
	if s == nil {
		return
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}
