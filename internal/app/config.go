package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`

	// PGDSN is optional; without it the ticker directory lives in memory.
	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"6h"`

	SECUserAgent  string        `envconfig:"SEC_USER_AGENT" required:"true"`
	SECDataURL    string        `envconfig:"SEC_DATA_URL" default:"https://data.sec.gov"`
	SECTickersURL string        `envconfig:"SEC_TICKERS_URL" default:"https://www.sec.gov/files/company_tickers.json"`
	SECTimeout    time.Duration `envconfig:"SEC_TIMEOUT" default:"20s"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`

	DefaultTicker  string   `envconfig:"DEFAULT_TICKER" default:"AAPL"`
	CompareTickers []string `envconfig:"COMPARE_TICKERS" default:"AAPL,MSFT"`
}

// LoadConfig reads configuration from environment variables. A .env file in
// the working directory is applied first without overriding the process
// environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.SECUserAgent) == "" {
		return nil, errors.New("sec user agent must be provided")
	}
	if len(cfg.CompareTickers) != 2 {
		return nil, fmt.Errorf("compare tickers must name two companies, got %d", len(cfg.CompareTickers))
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
