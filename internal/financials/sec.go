package financials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tracemoney/tracemoney/internal/tickers"
)

// SEC EDGAR endpoints.
const (
	DefaultDataURL    = "https://data.sec.gov"
	DefaultTickersURL = "https://www.sec.gov/files/company_tickers.json"
)

// ErrCompanyFactsNotFound is returned when EDGAR has no facts for a CIK.
var ErrCompanyFactsNotFound = errors.New("financials: company facts not found")

// StatusError reports an unexpected upstream status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("financials: %s returned status %d", e.URL, e.Status)
}

// SECConfig configures the EDGAR client. UserAgent is mandatory for EDGAR.
type SECConfig struct {
	UserAgent  string
	DataURL    string
	TickersURL string
	Timeout    time.Duration
}

// SECClient reads the public EDGAR JSON APIs.
type SECClient struct {
	httpClient *http.Client
	userAgent  string
	dataURL    string
	tickersURL string
}

// NewSECClient constructs a client with EDGAR defaults for empty fields.
func NewSECClient(cfg SECConfig) *SECClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.DataURL == "" {
		cfg.DataURL = DefaultDataURL
	}
	if cfg.TickersURL == "" {
		cfg.TickersURL = DefaultTickersURL
	}
	return &SECClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		dataURL:    strings.TrimRight(cfg.DataURL, "/"),
		tickersURL: cfg.TickersURL,
	}
}

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Tickers downloads company_tickers.json in upstream order.
func (c *SECClient) Tickers(ctx context.Context) ([]tickers.Company, error) {
	var raw map[string]tickerEntry
	if err := c.getJSON(ctx, c.tickersURL, &raw); err != nil {
		return nil, err
	}
	type keyed struct {
		order int
		entry tickerEntry
	}
	entries := make([]keyed, 0, len(raw))
	for k, e := range raw {
		order, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("financials: unexpected ticker key %q", k)
		}
		entries = append(entries, keyed{order: order, entry: e})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].order < entries[j].order })

	out := make([]tickers.Company, 0, len(entries))
	for _, e := range entries {
		out = append(out, tickers.Company{
			Ticker: tickers.NormalizeTicker(e.entry.Ticker),
			Name:   e.entry.Title,
			CIK:    tickers.FormatCIK(e.entry.CIK),
		})
	}
	return out, nil
}

type companyFacts struct {
	CIK        json.Number      `json:"cik"`
	EntityName string           `json:"entityName"`
	Facts      map[string]Facts `json:"facts"`
}

// CompanyFacts downloads the us-gaap facts of a company.
func (c *SECClient) CompanyFacts(ctx context.Context, cik string) (Facts, error) {
	padded, err := tickers.ParseCIK(cik)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.dataURL, padded)
	var payload companyFacts
	if err := c.getJSON(ctx, url, &payload); err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: cik %s", ErrCompanyFactsNotFound, padded)
		}
		return nil, err
	}
	facts := payload.Facts["us-gaap"]
	if facts == nil {
		facts = Facts{}
	}
	return facts, nil
}

func (c *SECClient) getJSON(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("financials: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("financials: request %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: url, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("financials: decode %s: %w", url, err)
	}
	return nil
}
