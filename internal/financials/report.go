// Package financials turns SEC EDGAR company facts into the report behind
// the dashboard: the latest snapshot, a health score and five year trends.
package financials

import (
	"errors"
	"time"

	"github.com/tracemoney/tracemoney/internal/flowgraph"
)

// ErrTickerNotFound is returned for tickers missing from the SEC directory.
var ErrTickerNotFound = errors.New("financials: ticker not found in SEC database")

// TrendPoint is one fiscal year value.
type TrendPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Trends holds yearly history, newest first.
type Trends struct {
	Revenue           []TrendPoint `json:"revenue"`
	NetIncome         []TrendPoint `json:"net_income"`
	OperatingCashFlow []TrendPoint `json:"operating_cash_flow"`
	FreeCashFlow      []TrendPoint `json:"free_cash_flow"`
}

// Indicators explain the health score. Ratios are absent when an operand
// was zero.
type Indicators struct {
	ProfitMargin   *float64 `json:"profit_margin,omitempty"`
	CashConversion *float64 `json:"cash_conversion,omitempty"`
	Capex          float64  `json:"capex"`
	Financing      float64  `json:"financing"`
}

// Report is the company payload served to the dashboard and the API.
type Report struct {
	Ticker            string     `json:"ticker"`
	Name              string     `json:"name,omitempty"`
	Revenue           float64    `json:"revenue"`
	NetIncome         float64    `json:"net_income"`
	OperatingCashFlow float64    `json:"operating_cash_flow"`
	InvestingCashFlow float64    `json:"investing_cash_flow"`
	FinancingCashFlow float64    `json:"financing_cash_flow"`
	NetCashFlow       float64    `json:"net_cash_flow"`
	HealthScore       int        `json:"health_score"`
	Indicators        Indicators `json:"indicators"`
	Trends            Trends     `json:"trends"`
	FetchedAt         time.Time  `json:"fetched_at"`
}

// Snapshot returns the figures the flow graph is built from.
func (r Report) Snapshot() flowgraph.Snapshot {
	return flowgraph.Snapshot{
		Revenue:           r.Revenue,
		NetIncome:         r.NetIncome,
		OperatingCashFlow: r.OperatingCashFlow,
		InvestingCashFlow: r.InvestingCashFlow,
		FinancingCashFlow: r.FinancingCashFlow,
	}
}
