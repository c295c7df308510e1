package flowgraph

import "math"

// Snapshot holds one company's reported figures for a single period. Absent
// JSON fields decode to zero.
type Snapshot struct {
	Revenue           float64 `json:"revenue"`
	NetIncome         float64 `json:"net_income"`
	OperatingCashFlow float64 `json:"operating_cash_flow"`
	InvestingCashFlow float64 `json:"investing_cash_flow"`
	FinancingCashFlow float64 `json:"financing_cash_flow"`
}

// Sanitized replaces non-finite figures with zero.
func (s Snapshot) Sanitized() Snapshot {
	return Snapshot{
		Revenue:           finite(s.Revenue),
		NetIncome:         finite(s.NetIncome),
		OperatingCashFlow: finite(s.OperatingCashFlow),
		InvestingCashFlow: finite(s.InvestingCashFlow),
		FinancingCashFlow: finite(s.FinancingCashFlow),
	}
}

// Breakdown is the set of derived amounts that feed the template edges.
type Breakdown struct {
	Revenue            float64 `json:"revenue"`
	COGS               float64 `json:"cogs"`
	GrossProfit        float64 `json:"gross_profit"`
	OperatingExpenses  float64 `json:"operating_expenses"`
	OperatingIncome    float64 `json:"operating_income"`
	Taxes              float64 `json:"taxes"`
	NetIncome          float64 `json:"net_income"`
	OperatingCashFlow  float64 `json:"operating_cash_flow"`
	CapEx              float64 `json:"capex"`
	FreeCashFlow       float64 `json:"free_cash_flow"`
	NetCashFlowIn      float64 `json:"net_cash_flow_in"`
	NetCashFlowFromFCF float64 `json:"net_cash_flow_from_fcf"`
}

// DeriveFunc turns a snapshot into a breakdown. Swap it to source the
// breakdown from real filing line items.
type DeriveFunc func(Snapshot) Breakdown

// Placeholder ratios applied by PlaceholderRatios. They are not accounting
// identities.
const (
	GrossMarginRatio     = 0.25
	OperatingToNetIncome = 1.25
)

// PlaceholderRatios derives the breakdown with fixed ratios: gross profit is a
// quarter of revenue and operating income is 1.25x net income.
func PlaceholderRatios(s Snapshot) Breakdown {
	grossProfit := s.Revenue * GrossMarginRatio
	operatingIncome := s.NetIncome * OperatingToNetIncome
	capex := math.Abs(s.InvestingCashFlow)
	freeCashFlow := s.OperatingCashFlow - capex
	return Breakdown{
		Revenue:            s.Revenue,
		COGS:               s.Revenue - grossProfit,
		GrossProfit:        grossProfit,
		OperatingExpenses:  grossProfit - operatingIncome,
		OperatingIncome:    operatingIncome,
		Taxes:              operatingIncome - s.NetIncome,
		NetIncome:          s.NetIncome,
		OperatingCashFlow:  s.OperatingCashFlow,
		CapEx:              capex,
		FreeCashFlow:       freeCashFlow,
		NetCashFlowIn:      math.Abs(s.FinancingCashFlow),
		NetCashFlowFromFCF: math.Abs(freeCashFlow),
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
