package financials

import "github.com/tracemoney/tracemoney/internal/flowgraph"

// MaxHealthScore caps the health score.
const MaxHealthScore = 100

// HealthScore grades profitability, cash conversion, investment and
// financing behaviour on a 0 to 100 scale.
func HealthScore(s flowgraph.Snapshot) (int, Indicators) {
	s = s.Sanitized()
	score := 0
	var ind Indicators

	if s.Revenue != 0 && s.NetIncome != 0 {
		margin := s.NetIncome / s.Revenue
		ind.ProfitMargin = &margin
		switch {
		case margin > 0.20:
			score += 25
		case margin > 0.10:
			score += 20
		case margin > 0.05:
			score += 15
		case margin > 0:
			score += 10
		default:
			score += 2
		}
	}

	if s.OperatingCashFlow != 0 && s.NetIncome != 0 {
		conversion := s.OperatingCashFlow / s.NetIncome
		ind.CashConversion = &conversion
		switch {
		case conversion > 1.3:
			score += 25
		case conversion > 1.0:
			score += 20
		case conversion > 0.8:
			score += 15
		default:
			score += 5
		}
	}

	// Negative investing cash flow means the company is spending on assets.
	ind.Capex = s.InvestingCashFlow
	if s.InvestingCashFlow < 0 {
		score += 10
	} else {
		score += 5
	}

	// Negative financing cash flow means debt repayment or buybacks.
	ind.Financing = s.FinancingCashFlow
	if s.FinancingCashFlow < 0 {
		score += 15
	} else {
		score += 5
	}

	return min(MaxHealthScore, score), ind
}
