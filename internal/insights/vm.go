package insights

import (
	"html/template"

	"github.com/tracemoney/tracemoney/internal/financials"
)

// FromReport builds the commentary input of a report.
func FromReport(r financials.Report) Input {
	in := Input{
		Revenue:           r.Revenue,
		NetIncome:         r.NetIncome,
		OperatingCashFlow: r.OperatingCashFlow,
		InvestingCashFlow: r.InvestingCashFlow,
		FinancingCashFlow: r.FinancingCashFlow,
		HealthScore:       r.HealthScore,
		Indicators: map[string]any{
			"capex":     r.Indicators.Capex,
			"financing": r.Indicators.Financing,
		},
	}
	if r.Indicators.ProfitMargin != nil {
		in.Indicators["profit_margin"] = *r.Indicators.ProfitMargin
	}
	if r.Indicators.CashConversion != nil {
		in.Indicators["cash_conversion"] = *r.Indicators.CashConversion
	}
	return in
}

// ViewModel is the rendered commentary for a company page.
type ViewModel struct {
	Narrative     template.HTML
	TrendAnalysis template.HTML
}

// Build renders both commentaries of a report.
func Build(r financials.Report) (ViewModel, error) {
	narrative, err := Generate(FromReport(r))
	if err != nil {
		return ViewModel{}, err
	}
	narrativeHTML, err := RenderMarkdown(narrative)
	if err != nil {
		return ViewModel{}, err
	}
	trendHTML, err := RenderMarkdown(TrendAnalysis(r.Trends))
	if err != nil {
		return ViewModel{}, err
	}
	return ViewModel{Narrative: narrativeHTML, TrendAnalysis: trendHTML}, nil
}
