package insights

import (
	"fmt"

	"github.com/tracemoney/tracemoney/internal/financials"
)

// NotEnoughData is the summary for series with fewer than two points.
const NotEnoughData = "Not enough data."

// SummarizeTrend compares the newest point with the oldest. Points are
// ordered newest first.
func SummarizeTrend(points []financials.TrendPoint) string {
	if len(points) < 2 {
		return NotEnoughData
	}
	newest, oldest := points[0].Value, points[len(points)-1].Value
	switch {
	case newest > oldest:
		return "has grown steadily"
	case newest < oldest:
		return "has declined over time"
	default:
		return "remained relatively flat"
	}
}

// TrendAnalysis writes the five year overview as markdown.
func TrendAnalysis(t financials.Trends) string {
	return fmt.Sprintf(`Here is a quick %d-year trend overview for this company:

**Revenue:** Over the last five years, revenue %s.
**Net Income:** Profitability %s.
**Operating Cash Flow:** Operating cash flow %s.
**Free Cash Flow:** Free cash flow %s.`,
		financials.TrendYears,
		SummarizeTrend(t.Revenue),
		SummarizeTrend(t.NetIncome),
		SummarizeTrend(t.OperatingCashFlow),
		SummarizeTrend(t.FreeCashFlow),
	)
}
