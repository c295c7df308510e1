package financials

import (
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// US GAAP tags read from company facts.
const (
	TagRevenue           = "Revenues"
	TagNetIncome         = "NetIncomeLoss"
	TagOperatingCashFlow = "NetCashProvidedByUsedInOperatingActivities"
	TagInvestingCashFlow = "NetCashProvidedByUsedInInvestingActivities"
	TagFinancingCashFlow = "NetCashProvidedByUsedInFinancingActivities"
)

// TrendYears is how many fiscal years the trends cover.
const TrendYears = 5

const preferredUnit = "USD"

// Facts maps a taxonomy tag to its reported values.
type Facts map[string]Concept

// Concept is one tag with values grouped by unit.
type Concept struct {
	Label string            `json:"label"`
	Units map[string][]Fact `json:"units"`
}

// Fact is a single reported value. Val is nil when the filing omitted it.
type Fact struct {
	End   string           `json:"end"`
	Val   *decimal.Decimal `json:"val"`
	Form  string           `json:"form"`
	FY    int              `json:"fy"`
	FP    string           `json:"fp"`
	Filed string           `json:"filed"`
}

// entries returns the values of the currency unit of tag: USD when present,
// otherwise the alphabetically first unit.
func (f Facts) entries(tag string) []Fact {
	concept, ok := f[tag]
	if !ok || len(concept.Units) == 0 {
		return nil
	}
	if values, ok := concept.Units[preferredUnit]; ok {
		return values
	}
	units := make([]string, 0, len(concept.Units))
	for u := range concept.Units {
		units = append(units, u)
	}
	sort.Strings(units)
	return concept.Units[units[0]]
}

// LatestValue returns the most recent value of tag by period end.
func LatestValue(facts Facts, tag string) (decimal.Decimal, bool) {
	values := append([]Fact(nil), facts.entries(tag)...)
	sort.SliceStable(values, func(i, j int) bool { return values[i].End > values[j].End })
	for _, v := range values {
		if v.Val != nil {
			return *v.Val, true
		}
	}
	return decimal.Zero, false
}

// LastYears returns up to n annual report values of tag, newest first, one
// per fiscal year.
func LastYears(facts Facts, tag string, n int) []TrendPoint {
	points := make([]TrendPoint, 0, n)
	for _, v := range facts.entries(tag) {
		if v.Val == nil || len(v.End) < 4 || !annualForm(v.Form) {
			continue
		}
		year, err := strconv.Atoi(v.End[:4])
		if err != nil {
			continue
		}
		points = append(points, TrendPoint{Year: year, Value: v.Val.InexactFloat64()})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Year > points[j].Year })

	out := make([]TrendPoint, 0, n)
	seen := make(map[int]bool, n)
	for _, p := range points {
		if len(out) == n {
			break
		}
		if seen[p.Year] {
			continue
		}
		seen[p.Year] = true
		out = append(out, p)
	}
	return out
}

// FreeCashFlowHistory pairs operating and investing cash flow by position and
// subtracts the magnitude of investing outflows. Missing investing values
// count as zero.
func FreeCashFlowHistory(ocf, icf []TrendPoint) []TrendPoint {
	out := make([]TrendPoint, 0, len(ocf))
	for i, p := range ocf {
		invest := 0.0
		if i < len(icf) {
			invest = icf[i].Value
		}
		out = append(out, TrendPoint{Year: p.Year, Value: p.Value - math.Abs(invest)})
	}
	return out
}

func annualForm(form string) bool {
	return form == "10-K" || form == "10-K/A"
}

func latestFloat(facts Facts, tag string) float64 {
	v, _ := LatestValue(facts, tag)
	return v.InexactFloat64()
}
