// Package insights writes the plain language commentary shown next to a
// company's flow diagram.
package insights

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput wraps validation failures of Input.
var ErrInvalidInput = errors.New("insights: invalid input")

// Input carries the figures the commentary is written from. Absent numbers
// are zero.
type Input struct {
	Revenue           float64        `json:"revenue"`
	NetIncome         float64        `json:"net_income"`
	OperatingCashFlow float64        `json:"operating_cash_flow"`
	InvestingCashFlow float64        `json:"investing_cash_flow"`
	FinancingCashFlow float64        `json:"financing_cash_flow"`
	HealthScore       int            `json:"health_score" validate:"gte=0,lte=100"`
	Indicators        map[string]any `json:"indicators,omitempty"`
}

var validate = validator.New()

// Validate checks the health score range.
func (in Input) Validate() error {
	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%w: %s failed %s", ErrInvalidInput, fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// FreeCashFlow is operating cash flow less the magnitude of investing flows.
func (in Input) FreeCashFlow() float64 {
	return in.OperatingCashFlow - math.Abs(in.InvestingCashFlow)
}

// Margin is net income over revenue, zero without revenue.
func (in Input) Margin() float64 {
	if in.Revenue == 0 {
		return 0
	}
	return in.NetIncome / in.Revenue
}

var narrative = template.Must(template.New("narrative").Funcs(template.FuncMap{
	"money":   Money,
	"percent": Percent,
}).Parse(`Here's a quick, human-friendly breakdown of how the company is doing financially:

**Revenue & Profitability**
The company generated about ${{money .In.Revenue}} in revenue. Net income comes in at ${{money .In.NetIncome}}, which gives a net margin of roughly {{percent .Margin}}.
This margin is {{.MarginVerdict}}.

**Cash Flow Quality**
Operating cash flow sits at ${{money .In.OperatingCashFlow}}.
A good sign is that the company's cash flow from operations is {{.CashVsIncome}} net income, which usually means earnings are supported by real cash rather than accounting adjustments.

Free cash flow (after subtracting capital spending) works out to about ${{money .FreeCashFlow}}. This suggests that capital investment levels are {{.CapexVerdict}}.

**Investment Behavior**
Investing cash flow is ${{money .In.InvestingCashFlow}}.
This typically means the company is {{.InvestingVerdict}}.

**Financing Activity**
Financing cash flow of ${{money .In.FinancingCashFlow}} tells us the company is {{.FinancingVerdict}}.

**Overall Financial Health**
The company's overall health score is **{{.In.HealthScore}}/100**, which suggests the business is {{.HealthVerdict}}.
`))

type narrativeData struct {
	In               Input
	Margin           float64
	FreeCashFlow     float64
	MarginVerdict    string
	CashVsIncome     string
	CapexVerdict     string
	InvestingVerdict string
	FinancingVerdict string
	HealthVerdict    string
}

// Generate writes the markdown commentary for in.
func Generate(in Input) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	data := narrativeData{
		In:           in,
		Margin:       in.Margin(),
		FreeCashFlow: in.FreeCashFlow(),
	}

	switch {
	case data.Margin > 0.15:
		data.MarginVerdict = "strong and healthy"
	case data.Margin > 0.05:
		data.MarginVerdict = "okay but leaves room for improvement"
	default:
		data.MarginVerdict = "quite low and worth monitoring"
	}
	data.CashVsIncome = "lower than"
	if in.OperatingCashFlow > in.NetIncome {
		data.CashVsIncome = "higher than"
	}
	data.CapexVerdict = "heavy, likely due to expansion or reinvestment needs"
	if data.FreeCashFlow > 0 {
		data.CapexVerdict = "reasonable and sustainable"
	}
	data.InvestingVerdict = "not investing heavily at the moment"
	if in.InvestingCashFlow < 0 {
		data.InvestingVerdict = "putting money into growth, assets, or acquisitions"
	}
	data.FinancingVerdict = "raising debt or issuing shares to support operations or expansion"
	if in.FinancingCashFlow < 0 {
		data.FinancingVerdict = "paying off debt or buying back shares"
	}
	switch {
	case in.HealthScore > 70:
		data.HealthVerdict = "in a strong and stable position"
	case in.HealthScore > 40:
		data.HealthVerdict = "doing fairly well but faces a few pressure points"
	default:
		data.HealthVerdict = "dealing with some financial stress right now"
	}

	var buf bytes.Buffer
	if err := narrative.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("insights: render narrative: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
