package view

import (
	"html/template"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money":       Money,
		"compact":     Compact,
		"ratio":       Ratio,
		"healthClass": HealthClass,
		"signClass":   SignClass,
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04 MST")
		},
	}
}

// Money formats a whole dollar amount with grouping, e.g. -$1,234.
func Money(v float64) string {
	s := "$" + printer.Sprint(number.Decimal(math.Abs(v), number.MaxFractionDigits(0)))
	if v < 0 {
		return "-" + s
	}
	return s
}

// Compact shortens an amount to K, M, B or T.
func Compact(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	for _, unit := range []struct {
		size   float64
		suffix string
	}{{1e12, "T"}, {1e9, "B"}, {1e6, "M"}, {1e3, "K"}} {
		if abs >= unit.size {
			return sign + "$" + printer.Sprint(number.Decimal(abs/unit.size, number.Scale(1))) + unit.suffix
		}
	}
	return Money(v)
}

// Ratio prints an optional ratio as a percentage.
func Ratio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return printer.Sprint(number.Decimal(*v*100, number.Scale(1))) + "%"
}

// HealthClass buckets a 0 to 100 health score for styling.
func HealthClass(score int) string {
	switch {
	case score > 70:
		return "health-good"
	case score > 40:
		return "health-fair"
	default:
		return "health-poor"
	}
}

// SignClass styles negative amounts.
func SignClass(v float64) string {
	if v < 0 {
		return "negative"
	}
	return "positive"
}
