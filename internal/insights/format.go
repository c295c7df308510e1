package insights

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// Money formats an amount with thousands separators and up to two decimals.
func Money(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Percent formats a ratio as a percentage with two decimals.
func Percent(ratio float64) string {
	return printer.Sprint(number.Decimal(ratio*100, number.Scale(2))) + "%"
}
