// Package tickers keeps the SEC ticker directory used for lookups,
// autocomplete and peer suggestions.
package tickers

import (
	"fmt"
	"strconv"
	"strings"
)

// Company is one SEC registrant.
type Company struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	CIK    string `json:"cik"`
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// FormatCIK zero pads a central index key to the 10 digits EDGAR expects.
func FormatCIK(cik int64) string {
	return fmt.Sprintf("%010d", cik)
}

// ParseCIK accepts padded or unpadded keys and returns the 10 digit form.
func ParseCIK(raw string) (string, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("tickers: invalid cik %q", raw)
	}
	return FormatCIK(n), nil
}
