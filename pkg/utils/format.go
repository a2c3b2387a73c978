package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	trillion = decimal.New(1, 12)
	billion  = decimal.New(1, 9)
	million  = decimal.New(1, 6)
)

// FormatMarketCap renders a raw dollar market cap as the short figure
// terminals expect, e.g. 3.12T, 42.50B, 980.25M.
func FormatMarketCap(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	d := decimal.NewFromFloat(v)
	switch {
	case d.GreaterThanOrEqual(trillion):
		return fmt.Sprintf("$%sT", d.Div(trillion).StringFixed(2))
	case d.GreaterThanOrEqual(billion):
		return fmt.Sprintf("$%sB", d.Div(billion).StringFixed(2))
	case d.GreaterThanOrEqual(million):
		return fmt.Sprintf("$%sM", d.Div(million).StringFixed(2))
	default:
		return fmt.Sprintf("$%s", d.StringFixed(0))
	}
}

// FormatPrice renders a share price with two decimals.
func FormatPrice(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("$%s", decimal.NewFromFloat(v).StringFixed(2))
}

// FormatChangePercent renders a signed percentage move.
func FormatChangePercent(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return fmt.Sprintf("%s%%", d.StringFixed(2))
	}
	return fmt.Sprintf("+%s%%", d.StringFixed(2))
}
