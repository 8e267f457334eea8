package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parse reads a fee amount as entered by an admin. A leading currency
// symbol and thousands separators are tolerated.
func Parse(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Sum adds every parseable amount and reports how many were skipped
func Sum(amounts ...string) (decimal.Decimal, int) {
	total := decimal.Zero
	skipped := 0
	for _, a := range amounts {
		d, ok := Parse(a)
		if !ok {
			skipped++
			continue
		}
		total = total.Add(d)
	}
	return total, skipped
}

// Format renders an amount with two decimal places
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
