// Package money converts amounts between the display format used by the
// store ("1234,50") and decimal values. None of the functions fail: malformed
// input degrades to zero.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is the display form of a zero amount.
const Zero = "0,00"

// Parse reads a display-format amount. Both "200,00" and "200.00" are accepted;
// when a comma is present, dots are treated as thousand separators. Any other
// character is dropped. Empty or unparseable input yields zero.
func Parse(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseFloat is Parse returning a float64.
func ParseFloat(s string) float64 {
	return Parse(s).InexactFloat64()
}

// Format renders d with exactly two fractional digits and a comma separator.
func Format(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// FormatFloat renders f like Format; NaN and infinities render as Zero.
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero
	}
	return Format(decimal.NewFromFloat(f))
}

// FormatPtr renders f like FormatFloat; nil renders as Zero.
func FormatPtr(f *float64) string {
	if f == nil {
		return Zero
	}
	return FormatFloat(*f)
}

// Normalize re-renders a display amount in canonical display form.
func Normalize(s string) string {
	return Format(Parse(s))
}
