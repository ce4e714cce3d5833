package model

import (
	"math"
	"strconv"
)

// ParseCents converts decimal string amounts (dollars) to cents (int64).
// The sales backend reports prices and totals in major currency units
// (e.g., "99.00" = $99.00); all internal arithmetic is done in cents.
// Handles edge cases: empty strings, missing decimals, large values.
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParseCents(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	// math.Round handles both positive and negative numbers correctly
	return int64(math.Round(f * 100))
}

// CentsFromFloat converts a decimal amount (dollars) to cents.
// Used when the backend returns amounts as JSON numbers rather than strings.
// Examples: 10.0 → 1000, 123.456 → 12346
func CentsFromFloat(f float64) int64 {
	return int64(math.Round(f * 100))
}

// FloatFromCents converts cents back to a decimal amount for wire payloads
// that expect major units.
func FloatFromCents(c int64) float64 {
	return float64(c) / 100
}

// FormatCents renders cents as a decimal string with two fraction digits.
// Examples: 9900 → "99.00", 5 → "0.05", -1000 → "-10.00"
func FormatCents(c int64) string {
	return strconv.FormatFloat(FloatFromCents(c), 'f', 2, 64)
}
