// Package money handles fixed-point monetary amounts in minor units.
// All arithmetic is integer arithmetic; floats never touch an amount.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Currency is the single currency the ledger operates in.
const Currency = "USD"

// Amount is a monetary value in minor units (cents). It is a signed delta
// in transit and a non-negative balance at rest.
type Amount = int64

// Parse converts a decimal string with exactly two fractional digits
// ("12.34") into minor units. Any other precision, sign prefix "+",
// grouping separators, or non-numeric input is rejected.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	whole, frac, ok := strings.Cut(s, ".")
	if !ok || len(frac) != 2 {
		return 0, fmt.Errorf("amount %q: expected exactly 2 fractional digits", s)
	}
	if whole == "" {
		return 0, fmt.Errorf("amount %q: missing integer part", s)
	}
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("amount %q: non-digit character", s)
		}
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	cents, err := strconv.ParseUint(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}

	if units > (math.MaxInt64-int64(cents))/100 {
		return 0, fmt.Errorf("amount %q: overflow", s)
	}
	v := units*100 + int64(cents)
	if neg {
		v = -v
	}
	return v, nil
}

// Format renders minor units as a decimal string with two fractional digits.
func Format(v Amount) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
