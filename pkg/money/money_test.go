package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	cases := map[string]int64{
		"0.00":    0,
		"0.01":    1,
		"1.00":    100,
		"12.34":   1234,
		"500.00":  50000,
		"-2.50":   -250,
		" 10.00 ": 1000,
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{
		"", "10", "10.", "10.0", "10.001", ".50", "1,000.00",
		"abc", "10.ab", "1e2.00", "+5.00", "10 .00",
	} {
		_, err := Parse(in)
		assert.Error(t, err, "input %q should be rejected", in)
	}
}

func TestParse_Overflow(t *testing.T) {
	// math.MaxInt64 minor units is the largest representable amount.
	got, err := Parse("92233720368547758.07")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)

	for _, in := range []string{
		"92233720368547758.08",
		"92233720368547759.00",
		"184467440737095517.00", // wraps past MaxInt64 back to a small positive value
		"9999999999999999999999.00",
	} {
		_, err := Parse(in)
		assert.Error(t, err, "input %q should be rejected, not wrapped", in)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.00", Format(0))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "12.34", Format(1234))
	assert.Equal(t, "-2.50", Format(-250))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, 99, 100, 12345, 10000000} {
		got, err := Parse(Format(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
