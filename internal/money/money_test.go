package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSplitInclusive_NetPlusTaxEqualsGross(t *testing.T) {
	cases := []struct {
		gross string
		rate  string
		net   string
		tax   string
	}{
		{"25.00", "0.15", "21.74", "3.26"},
		{"100.00", "0.15", "86.96", "13.04"},
		{"0.01", "0.15", "0.01", "0.00"},
		{"10.00", "0", "10.00", "0.00"},
		{"99.99", "0.05", "95.23", "4.76"},
	}

	for _, tc := range cases {
		split, err := SplitInclusive(d(tc.gross), d(tc.rate))
		assert.NoError(t, err)
		assert.True(t, split.Net.Equal(d(tc.net)), "net for %s@%s: got %s", tc.gross, tc.rate, split.Net)
		assert.True(t, split.Tax.Equal(d(tc.tax)), "tax for %s@%s: got %s", tc.gross, tc.rate, split.Tax)
		assert.True(t, split.Net.Add(split.Tax).Equal(d(tc.gross)), "net+tax must equal gross")
	}
}

func TestSplitInclusive_RoundTripIdempotent(t *testing.T) {
	rate := d("0.15")
	grosses := []string{"25.00", "28.75", "0.05", "1234.56"}

	for _, g := range grosses {
		first, err := SplitInclusive(d(g), rate)
		assert.NoError(t, err)

		regrossed := first.Net.Mul(decimal.NewFromInt(1).Add(rate))
		second, err := SplitInclusive(regrossed, rate)
		assert.NoError(t, err)
		assert.True(t, second.Net.Equal(first.Net), "round-trip net drifted for %s: %s vs %s", g, second.Net, first.Net)
	}
}

func TestSplitInclusive_RejectsNegatives(t *testing.T) {
	_, err := SplitInclusive(d("-1"), d("0.15"))
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = SplitInclusive(d("10"), d("-0.15"))
	assert.ErrorIs(t, err, ErrNegativeRate)
}

func TestRatePercentToFraction(t *testing.T) {
	frac, err := RatePercentToFraction(d("15"))
	assert.NoError(t, err)
	assert.True(t, frac.Equal(d("0.15")))

	frac, err = RatePercentToFraction(d("0.15"))
	assert.NoError(t, err)
	assert.True(t, frac.Equal(d("0.15")))

	frac, err = RatePercentToFraction(d("0.999"))
	assert.NoError(t, err)
	assert.True(t, frac.Equal(d("0.999")))

	frac, err = RatePercentToFraction(d("1"))
	assert.NoError(t, err)
	assert.True(t, frac.Equal(d("0.01")))

	_, err = RatePercentToFraction(d("-5"))
	assert.ErrorIs(t, err, ErrNegativeRate)
}

func TestEqualish(t *testing.T) {
	assert.True(t, Equalish(d("25.00"), d("25.01")))
	assert.True(t, Equalish(d("25.00"), d("24.99")))
	assert.False(t, Equalish(d("25.00"), d("25.02")))
}
