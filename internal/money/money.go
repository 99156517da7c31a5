// Package money provides decimal-safe arithmetic for VAT-inclusive prices.
// All amounts are fixed-point decimals; float64 never touches money.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places carried by every committed amount.
const Scale = 2

var (
	ErrNegativeAmount = errors.New("negative_amount")
	ErrNegativeRate   = errors.New("negative_rate")
)

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// Split is the result of decomposing a tax-inclusive gross amount.
type Split struct {
	Net decimal.Decimal
	Tax decimal.Decimal
}

// SplitInclusive decomposes a gross amount that already contains tax:
// net = gross / (1 + rate), tax = gross - net. The tax side absorbs the
// rounding remainder so net + tax always equals gross exactly.
func SplitInclusive(gross, rateFraction decimal.Decimal) (Split, error) {
	if gross.IsNegative() {
		return Split{}, ErrNegativeAmount
	}
	if rateFraction.IsNegative() {
		return Split{}, ErrNegativeRate
	}

	net := gross.Div(one.Add(rateFraction)).Round(Scale)
	return Split{
		Net: net,
		Tax: gross.Sub(net),
	}, nil
}

// RatePercentToFraction normalizes a tax rate to a fraction. Callers send
// either a percent (15) or a fraction (0.15); values below 1 are treated as
// fractions already.
func RatePercentToFraction(value decimal.Decimal) (decimal.Decimal, error) {
	if value.IsNegative() {
		return decimal.Decimal{}, ErrNegativeRate
	}
	if value.LessThan(one) {
		return value, nil
	}
	return value.Div(hundred), nil
}

// Round clamps an amount to the currency scale.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(Scale)
}

// Equalish reports whether two amounts agree within one minor currency unit.
// Used when reconciling client-sent totals against recomputed ones.
func Equalish(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(decimal.New(1, -Scale))
}
