package money

import (
	"context"

	"github.com/shopspring/decimal"
)

// DefaultTaxRateProvider supplies the VAT rate (as a fraction) applied when
// a request omits one. The production implementation reads the first active
// tax row; tests substitute a fixed rate.
type DefaultTaxRateProvider interface {
	DefaultRate(ctx context.Context) (decimal.Decimal, error)
}

// FixedRateProvider returns a constant rate fraction.
type FixedRateProvider struct {
	Rate decimal.Decimal
}

func (p FixedRateProvider) DefaultRate(ctx context.Context) (decimal.Decimal, error) {
	return p.Rate, nil
}
