package domain

import (
	"context"

	"github.com/dwfit/pos-backend-sub000/internal/money"
)

type CreateTaxRateRequest struct {
	Name     string
	Percent  string
	IsActive *bool
}

// Service manages the tax rate table and doubles as the default VAT rate
// source for money computations.
type Service interface {
	money.DefaultTaxRateProvider

	Create(ctx context.Context, req CreateTaxRateRequest) (TaxRate, error)
	List(ctx context.Context) ([]TaxRate, error)
}
