package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rate *TaxRate) error
	FirstActive(ctx context.Context, db *gorm.DB) (*TaxRate, error)
	List(ctx context.Context, db *gorm.DB) ([]TaxRate, error)
}
