package repository

import (
	"context"

	"github.com/dwfit/pos-backend-sub000/internal/tax/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rate *domain.TaxRate) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tax_rates (id, name, percent, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rate.ID,
		rate.Name,
		rate.Percent,
		rate.IsActive,
		rate.CreatedAt,
		rate.UpdatedAt,
	).Error
}

func (r *repo) FirstActive(ctx context.Context, db *gorm.DB) (*domain.TaxRate, error) {
	var rate domain.TaxRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, percent, is_active, created_at, updated_at
		 FROM tax_rates
		 WHERE is_active = ?
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`,
		true,
	).Scan(&rate).Error
	if err != nil {
		return nil, err
	}
	if rate.ID == 0 {
		return nil, nil
	}
	return &rate, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.TaxRate, error) {
	var rates []domain.TaxRate
	err := db.WithContext(ctx).
		Model(&domain.TaxRate{}).
		Order("created_at asc, id asc").
		Find(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}
