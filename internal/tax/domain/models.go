package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TaxRate is a flat VAT percent row. The first active row is the default
// rate applied when a request omits one.
type TaxRate struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	Percent   decimal.Decimal `gorm:"type:numeric(6,3);not null" json:"percent"`
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TaxRate) TableName() string { return "tax_rates" }

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidPercent = errors.New("invalid_percent")
	ErrNotFound       = errors.New("not_found")
)

func (t *TaxRate) Validate() error {
	if t.Name == "" {
		return ErrInvalidName
	}
	if t.Percent.IsNegative() {
		return ErrInvalidPercent
	}
	return nil
}
