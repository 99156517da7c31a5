package catalog

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Branch and Device are reference rows owned by the back-office CRUD
// surface; this core only reads them to resolve order scoping.
type Branch struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	BrandID   snowflake.ID `gorm:"not null;index" json:"brand_id"`
	Code      string       `gorm:"type:text" json:"code,omitempty"`
	Reference string       `gorm:"type:text" json:"reference,omitempty"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Branch) TableName() string { return "branches" }

type Device struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID  snowflake.ID `gorm:"not null;index" json:"branch_id"`
	BrandID   snowflake.ID `gorm:"not null" json:"brand_id"`
	Name      string       `gorm:"type:text" json:"name,omitempty"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Device) TableName() string { return "devices" }

type ProductPrice struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	ProductID     snowflake.ID    `gorm:"not null" json:"product_id"`
	ProductSizeID *snowflake.ID   `gorm:"" json:"product_size_id,omitempty"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ProductPrice) TableName() string { return "product_prices" }

type ModifierItem struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ModifierItem) TableName() string { return "modifier_items" }

var (
	ErrBranchNotFound  = errors.New("branch_not_found")
	ErrDeviceNotFound  = errors.New("device_not_found")
	ErrPriceNotFound   = errors.New("price_not_found")
	ErrProductNotFound = errors.New("product_not_found")
)
