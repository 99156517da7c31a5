package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Type is how the discount value is interpreted.
type Type string

const (
	TypeFixed      Type = "FIXED"
	TypePercentage Type = "PERCENTAGE"
)

// Qualification is what the back-office rule targets.
type Qualification string

const (
	QualificationProduct         Qualification = "PRODUCT"
	QualificationOrder           Qualification = "ORDER"
	QualificationOrderAndProduct Qualification = "ORDER_AND_PRODUCT"
)

// Scope is the computed application level: per matching line or whole order.
type Scope string

const (
	ScopeItem  Scope = "ITEM"
	ScopeOrder Scope = "ORDER"
)

// Scope maps PRODUCT to ITEM; ORDER and ORDER_AND_PRODUCT both resolve
// against the order subtotal.
func (q Qualification) Scope() Scope {
	if q == QualificationProduct {
		return ScopeItem
	}
	return ScopeOrder
}

func (t Type) Valid() bool {
	return t == TypeFixed || t == TypePercentage
}

func (q Qualification) Valid() bool {
	switch q {
	case QualificationProduct, QualificationOrder, QualificationOrderAndProduct:
		return true
	default:
		return false
	}
}

// Discount is a reusable eligibility+amount rule. Rules are never hard
// deleted; is_deleted hides them from resolution and listings.
type Discount struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	BrandID          snowflake.ID      `gorm:"not null;index" json:"brand_id"`
	Name             string            `gorm:"type:text;not null" json:"name"`
	Type             Type              `gorm:"type:text;not null" json:"type"`
	Qualification    Qualification     `gorm:"type:text;not null" json:"qualification"`
	Value            decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"value"`
	MaxDiscount      *decimal.Decimal  `gorm:"type:numeric(12,2)" json:"max_discount,omitempty"`
	MinProductPrice  *decimal.Decimal  `gorm:"type:numeric(12,2)" json:"min_product_price,omitempty"`
	OrderTypes       datatypes.JSON    `gorm:"type:jsonb" json:"order_types,omitempty"`
	ApplyAllBranches bool              `gorm:"not null;default:false" json:"apply_all_branches"`
	IsDeleted        bool              `gorm:"not null;default:false" json:"is_deleted"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	BranchIDs      []snowflake.ID `gorm:"-" json:"branch_ids,omitempty"`
	CategoryIDs    []snowflake.ID `gorm:"-" json:"category_ids,omitempty"`
	ProductSizeIDs []snowflake.ID `gorm:"-" json:"product_size_ids,omitempty"`
}

func (Discount) TableName() string { return "discounts" }

type DiscountBranch struct {
	DiscountID snowflake.ID `gorm:"primaryKey"`
	BranchID   snowflake.ID `gorm:"primaryKey"`
}

func (DiscountBranch) TableName() string { return "discount_branches" }

type DiscountCategory struct {
	DiscountID snowflake.ID `gorm:"primaryKey"`
	CategoryID snowflake.ID `gorm:"primaryKey"`
}

func (DiscountCategory) TableName() string { return "discount_categories" }

type DiscountProductSize struct {
	DiscountID    snowflake.ID `gorm:"primaryKey"`
	ProductSizeID snowflake.ID `gorm:"primaryKey"`
}

func (DiscountProductSize) TableName() string { return "discount_product_sizes" }
