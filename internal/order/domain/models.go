package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	discountdomain "github.com/dwfit/pos-backend-sub000/internal/discount/domain"
)

type Channel string

const (
	ChannelPOS        Channel = "POS"
	ChannelCallCenter Channel = "CALL_CENTER"
)

func (c Channel) Valid() bool {
	return c == ChannelPOS || c == ChannelCallCenter
}

type OrderType string

const (
	OrderTypeDineIn    OrderType = "DINE_IN"
	OrderTypeTakeAway  OrderType = "TAKE_AWAY"
	OrderTypeDriveThru OrderType = "DRIVE_THRU"
	OrderTypeDelivery  OrderType = "DELIVERY"
	OrderTypeB2B       OrderType = "B2B"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeAway, OrderTypeDriveThru, OrderTypeDelivery, OrderTypeB2B:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusClosed   Status = "CLOSED"
	StatusVoid     Status = "VOID"
	StatusDeclined Status = "DECLINED"
)

// Order is the aggregate root of one customer transaction. Items and
// payments are owned collections: mutation replaces them wholesale inside
// the owning transaction, never row by row.
type Order struct {
	ID            snowflake.ID         `gorm:"primaryKey" json:"id"`
	BrandID       snowflake.ID         `gorm:"not null" json:"brand_id"`
	BranchID      snowflake.ID         `gorm:"not null" json:"branch_id"`
	DeviceID      snowflake.ID         `gorm:"not null" json:"device_id"`
	CustomerID    *snowflake.ID        `gorm:"" json:"customer_id,omitempty"`
	Channel       Channel              `gorm:"type:text;not null" json:"channel"`
	OrderType     OrderType            `gorm:"type:text;not null" json:"order_type"`
	Status        Status               `gorm:"type:text;not null" json:"status"`
	OrderNo       string               `gorm:"type:text;not null;uniqueIndex" json:"order_no"`
	BusinessDate  string               `gorm:"type:text;not null" json:"business_date"`
	Subtotal      decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	TaxTotal      decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"tax_total"`
	DiscountTotal decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"discount_total"`
	NetTotal      decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"net_total"`
	DiscountKind  *discountdomain.Type `gorm:"type:text" json:"discount_kind,omitempty"`
	DiscountValue *decimal.Decimal     `gorm:"type:numeric(12,2)" json:"discount_value,omitempty"`
	VoidedByID    *snowflake.ID        `gorm:"" json:"voided_by_id,omitempty"`
	Metadata      datatypes.JSONMap    `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt     time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	ClosedAt      *time.Time           `gorm:"" json:"closed_at,omitempty"`
	VoidedAt      *time.Time           `gorm:"" json:"voided_at,omitempty"`

	Items    []OrderItem `gorm:"-" json:"items,omitempty"`
	Payments []Payment   `gorm:"-" json:"payments,omitempty"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrderID   snowflake.ID    `gorm:"not null;index" json:"order_id"`
	ProductID snowflake.ID    `gorm:"not null" json:"product_id"`
	SizeLabel string          `gorm:"type:text" json:"size_label,omitempty"`
	Quantity  decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TaxAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_amount"`
	LineTotal decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Modifiers []OrderItemModifier `gorm:"-" json:"modifiers,omitempty"`
}

func (OrderItem) TableName() string { return "order_items" }

type OrderItemModifier struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrderItemID    snowflake.ID    `gorm:"not null;index" json:"order_item_id"`
	ModifierItemID snowflake.ID    `gorm:"not null" json:"modifier_item_id"`
	Quantity       decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"quantity"`
	Price          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (OrderItemModifier) TableName() string { return "order_item_modifiers" }

// Payment rows exist only for CLOSED orders.
type Payment struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrderID         snowflake.ID    `gorm:"not null;index" json:"order_id"`
	PaymentMethodID *snowflake.ID   `gorm:"" json:"payment_method_id,omitempty"`
	Method          string          `gorm:"type:text;not null" json:"method"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Reference       string          `gorm:"type:text" json:"reference,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }
