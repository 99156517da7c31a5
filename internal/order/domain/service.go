package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	discountdomain "github.com/dwfit/pos-backend-sub000/internal/discount/domain"
)

var (
	ErrOrderNotFound    = errors.New("order_not_found")
	ErrInvalidChannel   = errors.New("invalid_channel")
	ErrInvalidOrderType = errors.New("invalid_order_type")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrLineRequired     = errors.New("order_line_required")
	ErrPaymentRequired  = errors.New("payment_required")
	ErrBrandRequired    = errors.New("brand_required")
	ErrBranchRequired   = errors.New("branch_required")
	ErrDeviceRequired   = errors.New("device_required")
	ErrTotalsMismatch   = errors.New("totals_mismatch")

	// State guards. Close of an already CLOSED order is NOT an error; see
	// Service.Close.
	ErrOrderNotActive   = errors.New("order_not_active")
	ErrOrderNotPending  = errors.New("order_not_pending")
	ErrOrderNotVoidable = errors.New("order_not_voidable")
)

// BuildLine is one canonical order line as produced by a channel adapter.
// UnitPrice is tax inclusive; a zero UnitPrice means "look it up".
type BuildLine struct {
	ProductID     snowflake.ID
	ProductSizeID *snowflake.ID
	SizeLabel     string
	CategoryID    snowflake.ID
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Modifiers     []BuildModifier
}

type BuildModifier struct {
	ModifierItemID snowflake.ID
	Quantity       decimal.Decimal
	Price          decimal.Decimal
}

type BuildPayment struct {
	PaymentMethodID *snowflake.ID
	Method          string
	Amount          decimal.Decimal
	Reference       string
}

// BuildRequest is the canonical order-creation request. Channel adapters
// normalize their loose payloads into this shape; nothing looser crosses
// into the state machine.
type BuildRequest struct {
	BrandID      snowflake.ID
	BranchID     snowflake.ID
	DeviceID     snowflake.ID
	CustomerID   *snowflake.ID
	Channel      Channel
	OrderType    OrderType
	BusinessDate string
	Lines        []BuildLine
	Payments     []BuildPayment
	Discount     *discountdomain.RequestedDiscount
	// TaxRate overrides the default VAT rate; percent or fraction.
	TaxRate *decimal.Decimal
}

// ClientTotals are the caller's own computed totals, checked against the
// server-side recomputation at close time.
type ClientTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	NetTotal      decimal.Decimal `json:"net_total"`
}

// CloseRequest carries the final item and payment sets. Items and payments
// replace the stored sets wholesale.
type CloseRequest struct {
	BrandID      snowflake.ID
	DeviceID     snowflake.ID
	Lines        []BuildLine
	Payments     []BuildPayment
	Discount     *discountdomain.RequestedDiscount
	TaxRate      *decimal.Decimal
	ClientTotals *ClientTotals
}

// CloseResult distinguishes a real close from the deterministic no-op taken
// when the order was already CLOSED by an earlier (possibly concurrent) call.
type CloseResult struct {
	Order         *Order
	AlreadyClosed bool
}

type ListFilter struct {
	BranchID     snowflake.ID
	Status       Status
	BusinessDate string
	Limit        int
}

type Service interface {
	Create(ctx context.Context, req BuildRequest) (*Order, error)
	Close(ctx context.Context, orderID snowflake.ID, req CloseRequest) (CloseResult, error)
	Void(ctx context.Context, orderID snowflake.ID, voidedBy snowflake.ID) (*Order, error)
	Accept(ctx context.Context, orderID snowflake.ID) (*Order, error)
	Decline(ctx context.Context, orderID snowflake.ID) (*Order, error)
	Get(ctx context.Context, orderID snowflake.ID) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
}
