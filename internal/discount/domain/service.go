package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidBrand         = errors.New("invalid_brand")
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidType          = errors.New("invalid_type")
	ErrInvalidQualification = errors.New("invalid_qualification")
	ErrInvalidValue         = errors.New("invalid_value")
	ErrInvalidID            = errors.New("invalid_id")
	ErrNotFound             = errors.New("not_found")
	ErrDiscountForbidden    = errors.New("discount_forbidden")
)

// ResolveLine is one order line as seen by the eligibility algorithm.
type ResolveLine struct {
	LineID        snowflake.ID
	ProductID     snowflake.ID
	CategoryID    snowflake.ID
	ProductSizeID snowflake.ID
	UnitPrice     decimal.Decimal
	LineSubtotal  decimal.Decimal
}

// RequestedDiscount is the caller's discount intent: either a predefined
// rule id, or an open kind+value typed at the terminal.
type RequestedDiscount struct {
	DiscountID snowflake.ID
	Kind       Type
	Value      decimal.Decimal
}

type ResolveRequest struct {
	BrandID       snowflake.ID
	BranchID      snowflake.ID
	OrderType     string
	Lines         []ResolveLine
	OrderSubtotal decimal.Decimal
	Requested     *RequestedDiscount
}

// Resolution is the computed outcome. A zero Resolution (Amount 0, empty
// Kind) means no discount applies.
type Resolution struct {
	DiscountID     snowflake.ID    `json:"discount_id,omitempty"`
	Kind           Type            `json:"kind,omitempty"`
	Value          decimal.Decimal `json:"value"`
	Amount         decimal.Decimal `json:"amount"`
	Scope          Scope           `json:"scope,omitempty"`
	MatchedLineIDs []snowflake.ID  `json:"matched_line_ids,omitempty"`
}

func (r Resolution) IsZero() bool {
	return r.Kind == "" || r.Amount.IsZero()
}

type CreateDiscountRequest struct {
	BrandID          snowflake.ID
	Name             string
	Type             Type
	Qualification    Qualification
	Value            decimal.Decimal
	MaxDiscount      *decimal.Decimal
	MinProductPrice  *decimal.Decimal
	OrderTypes       []string
	ApplyAllBranches bool
	BranchIDs        []snowflake.ID
	CategoryIDs      []snowflake.ID
	ProductSizeIDs   []snowflake.ID
}

type UpdateDiscountRequest struct {
	Name             *string
	Value            *decimal.Decimal
	MaxDiscount      *decimal.Decimal
	MinProductPrice  *decimal.Decimal
	OrderTypes       []string
	ApplyAllBranches *bool
}

type Service interface {
	// Resolve computes the applicable discount for an order context. A
	// malformed requested discount degrades to a zero resolution instead of
	// failing the order.
	Resolve(ctx context.Context, req ResolveRequest) (Resolution, error)

	Create(ctx context.Context, req CreateDiscountRequest) (Discount, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateDiscountRequest) (Discount, error)
	SoftDelete(ctx context.Context, id snowflake.ID) error
	GetByID(ctx context.Context, id snowflake.ID) (Discount, error)
	List(ctx context.Context, brandID snowflake.ID) ([]Discount, error)
	ReplaceBranchLinks(ctx context.Context, id snowflake.ID, branchIDs []snowflake.ID) error
}
