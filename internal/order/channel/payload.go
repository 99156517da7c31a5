// Package channel normalizes POS-direct, call-center, and generic order
// payloads into the canonical build request. Terminal firmware in the field
// disagrees on field names and whether ids are strings or numbers; all of
// that tolerance lives here and nothing loose crosses the boundary.
package channel

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	discountdomain "github.com/dwfit/pos-backend-sub000/internal/discount/domain"
)

var (
	ErrBrandMismatch = errors.New("brand_mismatch")
	ErrBranchRef     = errors.New("branch_unresolvable")
)

// flexID accepts a snowflake id sent as a JSON number or string.
type flexID snowflake.ID

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		id, err := snowflake.ParseString(s)
		if err != nil {
			return err
		}
		*f = flexID(id)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}

func (f flexID) ID() snowflake.ID { return snowflake.ID(f) }

func (f flexID) Ptr() *snowflake.ID {
	if f == 0 {
		return nil
	}
	id := snowflake.ID(f)
	return &id
}

// flexDecimal accepts an amount sent as a JSON number or string.
type flexDecimal decimal.Decimal

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = flexDecimal(decimal.Decimal{})
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*f = flexDecimal(d)
	return nil
}

func (f flexDecimal) Decimal() decimal.Decimal { return decimal.Decimal(f) }

// LooseLine is one order line as the wire sends it.
type LooseLine struct {
	ProductID     flexID         `json:"product_id"`
	ProductSizeID flexID         `json:"product_size_id"`
	SizeLabel     string         `json:"size_label"`
	CategoryID    flexID         `json:"category_id"`
	Quantity      flexDecimal    `json:"quantity"`
	UnitPrice     flexDecimal    `json:"unit_price"`
	Price         flexDecimal    `json:"price"`
	Tax           flexDecimal    `json:"tax"`
	Modifiers     []LooseModifier `json:"modifiers"`
}

func (l LooseLine) unitPrice() decimal.Decimal {
	if !l.UnitPrice.Decimal().IsZero() {
		return l.UnitPrice.Decimal()
	}
	return l.Price.Decimal()
}

type LooseModifier struct {
	ModifierItemID flexID      `json:"modifier_item_id"`
	ModifierID     flexID      `json:"modifier_id"`
	Quantity       flexDecimal `json:"quantity"`
	Price          flexDecimal `json:"price"`
}

func (m LooseModifier) itemID() snowflake.ID {
	if m.ModifierItemID != 0 {
		return m.ModifierItemID.ID()
	}
	return m.ModifierID.ID()
}

// LoosePayment tolerates the method_id / method_name / method aliases seen
// across terminal generations.
type LoosePayment struct {
	MethodID   flexID      `json:"method_id"`
	MethodName string      `json:"method_name"`
	Method     string      `json:"method"`
	Amount     flexDecimal `json:"amount"`
	Reference  string      `json:"reference"`
}

func (p LoosePayment) method() string {
	if p.Method != "" {
		return p.Method
	}
	return p.MethodName
}

type LooseDiscount struct {
	DiscountID flexID      `json:"discount_id"`
	Kind       string      `json:"kind"`
	Type       string      `json:"type"`
	Value      flexDecimal `json:"value"`
}

func (d *LooseDiscount) requested() *discountdomain.RequestedDiscount {
	if d == nil {
		return nil
	}
	kind := d.Kind
	if kind == "" {
		kind = d.Type
	}
	return &discountdomain.RequestedDiscount{
		DiscountID: d.DiscountID.ID(),
		Kind:       discountdomain.Type(kind),
		Value:      d.Value.Decimal(),
	}
}

// Payload is the shared loose envelope all three channels send variants of.
type Payload struct {
	BrandID      flexID         `json:"brand_id"`
	BranchID     flexID         `json:"branch_id"`
	Branch       string         `json:"branch"`
	BranchCode   string         `json:"branch_code"`
	DeviceID     flexID         `json:"device_id"`
	CustomerID   flexID         `json:"customer_id"`
	OrderType    string         `json:"order_type"`
	BusinessDate string         `json:"business_date"`
	TaxPercent   *flexDecimal   `json:"tax_percent"`
	Lines        []LooseLine    `json:"lines"`
	Items        []LooseLine    `json:"items"`
	Payments     []LoosePayment `json:"payments"`
	Discount     *LooseDiscount `json:"discount"`
}

func (p Payload) lines() []LooseLine {
	if len(p.Lines) > 0 {
		return p.Lines
	}
	return p.Items
}

func (p Payload) branchRef() string {
	if p.Branch != "" {
		return p.Branch
	}
	return p.BranchCode
}
