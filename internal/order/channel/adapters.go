package channel

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dwfit/pos-backend-sub000/internal/catalog"
	"github.com/dwfit/pos-backend-sub000/internal/identity"
	"github.com/dwfit/pos-backend-sub000/internal/order/domain"
)

// Normalizer turns channel payloads into canonical build requests.
type Normalizer struct {
	directory catalog.Directory
}

func NewNormalizer(directory catalog.Directory) *Normalizer {
	return &Normalizer{directory: directory}
}

// NormalizePOS trusts client-sent scoping ids, falling back to the identity
// context and then to the branch reference chain (id, code, reference, name)
// when the id is absent.
func (n *Normalizer) NormalizePOS(ctx context.Context, payload Payload, ident identity.Identity) (domain.BuildRequest, error) {
	req := n.base(payload, ident)
	req.Channel = domain.ChannelPOS

	if req.BranchID == 0 {
		branch, err := n.directory.ResolveBranch(ctx, payload.branchRef())
		if err != nil {
			return domain.BuildRequest{}, ErrBranchRef
		}
		req.BranchID = branch.ID
		if req.BrandID == 0 {
			req.BrandID = branch.BrandID
		}
	}
	return req, nil
}

// NormalizeCallCenter resolves the branch from the POS device when the
// payload omits it and derives the brand from the branch itself. An explicit
// brand that disagrees with the branch's actual brand is a scope violation,
// never silently corrected.
func (n *Normalizer) NormalizeCallCenter(ctx context.Context, payload Payload, ident identity.Identity) (domain.BuildRequest, error) {
	req := n.base(payload, ident)
	req.Channel = domain.ChannelCallCenter

	if req.BranchID == 0 && req.DeviceID != 0 {
		device, err := n.directory.DeviceByID(ctx, req.DeviceID)
		if err != nil {
			return domain.BuildRequest{}, err
		}
		req.BranchID = device.BranchID
	}
	if req.BranchID == 0 {
		return domain.BuildRequest{}, domain.ErrBranchRequired
	}

	branch, err := n.directory.BranchByID(ctx, req.BranchID)
	if err != nil {
		return domain.BuildRequest{}, err
	}
	if req.BrandID != 0 && req.BrandID != branch.BrandID {
		return domain.BuildRequest{}, ErrBrandMismatch
	}
	req.BrandID = branch.BrandID
	return req, nil
}

// NormalizeGeneric requires explicit brand and device ids. Client-sent tax
// figures are dropped on the floor; the state machine recomputes every line
// split itself.
func (n *Normalizer) NormalizeGeneric(ctx context.Context, payload Payload, ident identity.Identity) (domain.BuildRequest, error) {
	req := n.base(payload, ident)
	req.Channel = domain.ChannelPOS

	if req.BrandID == 0 {
		return domain.BuildRequest{}, domain.ErrBrandRequired
	}
	if req.DeviceID == 0 {
		return domain.BuildRequest{}, domain.ErrDeviceRequired
	}
	if req.BranchID == 0 {
		return domain.BuildRequest{}, domain.ErrBranchRequired
	}
	return req, nil
}

// NormalizeClose maps the loose close payload onto the close request.
func NormalizeClose(payload ClosePayload) domain.CloseRequest {
	req := domain.CloseRequest{
		BrandID:  payload.BrandID.ID(),
		DeviceID: payload.DeviceID.ID(),
		Lines:    mapLines(payload.lines()),
		Payments: mapPayments(payload.Payments),
		Discount: payload.Discount.requested(),
	}
	if payload.TaxPercent != nil {
		rate := payload.TaxPercent.Decimal()
		req.TaxRate = &rate
	}
	if payload.Totals != nil {
		req.ClientTotals = &domain.ClientTotals{
			Subtotal:      payload.Totals.Subtotal.Decimal(),
			TaxTotal:      payload.Totals.TaxTotal.Decimal(),
			DiscountTotal: payload.Totals.DiscountTotal.Decimal(),
			NetTotal:      payload.Totals.NetTotal.Decimal(),
		}
	}
	return req
}

// ClosePayload is the loose close-time envelope: the final item and payment
// sets plus the client's own totals for reconciliation.
type ClosePayload struct {
	BrandID    flexID         `json:"brand_id"`
	DeviceID   flexID         `json:"device_id"`
	TaxPercent *flexDecimal   `json:"tax_percent"`
	Lines      []LooseLine    `json:"lines"`
	Items      []LooseLine    `json:"items"`
	Payments   []LoosePayment `json:"payments"`
	Discount   *LooseDiscount `json:"discount"`
	Totals     *LooseTotals   `json:"totals"`
}

func (p ClosePayload) lines() []LooseLine {
	if len(p.Lines) > 0 {
		return p.Lines
	}
	return p.Items
}

type LooseTotals struct {
	Subtotal      flexDecimal `json:"subtotal"`
	TaxTotal      flexDecimal `json:"tax_total"`
	DiscountTotal flexDecimal `json:"discount_total"`
	NetTotal      flexDecimal `json:"net_total"`
}

func (n *Normalizer) base(payload Payload, ident identity.Identity) domain.BuildRequest {
	req := domain.BuildRequest{
		BrandID:      payload.BrandID.ID(),
		BranchID:     payload.BranchID.ID(),
		DeviceID:     payload.DeviceID.ID(),
		CustomerID:   payload.CustomerID.Ptr(),
		OrderType:    domain.OrderType(payload.OrderType),
		BusinessDate: payload.BusinessDate,
		Lines:        mapLines(payload.lines()),
		Payments:     mapPayments(payload.Payments),
		Discount:     payload.Discount.requested(),
	}
	if req.BrandID == 0 {
		req.BrandID = ident.BrandID
	}
	if req.BranchID == 0 {
		req.BranchID = ident.BranchID
	}
	if req.DeviceID == 0 {
		req.DeviceID = ident.DeviceID
	}
	if req.OrderType == "" {
		req.OrderType = domain.OrderTypeDineIn
	}
	if payload.TaxPercent != nil {
		rate := payload.TaxPercent.Decimal()
		req.TaxRate = &rate
	}
	return req
}

func mapLines(lines []LooseLine) []domain.BuildLine {
	out := make([]domain.BuildLine, 0, len(lines))
	for _, line := range lines {
		quantity := line.Quantity.Decimal()
		if quantity.IsZero() {
			quantity = decimal.NewFromInt(1)
		}
		built := domain.BuildLine{
			ProductID:     line.ProductID.ID(),
			ProductSizeID: line.ProductSizeID.Ptr(),
			SizeLabel:     line.SizeLabel,
			CategoryID:    line.CategoryID.ID(),
			Quantity:      quantity,
			UnitPrice:     line.unitPrice(),
		}
		for _, mod := range line.Modifiers {
			modQuantity := mod.Quantity.Decimal()
			if modQuantity.IsZero() {
				modQuantity = decimal.NewFromInt(1)
			}
			built.Modifiers = append(built.Modifiers, domain.BuildModifier{
				ModifierItemID: mod.itemID(),
				Quantity:       modQuantity,
				Price:          mod.Price.Decimal(),
			})
		}
		out = append(out, built)
	}
	return out
}

func mapPayments(payments []LoosePayment) []domain.BuildPayment {
	out := make([]domain.BuildPayment, 0, len(payments))
	for _, payment := range payments {
		out = append(out, domain.BuildPayment{
			PaymentMethodID: payment.MethodID.Ptr(),
			Method:          payment.method(),
			Amount:          payment.Amount.Decimal(),
			Reference:       payment.Reference,
		})
	}
	return out
}
