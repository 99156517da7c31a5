package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dwfit/pos-backend-sub000/internal/discount/domain"
	"github.com/dwfit/pos-backend-sub000/internal/identity"
	"github.com/dwfit/pos-backend-sub000/internal/money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// Resolve computes the applicable discount for an order context. Structural
// problems with a caller-supplied discount never fail the order; they
// degrade to a zero resolution. That permissiveness is intentional and
// load-bearing for terminals that echo discounts back on close.
func (s *Service) Resolve(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
	if req.Requested == nil {
		return domain.Resolution{}, nil
	}

	if req.Requested.DiscountID != 0 {
		return s.resolvePredefined(ctx, req)
	}
	return s.resolveOpen(ctx, req)
}

func (s *Service) resolvePredefined(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
	if id, ok := identity.FromContext(ctx); ok {
		if !id.CanApplyPredefinedDiscount(s.allowWhenPermissionsAbsent) {
			return domain.Resolution{}, domain.ErrDiscountForbidden
		}
	}

	discount, err := s.repo.FindByID(ctx, s.db, req.Requested.DiscountID)
	if err != nil {
		return domain.Resolution{}, err
	}
	if discount == nil {
		s.log.Warn("requested discount not found, applying zero discount",
			zap.String("discount_id", req.Requested.DiscountID.String()))
		return domain.Resolution{}, nil
	}

	base, matched, eligible := s.eligibleBase(discount, req)
	if !eligible {
		s.log.Warn("requested discount not eligible, applying zero discount",
			zap.String("discount_id", discount.ID.String()),
			zap.String("branch_id", req.BranchID.String()),
			zap.String("order_type", req.OrderType))
		return domain.Resolution{}, nil
	}

	amount := computeAmount(discount.Type, discount.Value, base, discount.MaxDiscount)
	return domain.Resolution{
		DiscountID:     discount.ID,
		Kind:           discount.Type,
		Value:          discount.Value,
		Amount:         amount,
		Scope:          discount.Qualification.Scope(),
		MatchedLineIDs: matched,
	}, nil
}

func (s *Service) resolveOpen(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
	if id, ok := identity.FromContext(ctx); ok {
		if !id.CanApplyOpenDiscount(s.allowWhenPermissionsAbsent) {
			return domain.Resolution{}, domain.ErrDiscountForbidden
		}
	}

	requested := req.Requested
	if !requested.Kind.Valid() || requested.Value.IsNegative() {
		s.log.Warn("malformed open discount, applying zero discount",
			zap.String("kind", string(requested.Kind)),
			zap.String("value", requested.Value.String()))
		return domain.Resolution{}, nil
	}

	amount := computeAmount(requested.Kind, requested.Value, req.OrderSubtotal, nil)
	return domain.Resolution{
		Kind:   requested.Kind,
		Value:  requested.Value,
		Amount: amount,
		Scope:  domain.ScopeOrder,
	}, nil
}

// eligibleBase runs the eligibility chain and returns the base amount the
// discount value applies to, plus the matched line ids for ITEM scope.
func (s *Service) eligibleBase(discount *domain.Discount, req domain.ResolveRequest) (decimal.Decimal, []snowflake.ID, bool) {
	if discount.IsDeleted {
		return decimal.Decimal{}, nil, false
	}

	// Branch match. A discount with no branch links and applyAllBranches
	// unset is assigned nowhere: absence of assignment is never
	// "apply everywhere".
	if !discount.ApplyAllBranches {
		linked := false
		for _, branchID := range discount.BranchIDs {
			if branchID == req.BranchID {
				linked = true
				break
			}
		}
		if !linked {
			return decimal.Decimal{}, nil, false
		}
	}

	if orderTypes := unmarshalOrderTypes(discount.OrderTypes); len(orderTypes) > 0 {
		allowed := false
		for _, orderType := range orderTypes {
			if orderType == req.OrderType {
				allowed = true
				break
			}
		}
		if !allowed {
			return decimal.Decimal{}, nil, false
		}
	}

	if discount.Qualification.Scope() == domain.ScopeOrder {
		return req.OrderSubtotal, nil, true
	}

	base := decimal.Decimal{}
	var matched []snowflake.ID
	for _, line := range req.Lines {
		if !s.lineMatches(discount, line) {
			continue
		}
		base = base.Add(line.LineSubtotal)
		matched = append(matched, line.LineID)
	}
	if len(matched) == 0 {
		return decimal.Decimal{}, nil, false
	}
	return base, matched, true
}

func (s *Service) lineMatches(discount *domain.Discount, line domain.ResolveLine) bool {
	if discount.MinProductPrice != nil && line.UnitPrice.LessThan(*discount.MinProductPrice) {
		return false
	}
	if len(discount.CategoryIDs) > 0 && !containsID(discount.CategoryIDs, line.CategoryID) {
		return false
	}
	if len(discount.ProductSizeIDs) > 0 && !containsID(discount.ProductSizeIDs, line.ProductSizeID) {
		return false
	}
	return true
}

func containsID(ids []snowflake.ID, id snowflake.ID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func computeAmount(kind domain.Type, value, base decimal.Decimal, maxDiscount *decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch kind {
	case domain.TypePercentage:
		amount = money.Round(base.Mul(value).Div(hundred))
		if maxDiscount != nil && amount.GreaterThan(*maxDiscount) {
			amount = *maxDiscount
		}
	case domain.TypeFixed:
		amount = value
		if amount.GreaterThan(base) {
			amount = base
		}
	default:
		return decimal.Decimal{}
	}
	if amount.IsNegative() {
		return decimal.Decimal{}
	}
	return amount
}
