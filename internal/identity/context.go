package identity

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Identity is the caller context supplied by the auth gateway. The core
// trusts it for brand/branch scoping and discount permission gating.
type Identity struct {
	UserID          snowflake.ID
	BranchID        snowflake.ID
	BrandID         snowflake.ID
	DeviceID        snowflake.ID
	Permissions     []string
	AllowAllBrands  bool
	AllowedBrandIDs []snowflake.ID
}

const (
	PermApplyOpenDiscount       = "discount.apply_open"
	PermApplyPredefinedDiscount = "discount.apply_predefined"
)

type contextKey struct{}

// WithIdentity stores the identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity from context, if set.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// CanAccessBrand reports whether the identity may operate on the brand.
func (id Identity) CanAccessBrand(brandID snowflake.ID) bool {
	if id.AllowAllBrands {
		return true
	}
	if id.BrandID != 0 && id.BrandID == brandID {
		return true
	}
	for _, allowed := range id.AllowedBrandIDs {
		if allowed == brandID {
			return true
		}
	}
	return false
}

func (id Identity) hasPermission(perm string) bool {
	for _, p := range id.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// CanApplyOpenDiscount gates ad-hoc discounts typed in at the terminal.
// An identity carrying no permissions at all is allowed everything; see
// AllowDiscountsWhenPermissionsAbsent in the discount engine.
func (id Identity) CanApplyOpenDiscount(allowWhenAbsent bool) bool {
	if len(id.Permissions) == 0 {
		return allowWhenAbsent
	}
	return id.hasPermission(PermApplyOpenDiscount)
}

// CanApplyPredefinedDiscount gates back-office discount rules.
func (id Identity) CanApplyPredefinedDiscount(allowWhenAbsent bool) bool {
	if len(id.Permissions) == 0 {
		return allowWhenAbsent
	}
	return id.hasPermission(PermApplyPredefinedDiscount)
}
