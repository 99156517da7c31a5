package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ClockInRequest struct {
	UserID   snowflake.ID
	BranchID snowflake.ID
	BrandID  snowflake.ID
	DeviceID snowflake.ID
}

type TillOpenRequest struct {
	UserID      snowflake.ID
	BranchID    snowflake.ID
	BrandID     snowflake.ID
	DeviceID    snowflake.ID
	OpeningCash decimal.Decimal
}

// TillStatus is the read side: the caller's open shift and till, either of
// which may be absent.
type TillStatus struct {
	Shift *Shift       `json:"shift,omitempty"`
	Till  *TillSession `json:"till,omitempty"`
}

type Service interface {
	// ClockIn is idempotent: an existing OPEN shift for (user, branch) is
	// returned as-is.
	ClockIn(ctx context.Context, req ClockInRequest) (*Shift, error)
	ClockOut(ctx context.Context, userID, branchID snowflake.ID) (*Shift, error)

	// TillOpen implicitly clocks in when no shift is open, and force-closes
	// any previously open till under the shift before opening the new one.
	TillOpen(ctx context.Context, req TillOpenRequest) (*TillSession, error)
	TillClose(ctx context.Context, userID, branchID snowflake.ID, closingCash decimal.Decimal) (*TillSession, error)
	TillStatus(ctx context.Context, userID, branchID snowflake.ID) (TillStatus, error)
}
