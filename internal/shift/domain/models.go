package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

var (
	ErrNoOpenShift   = errors.New("no_open_shift")
	ErrTillStillOpen = errors.New("till_still_open")
	ErrNoOpenTill    = errors.New("no_open_till")
	ErrTillConflict  = errors.New("till_conflict")
	ErrShiftConflict = errors.New("shift_conflict")
	ErrInvalidCash   = errors.New("invalid_cash")
	ErrUserRequired  = errors.New("user_required")
)

// Shift is one work session. A partial unique index over
// (user_id, branch_id) WHERE status = 'OPEN' enforces at most one open
// shift per user per branch at the database, not in application logic.
type Shift struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID     snowflake.ID `gorm:"not null" json:"user_id"`
	BranchID   snowflake.ID `gorm:"not null" json:"branch_id"`
	BrandID    snowflake.ID `gorm:"not null" json:"brand_id"`
	DeviceID   snowflake.ID `gorm:"not null" json:"device_id"`
	Status     Status       `gorm:"type:text;not null" json:"status"`
	ClockInAt  time.Time    `gorm:"not null" json:"clock_in_at"`
	ClockOutAt *time.Time   `gorm:"" json:"clock_out_at,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Shift) TableName() string { return "shifts" }

// TillSession is one cash-drawer session under a shift; at most one OPEN
// per shift, enforced the same way.
type TillSession struct {
	ID          snowflake.ID     `gorm:"primaryKey" json:"id"`
	ShiftID     snowflake.ID     `gorm:"not null" json:"shift_id"`
	Status      Status           `gorm:"type:text;not null" json:"status"`
	OpeningCash decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"opening_cash"`
	ClosingCash *decimal.Decimal `gorm:"type:numeric(12,2)" json:"closing_cash,omitempty"`
	OpenedAt    time.Time        `gorm:"not null" json:"opened_at"`
	ClosedAt    *time.Time       `gorm:"" json:"closed_at,omitempty"`
	CreatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TillSession) TableName() string { return "till_sessions" }
