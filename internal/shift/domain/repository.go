package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// LockOpenShift loads the OPEN shift for (user, branch) FOR UPDATE so
	// concurrent shift and till operations serialize on the shift row.
	LockOpenShift(ctx context.Context, db *gorm.DB, userID, branchID snowflake.ID) (*Shift, error)
	FindOpenShift(ctx context.Context, db *gorm.DB, userID, branchID snowflake.ID) (*Shift, error)
	// InsertShift reports whether the row was written; false means another
	// OPEN shift for (user, branch) already holds the partial unique index.
	InsertShift(ctx context.Context, db *gorm.DB, shift *Shift) (bool, error)
	UpdateShift(ctx context.Context, db *gorm.DB, shift *Shift) error

	FindOpenTill(ctx context.Context, db *gorm.DB, shiftID snowflake.ID) (*TillSession, error)
	InsertTill(ctx context.Context, db *gorm.DB, till *TillSession) error
	UpdateTill(ctx context.Context, db *gorm.DB, till *TillSession) error
}
