package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dwfit/pos-backend-sub000/internal/shift/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const shiftColumns = `id, user_id, branch_id, brand_id, device_id, status,
	clock_in_at, clock_out_at, created_at, updated_at`

func (r *repo) LockOpenShift(ctx context.Context, db *gorm.DB, userID, branchID snowflake.ID) (*domain.Shift, error) {
	var shift domain.Shift
	err := db.WithContext(ctx).Raw(
		`SELECT `+shiftColumns+` FROM shifts
		 WHERE user_id = ? AND branch_id = ? AND status = ?
		 FOR UPDATE`,
		userID, branchID, domain.StatusOpen,
	).Scan(&shift).Error
	if err != nil {
		return nil, err
	}
	if shift.ID == 0 {
		return nil, nil
	}
	return &shift, nil
}

func (r *repo) FindOpenShift(ctx context.Context, db *gorm.DB, userID, branchID snowflake.ID) (*domain.Shift, error) {
	var shift domain.Shift
	err := db.WithContext(ctx).Raw(
		`SELECT `+shiftColumns+` FROM shifts
		 WHERE user_id = ? AND branch_id = ? AND status = ?`,
		userID, branchID, domain.StatusOpen,
	).Scan(&shift).Error
	if err != nil {
		return nil, err
	}
	if shift.ID == 0 {
		return nil, nil
	}
	return &shift, nil
}

func (r *repo) InsertShift(ctx context.Context, db *gorm.DB, shift *domain.Shift) (bool, error) {
	// ON CONFLICT DO NOTHING instead of surfacing the partial-index
	// violation: a lost clock-in race resolves to the winner's row.
	res := db.WithContext(ctx).Exec(
		`INSERT INTO shifts (
			id, user_id, branch_id, brand_id, device_id, status,
			clock_in_at, clock_out_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, branch_id) WHERE status = 'OPEN' DO NOTHING`,
		shift.ID,
		shift.UserID,
		shift.BranchID,
		shift.BrandID,
		shift.DeviceID,
		shift.Status,
		shift.ClockInAt,
		shift.ClockOutAt,
		shift.CreatedAt,
		shift.UpdatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) UpdateShift(ctx context.Context, db *gorm.DB, shift *domain.Shift) error {
	return db.WithContext(ctx).Exec(
		`UPDATE shifts
		 SET status = ?, clock_out_at = ?, updated_at = ?
		 WHERE id = ?`,
		shift.Status,
		shift.ClockOutAt,
		shift.UpdatedAt,
		shift.ID,
	).Error
}

const tillColumns = `id, shift_id, status, opening_cash, closing_cash,
	opened_at, closed_at, created_at, updated_at`

func (r *repo) FindOpenTill(ctx context.Context, db *gorm.DB, shiftID snowflake.ID) (*domain.TillSession, error) {
	var till domain.TillSession
	err := db.WithContext(ctx).Raw(
		`SELECT `+tillColumns+` FROM till_sessions
		 WHERE shift_id = ? AND status = ?`,
		shiftID, domain.StatusOpen,
	).Scan(&till).Error
	if err != nil {
		return nil, err
	}
	if till.ID == 0 {
		return nil, nil
	}
	return &till, nil
}

func (r *repo) InsertTill(ctx context.Context, db *gorm.DB, till *domain.TillSession) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO till_sessions (
			id, shift_id, status, opening_cash, closing_cash,
			opened_at, closed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		till.ID,
		till.ShiftID,
		till.Status,
		till.OpeningCash,
		till.ClosingCash,
		till.OpenedAt,
		till.ClosedAt,
		till.CreatedAt,
		till.UpdatedAt,
	).Error
}

func (r *repo) UpdateTill(ctx context.Context, db *gorm.DB, till *domain.TillSession) error {
	return db.WithContext(ctx).Exec(
		`UPDATE till_sessions
		 SET status = ?, closing_cash = ?, closed_at = ?, updated_at = ?
		 WHERE id = ?`,
		till.Status,
		till.ClosingCash,
		till.ClosedAt,
		till.UpdatedAt,
		till.ID,
	).Error
}
