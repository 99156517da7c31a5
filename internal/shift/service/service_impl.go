package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dwfit/pos-backend-sub000/internal/clock"
	"github.com/dwfit/pos-backend-sub000/internal/shift/domain"
	"github.com/dwfit/pos-backend-sub000/pkg/db"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("shift.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: p.Clock,
	}
}

func (s *Service) ClockIn(ctx context.Context, req domain.ClockInRequest) (*domain.Shift, error) {
	if req.UserID == 0 || req.BranchID == 0 {
		return nil, domain.ErrUserRequired
	}

	var shift *domain.Shift
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.LockOpenShift(ctx, tx, req.UserID, req.BranchID)
		if err != nil {
			return err
		}
		if existing != nil {
			shift = existing
			return nil
		}
		shift, err = s.openShift(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *Service) ClockOut(ctx context.Context, userID, branchID snowflake.ID) (*domain.Shift, error) {
	var shift *domain.Shift
	err := s.db.Transaction(func(tx *gorm.DB) error {
		open, err := s.repo.LockOpenShift(ctx, tx, userID, branchID)
		if err != nil {
			return err
		}
		if open == nil {
			return domain.ErrNoOpenShift
		}

		till, err := s.repo.FindOpenTill(ctx, tx, open.ID)
		if err != nil {
			return err
		}
		if till != nil {
			return domain.ErrTillStillOpen
		}

		now := s.clock.Now()
		open.Status = domain.StatusClosed
		open.ClockOutAt = &now
		open.UpdatedAt = now
		if err := s.repo.UpdateShift(ctx, tx, open); err != nil {
			return err
		}
		shift = open
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *Service) TillOpen(ctx context.Context, req domain.TillOpenRequest) (*domain.TillSession, error) {
	if req.UserID == 0 || req.BranchID == 0 {
		return nil, domain.ErrUserRequired
	}
	if req.OpeningCash.IsNegative() {
		return nil, domain.ErrInvalidCash
	}

	var till *domain.TillSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		shift, err := s.repo.LockOpenShift(ctx, tx, req.UserID, req.BranchID)
		if err != nil {
			return err
		}
		if shift == nil {
			// Opening a till implies clocking in.
			shift, err = s.openShift(ctx, tx, domain.ClockInRequest{
				UserID:   req.UserID,
				BranchID: req.BranchID,
				BrandID:  req.BrandID,
				DeviceID: req.DeviceID,
			})
			if err != nil {
				return err
			}
		}

		now := s.clock.Now()
		prior, err := s.repo.FindOpenTill(ctx, tx, shift.ID)
		if err != nil {
			return err
		}
		if prior != nil {
			// No overlap: the previous drawer session ends the moment a new
			// one opens.
			prior.Status = domain.StatusClosed
			prior.ClosedAt = &now
			prior.UpdatedAt = now
			if err := s.repo.UpdateTill(ctx, tx, prior); err != nil {
				return err
			}
			s.log.Info("force-closed prior open till",
				zap.String("shift_id", shift.ID.String()),
				zap.String("till_id", prior.ID.String()))
		}

		till = &domain.TillSession{
			ID:          s.genID.Generate(),
			ShiftID:     shift.ID,
			Status:      domain.StatusOpen,
			OpeningCash: req.OpeningCash,
			OpenedAt:    now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return s.repo.InsertTill(ctx, tx, till)
	})
	if err != nil {
		// A concurrent opener that won the partial unique index race
		// surfaces here as a conflict, never as two open tills.
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrTillConflict
		}
		return nil, err
	}
	return till, nil
}

func (s *Service) TillClose(ctx context.Context, userID, branchID snowflake.ID, closingCash decimal.Decimal) (*domain.TillSession, error) {
	if closingCash.IsNegative() {
		return nil, domain.ErrInvalidCash
	}

	var till *domain.TillSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		shift, err := s.repo.LockOpenShift(ctx, tx, userID, branchID)
		if err != nil {
			return err
		}
		if shift == nil {
			return domain.ErrNoOpenTill
		}
		open, err := s.repo.FindOpenTill(ctx, tx, shift.ID)
		if err != nil {
			return err
		}
		if open == nil {
			return domain.ErrNoOpenTill
		}

		now := s.clock.Now()
		open.Status = domain.StatusClosed
		open.ClosingCash = &closingCash
		open.ClosedAt = &now
		open.UpdatedAt = now
		if err := s.repo.UpdateTill(ctx, tx, open); err != nil {
			return err
		}
		till = open
		return nil
	})
	if err != nil {
		return nil, err
	}
	return till, nil
}

func (s *Service) TillStatus(ctx context.Context, userID, branchID snowflake.ID) (domain.TillStatus, error) {
	shift, err := s.repo.FindOpenShift(ctx, s.db, userID, branchID)
	if err != nil {
		return domain.TillStatus{}, err
	}
	if shift == nil {
		return domain.TillStatus{}, nil
	}
	till, err := s.repo.FindOpenTill(ctx, s.db, shift.ID)
	if err != nil {
		return domain.TillStatus{}, err
	}
	return domain.TillStatus{Shift: shift, Till: till}, nil
}

func (s *Service) openShift(ctx context.Context, tx *gorm.DB, req domain.ClockInRequest) (*domain.Shift, error) {
	now := s.clock.Now()
	shift := &domain.Shift{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		BranchID:  req.BranchID,
		BrandID:   req.BrandID,
		DeviceID:  req.DeviceID,
		Status:    domain.StatusOpen,
		ClockInAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	inserted, err := s.repo.InsertShift(ctx, tx, shift)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Lost the race to a concurrent clock-in. Clock-in is idempotent,
		// so resolve to the winner's open shift.
		winner, err := s.repo.FindOpenShift(ctx, tx, req.UserID, req.BranchID)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, domain.ErrShiftConflict
		}
		return winner, nil
	}
	return shift, nil
}
