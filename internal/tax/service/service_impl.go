package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dwfit/pos-backend-sub000/internal/config"
	"github.com/dwfit/pos-backend-sub000/internal/money"
	"github.com/dwfit/pos-backend-sub000/internal/tax/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	cfg   config.Config
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		cfg:   p.Cfg,
		db:    p.DB,
		log:   p.Log.Named("tax.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// DefaultRate returns the first active tax row's percent as a fraction,
// falling back to the configured default when the table is empty.
func (s *Service) DefaultRate(ctx context.Context) (decimal.Decimal, error) {
	rate, err := s.repo.FirstActive(ctx, s.db)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if rate == nil {
		return money.RatePercentToFraction(decimal.NewFromFloat(s.cfg.DefaultTaxPercent))
	}
	return money.RatePercentToFraction(rate.Percent)
}

func (s *Service) Create(ctx context.Context, req domain.CreateTaxRateRequest) (domain.TaxRate, error) {
	percent, err := decimal.NewFromString(strings.TrimSpace(req.Percent))
	if err != nil {
		return domain.TaxRate{}, domain.ErrInvalidPercent
	}

	now := time.Now().UTC()
	rate := domain.TaxRate{
		ID:        s.genID.Generate(),
		Name:      strings.TrimSpace(req.Name),
		Percent:   percent,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IsActive != nil {
		rate.IsActive = *req.IsActive
	}
	if err := rate.Validate(); err != nil {
		return domain.TaxRate{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &rate); err != nil {
		return domain.TaxRate{}, err
	}
	return rate, nil
}

func (s *Service) List(ctx context.Context) ([]domain.TaxRate, error) {
	return s.repo.List(ctx, s.db)
}
