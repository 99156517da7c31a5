package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dwfit/pos-backend-sub000/internal/discount/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository

	// AllowDiscountsWhenPermissionsAbsent preserves the rollout behavior of
	// terminals that predate the permission model: an identity with no
	// permissions at all may apply any discount.
	allowWhenPermissionsAbsent bool
}

func New(p Params) domain.Service {
	return &Service{
		db:                         p.DB,
		log:                        p.Log.Named("discount.service"),
		genID:                      p.GenID,
		repo:                       p.Repo,
		allowWhenPermissionsAbsent: true,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateDiscountRequest) (domain.Discount, error) {
	if req.BrandID == 0 {
		return domain.Discount{}, domain.ErrInvalidBrand
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Discount{}, domain.ErrInvalidName
	}
	if !req.Type.Valid() {
		return domain.Discount{}, domain.ErrInvalidType
	}
	if !req.Qualification.Valid() {
		return domain.Discount{}, domain.ErrInvalidQualification
	}
	if req.Value.IsNegative() {
		return domain.Discount{}, domain.ErrInvalidValue
	}

	orderTypes, err := marshalOrderTypes(req.OrderTypes)
	if err != nil {
		return domain.Discount{}, err
	}

	now := time.Now().UTC()
	discount := domain.Discount{
		ID:               s.genID.Generate(),
		BrandID:          req.BrandID,
		Name:             name,
		Type:             req.Type,
		Qualification:    req.Qualification,
		Value:            req.Value,
		MaxDiscount:      req.MaxDiscount,
		MinProductPrice:  req.MinProductPrice,
		OrderTypes:       orderTypes,
		ApplyAllBranches: req.ApplyAllBranches,
		Metadata:         datatypes.JSONMap{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &discount); err != nil {
			return err
		}
		if err := s.repo.ReplaceBranchLinks(ctx, tx, discount.ID, req.BranchIDs); err != nil {
			return err
		}
		if err := s.repo.ReplaceCategoryLinks(ctx, tx, discount.ID, req.CategoryIDs); err != nil {
			return err
		}
		return s.repo.ReplaceProductSizeLinks(ctx, tx, discount.ID, req.ProductSizeIDs)
	})
	if err != nil {
		return domain.Discount{}, err
	}

	discount.BranchIDs = req.BranchIDs
	discount.CategoryIDs = req.CategoryIDs
	discount.ProductSizeIDs = req.ProductSizeIDs
	return discount, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateDiscountRequest) (domain.Discount, error) {
	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Discount{}, err
	}
	if existing == nil || existing.IsDeleted {
		return domain.Discount{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Discount{}, domain.ErrInvalidName
		}
		existing.Name = name
	}
	if req.Value != nil {
		if req.Value.IsNegative() {
			return domain.Discount{}, domain.ErrInvalidValue
		}
		existing.Value = *req.Value
	}
	if req.MaxDiscount != nil {
		existing.MaxDiscount = req.MaxDiscount
	}
	if req.MinProductPrice != nil {
		existing.MinProductPrice = req.MinProductPrice
	}
	if req.OrderTypes != nil {
		orderTypes, err := marshalOrderTypes(req.OrderTypes)
		if err != nil {
			return domain.Discount{}, err
		}
		existing.OrderTypes = orderTypes
	}
	if req.ApplyAllBranches != nil {
		existing.ApplyAllBranches = *req.ApplyAllBranches
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return domain.Discount{}, err
	}
	return *existing, nil
}

func (s *Service) SoftDelete(ctx context.Context, id snowflake.ID) error {
	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if existing == nil || existing.IsDeleted {
		return domain.ErrNotFound
	}
	return s.repo.MarkDeleted(ctx, s.db, id)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Discount, error) {
	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Discount{}, err
	}
	if existing == nil || existing.IsDeleted {
		return domain.Discount{}, domain.ErrNotFound
	}
	return *existing, nil
}

func (s *Service) List(ctx context.Context, brandID snowflake.ID) ([]domain.Discount, error) {
	if brandID == 0 {
		return nil, domain.ErrInvalidBrand
	}
	return s.repo.ListByBrand(ctx, s.db, brandID)
}

func (s *Service) ReplaceBranchLinks(ctx context.Context, id snowflake.ID, branchIDs []snowflake.ID) error {
	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if existing == nil || existing.IsDeleted {
		return domain.ErrNotFound
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.ReplaceBranchLinks(ctx, tx, id, branchIDs)
	})
}

func marshalOrderTypes(orderTypes []string) (datatypes.JSON, error) {
	if len(orderTypes) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(orderTypes)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func unmarshalOrderTypes(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var orderTypes []string
	if err := json.Unmarshal(raw, &orderTypes); err != nil {
		return nil
	}
	return orderTypes
}
