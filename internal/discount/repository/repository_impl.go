package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dwfit/pos-backend-sub000/internal/discount/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, discount *domain.Discount) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO discounts (
			id, brand_id, name, type, qualification, value, max_discount,
			min_product_price, order_types, apply_all_branches, is_deleted,
			metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		discount.ID,
		discount.BrandID,
		discount.Name,
		discount.Type,
		discount.Qualification,
		discount.Value,
		discount.MaxDiscount,
		discount.MinProductPrice,
		discount.OrderTypes,
		discount.ApplyAllBranches,
		discount.IsDeleted,
		discount.Metadata,
		discount.CreatedAt,
		discount.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, discount *domain.Discount) error {
	return db.WithContext(ctx).Exec(
		`UPDATE discounts
		 SET name = ?, value = ?, max_discount = ?, min_product_price = ?,
		     order_types = ?, apply_all_branches = ?, updated_at = ?
		 WHERE id = ?`,
		discount.Name,
		discount.Value,
		discount.MaxDiscount,
		discount.MinProductPrice,
		discount.OrderTypes,
		discount.ApplyAllBranches,
		discount.UpdatedAt,
		discount.ID,
	).Error
}

func (r *repo) MarkDeleted(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE discounts SET is_deleted = ? WHERE id = ?`,
		true,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Discount, error) {
	var discount domain.Discount
	err := db.WithContext(ctx).Raw(
		`SELECT id, brand_id, name, type, qualification, value, max_discount,
		        min_product_price, order_types, apply_all_branches, is_deleted,
		        metadata, created_at, updated_at
		 FROM discounts WHERE id = ?`,
		id,
	).Scan(&discount).Error
	if err != nil {
		return nil, err
	}
	if discount.ID == 0 {
		return nil, nil
	}

	if err := r.loadLinks(ctx, db, &discount); err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *repo) loadLinks(ctx context.Context, db *gorm.DB, discount *domain.Discount) error {
	if err := db.WithContext(ctx).Raw(
		`SELECT branch_id FROM discount_branches WHERE discount_id = ?`,
		discount.ID,
	).Scan(&discount.BranchIDs).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Raw(
		`SELECT category_id FROM discount_categories WHERE discount_id = ?`,
		discount.ID,
	).Scan(&discount.CategoryIDs).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Raw(
		`SELECT product_size_id FROM discount_product_sizes WHERE discount_id = ?`,
		discount.ID,
	).Scan(&discount.ProductSizeIDs).Error
}

func (r *repo) ListByBrand(ctx context.Context, db *gorm.DB, brandID snowflake.ID) ([]domain.Discount, error) {
	var discounts []domain.Discount
	err := db.WithContext(ctx).
		Model(&domain.Discount{}).
		Where("brand_id = ? AND is_deleted = ?", brandID, false).
		Order("created_at desc, id desc").
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}
	return discounts, nil
}

func (r *repo) ReplaceBranchLinks(ctx context.Context, db *gorm.DB, id snowflake.ID, branchIDs []snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM discount_branches WHERE discount_id = ?`, id,
	).Error; err != nil {
		return err
	}
	for _, branchID := range branchIDs {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO discount_branches (discount_id, branch_id) VALUES (?, ?)`,
			id, branchID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) ReplaceCategoryLinks(ctx context.Context, db *gorm.DB, id snowflake.ID, categoryIDs []snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM discount_categories WHERE discount_id = ?`, id,
	).Error; err != nil {
		return err
	}
	for _, categoryID := range categoryIDs {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO discount_categories (discount_id, category_id) VALUES (?, ?)`,
			id, categoryID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) ReplaceProductSizeLinks(ctx context.Context, db *gorm.DB, id snowflake.ID, sizeIDs []snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM discount_product_sizes WHERE discount_id = ?`, id,
	).Error; err != nil {
		return err
	}
	for _, sizeID := range sizeIDs {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO discount_product_sizes (discount_id, product_size_id) VALUES (?, ?)`,
			id, sizeID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}
