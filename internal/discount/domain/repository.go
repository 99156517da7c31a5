package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, discount *Discount) error
	Update(ctx context.Context, db *gorm.DB, discount *Discount) error
	MarkDeleted(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	// FindByID loads the discount together with its branch, category and
	// product-size links. Deleted rows are still returned; eligibility
	// filtering is the engine's job.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Discount, error)
	ListByBrand(ctx context.Context, db *gorm.DB, brandID snowflake.ID) ([]Discount, error)
	ReplaceBranchLinks(ctx context.Context, db *gorm.DB, id snowflake.ID, branchIDs []snowflake.ID) error
	ReplaceCategoryLinks(ctx context.Context, db *gorm.DB, id snowflake.ID, categoryIDs []snowflake.ID) error
	ReplaceProductSizeLinks(ctx context.Context, db *gorm.DB, id snowflake.ID, sizeIDs []snowflake.ID) error
}
