package catalog

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Lookup answers price questions for order lines. It is the boundary to the
// menu/catalog CRUD surface, which is not part of this core.
type Lookup interface {
	ProductPrice(ctx context.Context, productID snowflake.ID, productSizeID *snowflake.ID) (decimal.Decimal, error)
	ModifierPrice(ctx context.Context, modifierItemID snowflake.ID) (decimal.Decimal, error)
}

// Directory resolves branches and devices for the ingestion adapters.
type Directory interface {
	BranchByID(ctx context.Context, id snowflake.ID) (*Branch, error)
	// ResolveBranch walks the id, code, reference, name fallback chain for a
	// loose branch identifier sent by a POS client.
	ResolveBranch(ctx context.Context, ref string) (*Branch, error)
	DeviceByID(ctx context.Context, id snowflake.ID) (*Device, error)
}

type gormLookup struct {
	db *gorm.DB
}

func NewLookup(db *gorm.DB) Lookup {
	return &gormLookup{db: db}
}

func (l *gormLookup) ProductPrice(ctx context.Context, productID snowflake.ID, productSizeID *snowflake.ID) (decimal.Decimal, error) {
	var row ProductPrice
	stmt := l.db.WithContext(ctx).Where("product_id = ?", productID)
	if productSizeID != nil {
		stmt = stmt.Where("product_size_id = ?", *productSizeID)
	} else {
		stmt = stmt.Where("product_size_id IS NULL")
	}
	err := stmt.First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Decimal{}, ErrPriceNotFound
		}
		return decimal.Decimal{}, err
	}
	return row.Price, nil
}

func (l *gormLookup) ModifierPrice(ctx context.Context, modifierItemID snowflake.ID) (decimal.Decimal, error) {
	var row ModifierItem
	err := l.db.WithContext(ctx).Where("id = ?", modifierItemID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Decimal{}, ErrPriceNotFound
		}
		return decimal.Decimal{}, err
	}
	return row.Price, nil
}

type gormDirectory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

func (d *gormDirectory) BranchByID(ctx context.Context, id snowflake.ID) (*Branch, error) {
	var branch Branch
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	return &branch, nil
}

func (d *gormDirectory) ResolveBranch(ctx context.Context, ref string) (*Branch, error) {
	if ref == "" {
		return nil, ErrBranchNotFound
	}

	if id, err := snowflake.ParseString(ref); err == nil {
		if branch, err := d.BranchByID(ctx, id); err == nil {
			return branch, nil
		}
	}

	for _, column := range []string{"code", "reference", "name"} {
		var branch Branch
		err := d.db.WithContext(ctx).Where(column+" = ?", ref).First(&branch).Error
		if err == nil {
			return &branch, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}
	return nil, ErrBranchNotFound
}

func (d *gormDirectory) DeviceByID(ctx context.Context, id snowflake.ID) (*Device, error) {
	var device Device
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&device).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return &device, nil
}
