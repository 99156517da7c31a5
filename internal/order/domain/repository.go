package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertOrder(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	InsertPayments(ctx context.Context, db *gorm.DB, payments []Payment) error

	// LockByID loads the order header FOR UPDATE so concurrent transitions
	// against the same order serialize at the row.
	LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	LoadChildren(ctx context.Context, db *gorm.DB, order *Order) error

	// DeleteChildren removes all items, item modifiers, and payments of the
	// order; used by the wholesale replace on close.
	DeleteChildren(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
	UpdateHeader(ctx context.Context, db *gorm.DB, order *Order) error

	// LastOrderNo returns the highest order_no issued for a business date,
	// locked FOR UPDATE so two creates cannot mint the same sequence.
	LastOrderNo(ctx context.Context, db *gorm.DB, businessDate string) (string, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Order, error)
}
