package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dwfit/pos-backend-sub000/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertOrder(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, brand_id, branch_id, device_id, customer_id, channel, order_type,
			status, order_no, business_date, subtotal, tax_total, discount_total,
			net_total, discount_kind, discount_value, voided_by_id, metadata,
			created_at, updated_at, closed_at, voided_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.BrandID,
		order.BranchID,
		order.DeviceID,
		order.CustomerID,
		order.Channel,
		order.OrderType,
		order.Status,
		order.OrderNo,
		order.BusinessDate,
		order.Subtotal,
		order.TaxTotal,
		order.DiscountTotal,
		order.NetTotal,
		order.DiscountKind,
		order.DiscountValue,
		order.VoidedByID,
		order.Metadata,
		order.CreatedAt,
		order.UpdatedAt,
		order.ClosedAt,
		order.VoidedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	for i := range items {
		item := &items[i]
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO order_items (
				id, order_id, product_id, size_label, quantity, unit_price,
				tax_amount, line_total, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.SizeLabel,
			item.Quantity,
			item.UnitPrice,
			item.TaxAmount,
			item.LineTotal,
			item.CreatedAt,
		).Error; err != nil {
			return err
		}
		for _, mod := range item.Modifiers {
			if err := db.WithContext(ctx).Exec(
				`INSERT INTO order_item_modifiers (
					id, order_item_id, modifier_item_id, quantity, price, created_at
				) VALUES (?, ?, ?, ?, ?, ?)`,
				mod.ID,
				mod.OrderItemID,
				mod.ModifierItemID,
				mod.Quantity,
				mod.Price,
				mod.CreatedAt,
			).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *repo) InsertPayments(ctx context.Context, db *gorm.DB, payments []domain.Payment) error {
	for _, payment := range payments {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO payments (
				id, order_id, payment_method_id, method, amount, reference, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			payment.ID,
			payment.OrderID,
			payment.PaymentMethodID,
			payment.Method,
			payment.Amount,
			payment.Reference,
			payment.CreatedAt,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

const orderColumns = `id, brand_id, branch_id, device_id, customer_id, channel,
	order_type, status, order_no, business_date, subtotal, tax_total,
	discount_total, net_total, discount_kind, discount_value, voided_by_id,
	metadata, created_at, updated_at, closed_at, voided_at`

func (r *repo) LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE id = ? FOR UPDATE`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	if err := r.LoadChildren(ctx, db, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) LoadChildren(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	var items []domain.OrderItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, size_label, quantity, unit_price,
		        tax_amount, line_total, created_at
		 FROM order_items WHERE order_id = ? ORDER BY id ASC`,
		order.ID,
	).Scan(&items).Error
	if err != nil {
		return err
	}
	for i := range items {
		if err := db.WithContext(ctx).Raw(
			`SELECT id, order_item_id, modifier_item_id, quantity, price, created_at
			 FROM order_item_modifiers WHERE order_item_id = ? ORDER BY id ASC`,
			items[i].ID,
		).Scan(&items[i].Modifiers).Error; err != nil {
			return err
		}
	}
	order.Items = items

	return db.WithContext(ctx).Raw(
		`SELECT id, order_id, payment_method_id, method, amount, reference, created_at
		 FROM payments WHERE order_id = ? ORDER BY id ASC`,
		order.ID,
	).Scan(&order.Payments).Error
}

func (r *repo) DeleteChildren(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM order_item_modifiers
		 WHERE order_item_id IN (SELECT id FROM order_items WHERE order_id = ?)`,
		orderID,
	).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM order_items WHERE order_id = ?`, orderID,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM payments WHERE order_id = ?`, orderID,
	).Error
}

func (r *repo) UpdateHeader(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET brand_id = ?, branch_id = ?, device_id = ?, customer_id = ?,
		     status = ?, subtotal = ?, tax_total = ?, discount_total = ?,
		     net_total = ?, discount_kind = ?, discount_value = ?,
		     voided_by_id = ?, updated_at = ?, closed_at = ?, voided_at = ?
		 WHERE id = ?`,
		order.BrandID,
		order.BranchID,
		order.DeviceID,
		order.CustomerID,
		order.Status,
		order.Subtotal,
		order.TaxTotal,
		order.DiscountTotal,
		order.NetTotal,
		order.DiscountKind,
		order.DiscountValue,
		order.VoidedByID,
		order.UpdatedAt,
		order.ClosedAt,
		order.VoidedAt,
		order.ID,
	).Error
}

func (r *repo) LastOrderNo(ctx context.Context, db *gorm.DB, businessDate string) (string, error) {
	var row struct {
		OrderNo string
	}
	// Sequences are zero-padded to four digits but keep growing past 9999,
	// so length must order before the lexical compare.
	err := db.WithContext(ctx).Raw(
		`SELECT order_no FROM orders
		 WHERE business_date = ?
		 ORDER BY LENGTH(order_no) DESC, order_no DESC
		 LIMIT 1
		 FOR UPDATE`,
		businessDate,
	).Scan(&row).Error
	if err != nil {
		return "", err
	}
	return row.OrderNo, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Order, error) {
	stmt := db.WithContext(ctx).Model(&domain.Order{})
	if filter.BranchID != 0 {
		stmt = stmt.Where("branch_id = ?", filter.BranchID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.BusinessDate != "" {
		stmt = stmt.Where("business_date = ?", filter.BusinessDate)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var orders []domain.Order
	err := stmt.Order("created_at desc, id desc").Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
