package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dwfit/pos-backend-sub000/internal/catalog"
	"github.com/dwfit/pos-backend-sub000/internal/clock"
	discountdomain "github.com/dwfit/pos-backend-sub000/internal/discount/domain"
	"github.com/dwfit/pos-backend-sub000/internal/events"
	"github.com/dwfit/pos-backend-sub000/internal/money"
	"github.com/dwfit/pos-backend-sub000/internal/order/domain"
	"github.com/dwfit/pos-backend-sub000/pkg/db"
)

// orderNoRetries bounds re-mints after an order_no collision.
const orderNoRetries = 3

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Discounts discountdomain.Service
	Rates     money.DefaultTaxRateProvider
	Catalog   catalog.Lookup
	Clock     clock.Clock
	Events    events.Emitter
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	discounts discountdomain.Service
	rates     money.DefaultTaxRateProvider
	catalog   catalog.Lookup
	clock     clock.Clock
	events    events.Emitter
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("order.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		discounts: p.Discounts,
		rates:     p.Rates,
		catalog:   p.Catalog,
		clock:     p.Clock,
		events:    p.Events,
	}
}

// computedTotals is one priced order body: items with per-line inclusive
// splits plus the order aggregates. Gross is the tax-inclusive line sum the
// discount engine resolves against.
type computedTotals struct {
	Items         []domain.OrderItem
	Subtotal      decimal.Decimal
	TaxTotal      decimal.Decimal
	Gross         decimal.Decimal
	DiscountTotal decimal.Decimal
	NetTotal      decimal.Decimal
	Resolution    discountdomain.Resolution
}

func (s *Service) Create(ctx context.Context, req domain.BuildRequest) (*domain.Order, error) {
	if !req.Channel.Valid() {
		return nil, domain.ErrInvalidChannel
	}
	if !req.OrderType.Valid() {
		return nil, domain.ErrInvalidOrderType
	}
	if req.BrandID == 0 {
		return nil, domain.ErrBrandRequired
	}
	if req.BranchID == 0 {
		return nil, domain.ErrBranchRequired
	}
	if req.DeviceID == 0 {
		return nil, domain.ErrDeviceRequired
	}
	if len(req.Lines) == 0 {
		return nil, domain.ErrLineRequired
	}

	now := s.clock.Now()
	businessDate := strings.TrimSpace(req.BusinessDate)
	if businessDate == "" {
		businessDate = now.Format("2006-01-02")
	}

	status := domain.StatusActive
	if req.Channel == domain.ChannelCallCenter {
		// Call-center orders always await branch acceptance, even when the
		// caller supplies payment data up front.
		status = domain.StatusPending
	} else if len(req.Payments) > 0 {
		status = domain.StatusClosed
	}

	totals, err := s.computeTotals(ctx, req.BrandID, req.BranchID, req.OrderType, req.Lines, req.Discount, req.TaxRate)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:            s.genID.Generate(),
		BrandID:       req.BrandID,
		BranchID:      req.BranchID,
		DeviceID:      req.DeviceID,
		CustomerID:    req.CustomerID,
		Channel:       req.Channel,
		OrderType:     req.OrderType,
		Status:        status,
		BusinessDate:  businessDate,
		Subtotal:      totals.Subtotal,
		TaxTotal:      totals.TaxTotal,
		DiscountTotal: totals.DiscountTotal,
		NetTotal:      totals.NetTotal,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applyResolution(order, totals.Resolution)
	if status == domain.StatusClosed {
		closedAt := now
		order.ClosedAt = &closedAt
	}

	// Payment rows exist only for CLOSED orders; a PENDING call-center order
	// drops any payment data the caller sent along.
	var payments []domain.Payment
	if status == domain.StatusClosed {
		payments = buildPayments(s.genID, order.ID, req.Payments, now)
		for _, payment := range payments {
			if payment.Amount.IsNegative() {
				return nil, domain.ErrInvalidAmount
			}
		}
	}

	// LastOrderNo's FOR UPDATE locks nothing while the business date has no
	// rows, so two concurrent first creates can mint the same number. The
	// unique index on order_no catches the loser, which re-mints and retries.
	for attempt := 0; ; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			orderNo, err := s.nextOrderNo(ctx, tx, businessDate)
			if err != nil {
				return err
			}
			order.OrderNo = orderNo

			attachItems(order, totals.Items)
			if err := s.repo.InsertOrder(ctx, tx, order); err != nil {
				return err
			}
			if err := s.repo.InsertItems(ctx, tx, order.Items); err != nil {
				return err
			}
			return s.repo.InsertPayments(ctx, tx, payments)
		})
		if err == nil {
			break
		}
		if attempt < orderNoRetries && db.IsDuplicateKeyErr(err) {
			s.log.Warn("order number collision, re-minting",
				zap.String("order_no", order.OrderNo),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		return nil, err
	}
	order.Payments = payments

	s.emit(events.TypeOrderCreated, order)
	return order, nil
}

func (s *Service) Close(ctx context.Context, orderID snowflake.ID, req domain.CloseRequest) (domain.CloseResult, error) {
	if len(req.Payments) == 0 {
		return domain.CloseResult{}, domain.ErrPaymentRequired
	}
	if len(req.Lines) == 0 {
		return domain.CloseResult{}, domain.ErrLineRequired
	}

	var (
		result domain.CloseResult
		closed *domain.Order
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.LockByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}

		switch order.Status {
		case domain.StatusClosed:
			// A second close observes the committed state and changes
			// nothing; the caller gets the same deterministic answer as the
			// first.
			if err := s.repo.LoadChildren(ctx, tx, order); err != nil {
				return err
			}
			result = domain.CloseResult{Order: order, AlreadyClosed: true}
			return nil
		case domain.StatusActive:
		default:
			return domain.ErrOrderNotActive
		}

		if req.BrandID != 0 {
			order.BrandID = req.BrandID
		}
		if req.DeviceID != 0 {
			order.DeviceID = req.DeviceID
		}
		if order.BrandID == 0 {
			return domain.ErrBrandRequired
		}
		if order.DeviceID == 0 {
			return domain.ErrDeviceRequired
		}

		totals, err := s.computeTotals(ctx, order.BrandID, order.BranchID, order.OrderType, req.Lines, req.Discount, req.TaxRate)
		if err != nil {
			return err
		}
		if err := reconcileTotals(req.ClientTotals, totals); err != nil {
			return err
		}

		now := s.clock.Now()
		order.Status = domain.StatusClosed
		order.Subtotal = totals.Subtotal
		order.TaxTotal = totals.TaxTotal
		order.DiscountTotal = totals.DiscountTotal
		order.NetTotal = totals.NetTotal
		order.UpdatedAt = now
		order.ClosedAt = &now
		applyResolution(order, totals.Resolution)

		if err := s.repo.DeleteChildren(ctx, tx, order.ID); err != nil {
			return err
		}
		attachItems(order, totals.Items)
		if err := s.repo.InsertItems(ctx, tx, order.Items); err != nil {
			return err
		}
		payments := buildPayments(s.genID, order.ID, req.Payments, now)
		if err := s.repo.InsertPayments(ctx, tx, payments); err != nil {
			return err
		}
		order.Payments = payments

		if err := s.repo.UpdateHeader(ctx, tx, order); err != nil {
			return err
		}
		result = domain.CloseResult{Order: order}
		closed = order
		return nil
	})
	if err != nil {
		return domain.CloseResult{}, err
	}

	if closed != nil {
		s.emit(events.TypeOrderClosed, closed)
	}
	return result, nil
}

func (s *Service) Void(ctx context.Context, orderID snowflake.ID, voidedBy snowflake.ID) (*domain.Order, error) {
	order, err := s.transition(ctx, orderID, func(order *domain.Order) error {
		switch order.Status {
		case domain.StatusActive, domain.StatusPending:
		default:
			return domain.ErrOrderNotVoidable
		}
		now := s.clock.Now()
		order.Status = domain.StatusVoid
		order.UpdatedAt = now
		order.VoidedAt = &now
		if voidedBy != 0 {
			order.VoidedByID = &voidedBy
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(events.TypeOrderVoided, order)
	return order, nil
}

func (s *Service) Accept(ctx context.Context, orderID snowflake.ID) (*domain.Order, error) {
	order, err := s.transition(ctx, orderID, func(order *domain.Order) error {
		if order.Status != domain.StatusPending {
			return domain.ErrOrderNotPending
		}
		order.Status = domain.StatusActive
		order.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(events.TypeOrderAccepted, order)
	return order, nil
}

func (s *Service) Decline(ctx context.Context, orderID snowflake.ID) (*domain.Order, error) {
	order, err := s.transition(ctx, orderID, func(order *domain.Order) error {
		if order.Status != domain.StatusPending {
			return domain.ErrOrderNotPending
		}
		order.Status = domain.StatusDeclined
		order.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(events.TypeOrderDeclined, order)
	return order, nil
}

func (s *Service) Get(ctx context.Context, orderID snowflake.ID) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Order, error) {
	return s.repo.List(ctx, s.db, filter)
}

// transition locks the order, applies mutate, and persists the header. The
// FOR UPDATE lock serializes concurrent transitions against the same row.
func (s *Service) transition(ctx context.Context, orderID snowflake.ID, mutate func(*domain.Order) error) (*domain.Order, error) {
	var order *domain.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := s.repo.LockByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrOrderNotFound
		}
		if err := mutate(locked); err != nil {
			return err
		}
		if err := s.repo.UpdateHeader(ctx, tx, locked); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// computeTotals prices each line, splits inclusive tax per line, and asks
// the discount engine for the applicable amount. The tax side of each split
// absorbs rounding so the invariant net = subtotal + tax - discount holds
// exactly on every commit.
func (s *Service) computeTotals(
	ctx context.Context,
	brandID, branchID snowflake.ID,
	orderType domain.OrderType,
	lines []domain.BuildLine,
	requested *discountdomain.RequestedDiscount,
	taxRate *decimal.Decimal,
) (computedTotals, error) {
	rate, err := s.resolveRate(ctx, taxRate)
	if err != nil {
		return computedTotals{}, err
	}

	var (
		totals       computedTotals
		resolveLines []discountdomain.ResolveLine
	)
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return computedTotals{}, domain.ErrInvalidQuantity
		}
		unitPrice := line.UnitPrice
		if unitPrice.IsZero() {
			unitPrice, err = s.catalog.ProductPrice(ctx, line.ProductID, line.ProductSizeID)
			if err != nil {
				return computedTotals{}, err
			}
		}
		if unitPrice.IsNegative() {
			return computedTotals{}, domain.ErrInvalidAmount
		}

		gross := unitPrice.Mul(line.Quantity)
		item := domain.OrderItem{
			ID:        s.genID.Generate(),
			ProductID: line.ProductID,
			SizeLabel: line.SizeLabel,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		}
		for _, mod := range line.Modifiers {
			if !mod.Quantity.IsPositive() {
				return computedTotals{}, domain.ErrInvalidQuantity
			}
			price := mod.Price
			if price.IsZero() {
				price, err = s.catalog.ModifierPrice(ctx, mod.ModifierItemID)
				if err != nil {
					return computedTotals{}, err
				}
			}
			if price.IsNegative() {
				return computedTotals{}, domain.ErrInvalidAmount
			}
			item.Modifiers = append(item.Modifiers, domain.OrderItemModifier{
				ID:             s.genID.Generate(),
				ModifierItemID: mod.ModifierItemID,
				Quantity:       mod.Quantity,
				Price:          price,
			})
			gross = gross.Add(price.Mul(mod.Quantity))
		}
		gross = money.Round(gross)

		split, err := money.SplitInclusive(gross, rate)
		if err != nil {
			return computedTotals{}, err
		}
		item.TaxAmount = split.Tax
		item.LineTotal = gross
		totals.Items = append(totals.Items, item)
		totals.Subtotal = totals.Subtotal.Add(split.Net)
		totals.TaxTotal = totals.TaxTotal.Add(split.Tax)
		totals.Gross = totals.Gross.Add(gross)

		var sizeID snowflake.ID
		if line.ProductSizeID != nil {
			sizeID = *line.ProductSizeID
		}
		resolveLines = append(resolveLines, discountdomain.ResolveLine{
			LineID:        item.ID,
			ProductID:     line.ProductID,
			CategoryID:    line.CategoryID,
			ProductSizeID: sizeID,
			UnitPrice:     unitPrice,
			LineSubtotal:  gross,
		})
	}

	resolution, err := s.discounts.Resolve(ctx, discountdomain.ResolveRequest{
		BrandID:       brandID,
		BranchID:      branchID,
		OrderType:     string(orderType),
		Lines:         resolveLines,
		OrderSubtotal: totals.Gross,
		Requested:     requested,
	})
	if err != nil {
		return computedTotals{}, err
	}
	totals.Resolution = resolution
	totals.DiscountTotal = resolution.Amount
	if totals.DiscountTotal.GreaterThan(totals.Gross) {
		totals.DiscountTotal = totals.Gross
	}
	totals.NetTotal = totals.Subtotal.Add(totals.TaxTotal).Sub(totals.DiscountTotal)
	return totals, nil
}

func (s *Service) resolveRate(ctx context.Context, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		return money.RatePercentToFraction(*override)
	}
	return s.rates.DefaultRate(ctx)
}

// nextOrderNo mints ORD-<yyyymmdd>-<seq> for the business date. The highest
// issued number is read FOR UPDATE; collisions that slip past the lock are
// caught by the unique index and re-minted by Create.
func (s *Service) nextOrderNo(ctx context.Context, tx *gorm.DB, businessDate string) (string, error) {
	last, err := s.repo.LastOrderNo(ctx, tx, businessDate)
	if err != nil {
		return "", err
	}
	seq := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			seq = n + 1
		}
	}
	compact := strings.ReplaceAll(businessDate, "-", "")
	return fmt.Sprintf("ORD-%s-%04d", compact, seq), nil
}

func (s *Service) emit(eventType string, order *domain.Order) {
	if s.events == nil || order == nil {
		return
	}
	s.events.Emit(events.Event{
		EventType:    eventType,
		OrderID:      order.ID,
		BranchID:     order.BranchID,
		Status:       string(order.Status),
		Channel:      string(order.Channel),
		BusinessDate: order.BusinessDate,
		Totals: events.Totals{
			Subtotal:      order.Subtotal,
			TaxTotal:      order.TaxTotal,
			DiscountTotal: order.DiscountTotal,
			NetTotal:      order.NetTotal,
		},
	})
}

func applyResolution(order *domain.Order, resolution discountdomain.Resolution) {
	if resolution.IsZero() {
		order.DiscountKind = nil
		order.DiscountValue = nil
		return
	}
	kind := resolution.Kind
	value := resolution.Value
	order.DiscountKind = &kind
	order.DiscountValue = &value
}

func attachItems(order *domain.Order, items []domain.OrderItem) {
	for i := range items {
		items[i].OrderID = order.ID
		items[i].CreatedAt = order.UpdatedAt
		for j := range items[i].Modifiers {
			items[i].Modifiers[j].OrderItemID = items[i].ID
			items[i].Modifiers[j].CreatedAt = order.UpdatedAt
		}
	}
	order.Items = items
}

func buildPayments(genID *snowflake.Node, orderID snowflake.ID, payments []domain.BuildPayment, now time.Time) []domain.Payment {
	out := make([]domain.Payment, 0, len(payments))
	for _, payment := range payments {
		method := strings.TrimSpace(payment.Method)
		if method == "" {
			method = "CASH"
		}
		out = append(out, domain.Payment{
			ID:              genID.Generate(),
			OrderID:         orderID,
			PaymentMethodID: payment.PaymentMethodID,
			Method:          method,
			Amount:          payment.Amount,
			Reference:       payment.Reference,
			CreatedAt:       now,
		})
	}
	return out
}

// reconcileTotals checks client-sent totals against the recomputation
// within one minor currency unit per figure.
func reconcileTotals(client *domain.ClientTotals, totals computedTotals) error {
	if client == nil {
		return nil
	}
	if !money.Equalish(client.Subtotal, totals.Subtotal) ||
		!money.Equalish(client.TaxTotal, totals.TaxTotal) ||
		!money.Equalish(client.DiscountTotal, totals.DiscountTotal) ||
		!money.Equalish(client.NetTotal, totals.NetTotal) {
		return domain.ErrTotalsMismatch
	}
	return nil
}
