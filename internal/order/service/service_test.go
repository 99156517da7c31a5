package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dwfit/pos-backend-sub000/internal/catalog"
	"github.com/dwfit/pos-backend-sub000/internal/clock"
	discountdomain "github.com/dwfit/pos-backend-sub000/internal/discount/domain"
	discountrepo "github.com/dwfit/pos-backend-sub000/internal/discount/repository"
	discountservice "github.com/dwfit/pos-backend-sub000/internal/discount/service"
	"github.com/dwfit/pos-backend-sub000/internal/events"
	"github.com/dwfit/pos-backend-sub000/internal/money"
	"github.com/dwfit/pos-backend-sub000/internal/order/domain"
	"github.com/dwfit/pos-backend-sub000/internal/order/repository"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// captureEmitter records emitted lifecycle events for assertions.
type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(event events.Event) {
	c.events = append(c.events, event)
}

func (c *captureEmitter) last() events.Event {
	if len(c.events) == 0 {
		return events.Event{}
	}
	return c.events[len(c.events)-1]
}

type fixture struct {
	svc     *Service
	db      *gorm.DB
	node    *snowflake.Node
	clk     *clock.FakeClock
	emitted *captureEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	// One shared-cache memory database per test so every pooled connection
	// sees the same schema.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	// SQLite support hack: remove FOR UPDATE clauses
	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			newSQL := strings.ReplaceAll(sql, "FOR UPDATE SKIP LOCKED", "")
			newSQL = strings.ReplaceAll(newSQL, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(newSQL)
		}
	}
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("sqlite_skip_locked", stripForUpdate))
	require.NoError(t, db.Callback().Row().Before("gorm:row").Register("sqlite_skip_locked_row", stripForUpdate))

	require.NoError(t, db.AutoMigrate(
		&domain.Order{},
		&domain.OrderItem{},
		&domain.OrderItemModifier{},
		&domain.Payment{},
		&discountdomain.Discount{},
		&discountdomain.DiscountBranch{},
		&discountdomain.DiscountCategory{},
		&discountdomain.DiscountProductSize{},
		&catalog.ProductPrice{},
		&catalog.ModifierItem{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	emitted := &captureEmitter{}

	discounts := discountservice.New(discountservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  discountrepo.Provide(),
	})

	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      repository.Provide(),
		Discounts: discounts,
		Rates:     money.FixedRateProvider{Rate: d("0.15")},
		Catalog:   catalog.NewLookup(db),
		Clock:     clk,
		Events:    emitted,
	}).(*Service)

	return &fixture{svc: svc, db: db, node: node, clk: clk, emitted: emitted}
}

func (f *fixture) buildRequest(channel domain.Channel, payments []domain.BuildPayment) domain.BuildRequest {
	return domain.BuildRequest{
		BrandID:   f.node.Generate(),
		BranchID:  f.node.Generate(),
		DeviceID:  f.node.Generate(),
		Channel:   channel,
		OrderType: domain.OrderTypeDineIn,
		Lines: []domain.BuildLine{
			{ProductID: f.node.Generate(), Quantity: d("2"), UnitPrice: d("10.00")},
			{ProductID: f.node.Generate(), Quantity: d("1"), UnitPrice: d("5.00")},
		},
		Payments: payments,
	}
}

func TestCreate_POSWithoutPaymentsIsActive(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusActive, order.Status)
	assert.Equal(t, "ORD-20260314-0001", order.OrderNo)
	assert.Empty(t, order.Payments)
	assert.Equal(t, events.TypeOrderCreated, f.emitted.last().EventType)
	assert.Equal(t, "ACTIVE", f.emitted.last().Status)

	second, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260314-0002", second.OrderNo)
}

func TestCreate_POSWithPaymentsClosesAtomically(t *testing.T) {
	f := newFixture(t)

	// 2 x 10.00 + 1 x 5.00 at 15% inclusive, cash tendered 28.75.
	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, []domain.BuildPayment{
		{Method: "CASH", Amount: d("28.75")},
	}))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusClosed, order.Status)
	assert.True(t, order.Subtotal.Equal(d("21.74")), "subtotal %s", order.Subtotal)
	assert.True(t, order.TaxTotal.Equal(d("3.26")), "tax %s", order.TaxTotal)
	assert.True(t, order.DiscountTotal.IsZero())
	assert.True(t, order.NetTotal.Equal(d("25.00")), "net %s", order.NetTotal)
	require.NotNil(t, order.ClosedAt)

	stored, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	require.Len(t, stored.Payments, 1)
	assert.True(t, stored.Payments[0].Amount.Equal(d("28.75")))
}

func TestCreate_NetEqualsSubtotalPlusTaxMinusDiscount(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)

	want := order.Subtotal.Add(order.TaxTotal).Sub(order.DiscountTotal)
	assert.True(t, money.Equalish(order.NetTotal, want))
}

func TestCreate_CallCenterAlwaysPending(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelCallCenter, []domain.BuildPayment{
		{Method: "CASH", Amount: d("25.00")},
	}))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Empty(t, order.Payments, "payment rows exist only for CLOSED orders")
	assert.Equal(t, "PENDING", f.emitted.last().Status)
}

func TestAcceptDecline_PendingOnly(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelCallCenter, nil))
	require.NoError(t, err)

	accepted, err := f.svc.Accept(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, accepted.Status)
	assert.Equal(t, events.TypeOrderAccepted, f.emitted.last().EventType)

	_, err = f.svc.Accept(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotPending)
	_, err = f.svc.Decline(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotPending)
}

func TestDecline_IsTerminal(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelCallCenter, nil))
	require.NoError(t, err)

	declined, err := f.svc.Decline(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeclined, declined.Status)

	_, err = f.svc.Accept(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotPending)
	_, err = f.svc.Close(context.Background(), order.ID, closeRequest())
	assert.ErrorIs(t, err, domain.ErrOrderNotActive)
}

func closeRequest() domain.CloseRequest {
	node, _ := snowflake.NewNode(9)
	return domain.CloseRequest{
		Lines: []domain.BuildLine{
			{ProductID: node.Generate(), Quantity: d("2"), UnitPrice: d("10.00")},
			{ProductID: node.Generate(), Quantity: d("1"), UnitPrice: d("5.00")},
		},
		Payments: []domain.BuildPayment{{Method: "CASH", Amount: d("25.00")}},
	}
}

func TestClose_ReplacesItemsAndPaymentsWholesale(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)
	originalItemIDs := map[snowflake.ID]bool{}
	for _, item := range order.Items {
		originalItemIDs[item.ID] = true
	}

	result, err := f.svc.Close(context.Background(), order.ID, domain.CloseRequest{
		Lines: []domain.BuildLine{
			{ProductID: f.node.Generate(), Quantity: d("1"), UnitPrice: d("46.00")},
		},
		Payments: []domain.BuildPayment{{Method: "CARD", Amount: d("46.00")}},
	})
	require.NoError(t, err)
	assert.False(t, result.AlreadyClosed)
	assert.Equal(t, domain.StatusClosed, result.Order.Status)

	stored, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.False(t, originalItemIDs[stored.Items[0].ID], "close must replace, not merge, the item set")
	require.Len(t, stored.Payments, 1)
	assert.Equal(t, "CARD", stored.Payments[0].Method)
	assert.Equal(t, events.TypeOrderClosed, f.emitted.last().EventType)
}

func TestClose_SecondCallIsDeterministicNoOp(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)

	first, err := f.svc.Close(context.Background(), order.ID, closeRequest())
	require.NoError(t, err)
	require.False(t, first.AlreadyClosed)
	eventsBefore := len(f.emitted.events)

	second, err := f.svc.Close(context.Background(), order.ID, domain.CloseRequest{
		Lines:    []domain.BuildLine{{ProductID: f.node.Generate(), Quantity: d("1"), UnitPrice: d("99.00")}},
		Payments: []domain.BuildPayment{{Method: "CARD", Amount: d("99.00")}},
	})
	require.NoError(t, err)
	assert.True(t, second.AlreadyClosed)
	assert.True(t, second.Order.NetTotal.Equal(first.Order.NetTotal), "no-op close must not recompute")
	require.Len(t, second.Order.Items, len(first.Order.Items))
	assert.Len(t, f.emitted.events, eventsBefore, "no-op close emits nothing")
}

func TestClose_PendingOrderConflicts(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelCallCenter, nil))
	require.NoError(t, err)

	_, err = f.svc.Close(context.Background(), order.ID, closeRequest())
	assert.ErrorIs(t, err, domain.ErrOrderNotActive)
}

func TestClose_RequiresPayment(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)

	req := closeRequest()
	req.Payments = nil
	_, err = f.svc.Close(context.Background(), order.ID, req)
	assert.ErrorIs(t, err, domain.ErrPaymentRequired)
}

func TestClose_ClientTotalsReconciliation(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)

	req := closeRequest()
	req.ClientTotals = &domain.ClientTotals{
		Subtotal: d("19.00"),
		TaxTotal: d("3.26"),
		NetTotal: d("25.00"),
	}
	_, err = f.svc.Close(context.Background(), order.ID, req)
	assert.ErrorIs(t, err, domain.ErrTotalsMismatch)

	// Within one minor unit per figure the close goes through.
	req.ClientTotals = &domain.ClientTotals{
		Subtotal: d("21.73"),
		TaxTotal: d("3.27"),
		NetTotal: d("25.00"),
	}
	result, err := f.svc.Close(context.Background(), order.ID, req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, result.Order.Status)
}

func TestClose_AppliesRequestedDiscount(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)

	req := closeRequest()
	req.Discount = &discountdomain.RequestedDiscount{
		Kind:  discountdomain.TypeFixed,
		Value: d("5.00"),
	}
	result, err := f.svc.Close(context.Background(), order.ID, req)
	require.NoError(t, err)

	closed := result.Order
	assert.True(t, closed.DiscountTotal.Equal(d("5.00")), "discount %s", closed.DiscountTotal)
	assert.True(t, closed.NetTotal.Equal(d("20.00")), "net %s", closed.NetTotal)
	require.NotNil(t, closed.DiscountKind)
	assert.Equal(t, discountdomain.TypeFixed, *closed.DiscountKind)
}

func TestClose_MalformedDiscountDegradesToZero(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)

	req := closeRequest()
	req.Discount = &discountdomain.RequestedDiscount{
		Kind:  discountdomain.Type("BOGOF"),
		Value: d("5.00"),
	}
	result, err := f.svc.Close(context.Background(), order.ID, req)
	require.NoError(t, err, "malformed discount must not fail the close")
	assert.True(t, result.Order.DiscountTotal.IsZero())
	assert.True(t, result.Order.NetTotal.Equal(d("25.00")))
}

func TestVoid_ActiveAndPendingOnly(t *testing.T) {
	f := newFixture(t)
	voidedBy := f.node.Generate()

	active, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)

	voided, err := f.svc.Void(context.Background(), active.ID, voidedBy)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVoid, voided.Status)
	require.NotNil(t, voided.VoidedByID)
	assert.Equal(t, voidedBy, *voided.VoidedByID)
	assert.Equal(t, events.TypeOrderVoided, f.emitted.last().EventType)

	// Double void is a conflict, not a no-op.
	_, err = f.svc.Void(context.Background(), active.ID, voidedBy)
	assert.ErrorIs(t, err, domain.ErrOrderNotVoidable)
}

func TestVoid_ClosedOrderConflicts(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, []domain.BuildPayment{
		{Method: "CASH", Amount: d("25.00")},
	}))
	require.NoError(t, err)
	require.Equal(t, domain.StatusClosed, order.Status)

	_, err = f.svc.Void(context.Background(), order.ID, f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrOrderNotVoidable)
}

func TestCallCenterFlow_PendingAcceptClose(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelCallCenter, []domain.BuildPayment{
		{Method: "CASH", Amount: d("25.00")},
	}))
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, order.Status)

	_, err = f.svc.Close(context.Background(), order.ID, closeRequest())
	require.ErrorIs(t, err, domain.ErrOrderNotActive, "pending orders need acceptance before close")

	_, err = f.svc.Accept(context.Background(), order.ID)
	require.NoError(t, err)

	result, err := f.svc.Close(context.Background(), order.ID, closeRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, result.Order.Status)
	assert.True(t, result.Order.NetTotal.Equal(d("25.00")))
}

func TestCreate_LooksUpCatalogPriceWhenAbsent(t *testing.T) {
	f := newFixture(t)
	productID := f.node.Generate()
	require.NoError(t, f.db.Create(&catalog.ProductPrice{
		ID:        f.node.Generate(),
		ProductID: productID,
		Price:     d("11.50"),
	}).Error)

	req := f.buildRequest(domain.ChannelPOS, nil)
	req.Lines = []domain.BuildLine{{ProductID: productID, Quantity: d("2")}}

	order, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitPrice.Equal(d("11.50")))
	assert.True(t, order.Items[0].LineTotal.Equal(d("23.00")))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	req := f.buildRequest(domain.ChannelPOS, nil)
	req.Channel = domain.Channel("KIOSK")
	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidChannel)

	req = f.buildRequest(domain.ChannelPOS, nil)
	req.Lines = nil
	_, err = f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrLineRequired)

	req = f.buildRequest(domain.ChannelPOS, nil)
	req.DeviceID = 0
	_, err = f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrDeviceRequired)

	req = f.buildRequest(domain.ChannelPOS, nil)
	req.Lines[0].Quantity = d("0")
	_, err = f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestList_FiltersByStatusAndBranch(t *testing.T) {
	f := newFixture(t)

	open := f.buildRequest(domain.ChannelPOS, nil)
	_, err := f.svc.Create(context.Background(), open)
	require.NoError(t, err)

	closed := f.buildRequest(domain.ChannelPOS, []domain.BuildPayment{{Method: "CASH", Amount: d("25.00")}})
	_, err = f.svc.Create(context.Background(), closed)
	require.NoError(t, err)

	active, err := f.svc.List(context.Background(), domain.ListFilter{Status: domain.StatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.BranchID, active[0].BranchID)

	scoped, err := f.svc.List(context.Background(), domain.ListFilter{BranchID: closed.BranchID})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, domain.StatusClosed, scoped[0].Status)
}

func TestCreate_OrderNoSequencePastFourDigits(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
		require.NoError(t, err)
	}

	// Lexically ORD-...-9999 sorts above ORD-...-10000, so the sequence
	// read has to order numerically to keep counting.
	require.NoError(t, f.db.Exec(`UPDATE orders SET order_no = 'ORD-20260314-9999' WHERE order_no = 'ORD-20260314-0001'`).Error)
	require.NoError(t, f.db.Exec(`UPDATE orders SET order_no = 'ORD-20260314-10000' WHERE order_no = 'ORD-20260314-0002'`).Error)

	order, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260314-10001", order.OrderNo)
}

// staleSeqRepo pretends the first sequence read ran before a competing
// create committed, replaying the race on a business date's first order.
type staleSeqRepo struct {
	domain.Repository
	stale int
}

func (r *staleSeqRepo) LastOrderNo(ctx context.Context, db *gorm.DB, businessDate string) (string, error) {
	if r.stale > 0 {
		r.stale--
		return "", nil
	}
	return r.Repository.LastOrderNo(ctx, db, businessDate)
}

func TestCreate_RemintsOrderNoAfterCollision(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)
	require.Equal(t, "ORD-20260314-0001", first.OrderNo)

	racing := New(Params{
		DB:        f.db,
		Log:       zap.NewNop(),
		GenID:     f.node,
		Repo:      &staleSeqRepo{Repository: repository.Provide(), stale: 1},
		Discounts: f.svc.discounts,
		Rates:     money.FixedRateProvider{Rate: d("0.15")},
		Catalog:   catalog.NewLookup(f.db),
		Clock:     f.clk,
		Events:    f.emitted,
	}).(*Service)

	// The stale read mints ORD-20260314-0001 again; the unique index
	// rejects it and the insert is retried with a fresh sequence.
	order, err := racing.Create(context.Background(), f.buildRequest(domain.ChannelPOS, nil))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260314-0002", order.OrderNo)
}
