package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwfit/pos-backend-sub000/internal/catalog"
	orderchannel "github.com/dwfit/pos-backend-sub000/internal/order/channel"
	orderdomain "github.com/dwfit/pos-backend-sub000/internal/order/domain"
)

type fakeOrderService struct {
	createCalls int
	lastReq     orderdomain.BuildRequest
	created     *orderdomain.Order
	createErr   error
	getErr      error
	voidErr     error
}

func (f *fakeOrderService) Create(ctx context.Context, req orderdomain.BuildRequest) (*orderdomain.Order, error) {
	f.createCalls++
	f.lastReq = req
	_ = ctx
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeOrderService) Close(ctx context.Context, orderID snowflake.ID, req orderdomain.CloseRequest) (orderdomain.CloseResult, error) {
	_ = ctx
	_ = orderID
	_ = req
	return orderdomain.CloseResult{Order: f.created}, nil
}

func (f *fakeOrderService) Void(ctx context.Context, orderID, voidedBy snowflake.ID) (*orderdomain.Order, error) {
	_ = ctx
	_ = orderID
	_ = voidedBy
	if f.voidErr != nil {
		return nil, f.voidErr
	}
	return f.created, nil
}

func (f *fakeOrderService) Accept(ctx context.Context, orderID snowflake.ID) (*orderdomain.Order, error) {
	_ = ctx
	_ = orderID
	return f.created, nil
}

func (f *fakeOrderService) Decline(ctx context.Context, orderID snowflake.ID) (*orderdomain.Order, error) {
	_ = ctx
	_ = orderID
	return f.created, nil
}

func (f *fakeOrderService) Get(ctx context.Context, orderID snowflake.ID) (*orderdomain.Order, error) {
	_ = ctx
	_ = orderID
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.created, nil
}

func (f *fakeOrderService) List(ctx context.Context, filter orderdomain.ListFilter) ([]orderdomain.Order, error) {
	_ = ctx
	_ = filter
	return nil, nil
}

type staticDirectory struct {
	branch *catalog.Branch
	device *catalog.Device
}

func (d *staticDirectory) BranchByID(ctx context.Context, id snowflake.ID) (*catalog.Branch, error) {
	_ = ctx
	if d.branch == nil || d.branch.ID != id {
		return nil, catalog.ErrBranchNotFound
	}
	return d.branch, nil
}

func (d *staticDirectory) ResolveBranch(ctx context.Context, ref string) (*catalog.Branch, error) {
	_ = ctx
	_ = ref
	if d.branch == nil {
		return nil, catalog.ErrBranchNotFound
	}
	return d.branch, nil
}

func (d *staticDirectory) DeviceByID(ctx context.Context, id snowflake.ID) (*catalog.Device, error) {
	_ = ctx
	if d.device == nil || d.device.ID != id {
		return nil, catalog.ErrDeviceNotFound
	}
	return d.device, nil
}

func newOrderTestRouter(orderSvc orderdomain.Service, dir catalog.Directory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := &Server{
		orderSvc:   orderSvc,
		normalizer: orderchannel.NewNormalizer(dir),
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	srv.engine = router
	srv.registerOrderRoutes()
	srv.registerPOSRoutes()
	return router
}

func TestOrderRoutesRequireIdentity(t *testing.T) {
	router := newOrderTestRouter(&fakeOrderService{}, &staticDirectory{})

	req := httptest.NewRequest(http.MethodPost, "/pos/orders", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateOrderPOSReturnsCreated(t *testing.T) {
	branch := &catalog.Branch{ID: snowflake.ID(20), BrandID: snowflake.ID(10), Name: "Olaya"}
	svc := &fakeOrderService{created: &orderdomain.Order{
		ID:       snowflake.ID(900),
		BrandID:  snowflake.ID(10),
		BranchID: snowflake.ID(20),
		Status:   orderdomain.StatusActive,
	}}
	router := newOrderTestRouter(svc, &staticDirectory{branch: branch})

	body := `{"branch_id":"20","device_id":"30","order_type":"DINE_IN","lines":[{"product_id":"1","quantity":1,"unit_price":"10.00"}]}`
	req := httptest.NewRequest(http.MethodPost, "/pos/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "77")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	require.Equal(t, 1, svc.createCalls)
	assert.Equal(t, orderdomain.ChannelPOS, svc.lastReq.Channel)
	assert.Equal(t, branch.BrandID, svc.lastReq.BrandID, "brand derived from branch")

	var envelope struct {
		Data orderdomain.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, snowflake.ID(900), envelope.Data.ID)
}

func TestCreateOrderRejectsMalformedBody(t *testing.T) {
	svc := &fakeOrderService{}
	router := newOrderTestRouter(svc, &staticDirectory{})

	req := httptest.NewRequest(http.MethodPost, "/pos/orders", bytes.NewBufferString(`{"lines":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "77")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, svc.createCalls, "service not called on malformed body")

	var envelope errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "validation_error", envelope.Error.Type)
}

func TestVoidOrderMapsConflict(t *testing.T) {
	svc := &fakeOrderService{voidErr: orderdomain.ErrOrderNotVoidable}
	router := newOrderTestRouter(svc, &staticDirectory{})

	req := httptest.NewRequest(http.MethodPost, "/orders/123/void", nil)
	req.Header.Set("X-User-ID", "77")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusConflict, resp.Code)

	var envelope errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, orderdomain.ErrOrderNotVoidable.Error(), envelope.Error.Message)
}

func TestGetOrderMapsNotFound(t *testing.T) {
	svc := &fakeOrderService{getErr: orderdomain.ErrOrderNotFound}
	router := newOrderTestRouter(svc, &staticDirectory{})

	req := httptest.NewRequest(http.MethodGet, "/orders/123", nil)
	req.Header.Set("X-User-ID", "77")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateOrderCallCenterBrandConflictIsForbidden(t *testing.T) {
	dir := &staticDirectory{
		branch: &catalog.Branch{ID: snowflake.ID(20), BrandID: snowflake.ID(10), Name: "Olaya"},
		device: &catalog.Device{ID: snowflake.ID(30), BranchID: snowflake.ID(20), BrandID: snowflake.ID(10)},
	}
	svc := &fakeOrderService{}
	router := newOrderTestRouter(svc, dir)

	body := `{"brand_id":"99","device_id":"30","lines":[{"product_id":"1","quantity":1,"unit_price":"10.00"}]}`
	req := httptest.NewRequest(http.MethodPost, "/callcenter/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "77")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())
	assert.Zero(t, svc.createCalls, "service not called on brand conflict")
}
