package channel

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwfit/pos-backend-sub000/internal/catalog"
	"github.com/dwfit/pos-backend-sub000/internal/identity"
	"github.com/dwfit/pos-backend-sub000/internal/order/domain"
)

type fakeDirectory struct {
	branches map[snowflake.ID]*catalog.Branch
	byRef    map[string]*catalog.Branch
	devices  map[snowflake.ID]*catalog.Device
}

func (f *fakeDirectory) BranchByID(_ context.Context, id snowflake.ID) (*catalog.Branch, error) {
	if branch, ok := f.branches[id]; ok {
		return branch, nil
	}
	return nil, catalog.ErrBranchNotFound
}

func (f *fakeDirectory) ResolveBranch(_ context.Context, ref string) (*catalog.Branch, error) {
	if branch, ok := f.byRef[ref]; ok {
		return branch, nil
	}
	return nil, catalog.ErrBranchNotFound
}

func (f *fakeDirectory) DeviceByID(_ context.Context, id snowflake.ID) (*catalog.Device, error) {
	if device, ok := f.devices[id]; ok {
		return device, nil
	}
	return nil, catalog.ErrDeviceNotFound
}

func TestPayload_ToleratesFieldAliases(t *testing.T) {
	// Ids as strings, "items" instead of "lines", "price" instead of
	// "unit_price", "method_name" instead of "method".
	raw := `{
		"brand_id": "100",
		"branch_id": 200,
		"device_id": "300",
		"order_type": "TAKE_AWAY",
		"items": [
			{"product_id": "400", "quantity": "2", "price": 10.50,
			 "modifiers": [{"modifier_id": 500, "price": "1.25"}]}
		],
		"payments": [{"method_name": "VISA", "amount": "22.00", "method_id": "600"}],
		"discount": {"type": "FIXED", "value": "3"}
	}`
	var payload Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	n := NewNormalizer(&fakeDirectory{})
	req, err := n.NormalizeGeneric(context.Background(), payload, identity.Identity{})
	require.NoError(t, err)

	assert.Equal(t, snowflake.ID(100), req.BrandID)
	assert.Equal(t, snowflake.ID(200), req.BranchID)
	assert.Equal(t, snowflake.ID(300), req.DeviceID)
	assert.Equal(t, domain.OrderTypeTakeAway, req.OrderType)

	require.Len(t, req.Lines, 1)
	line := req.Lines[0]
	assert.Equal(t, snowflake.ID(400), line.ProductID)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("10.50")))
	require.Len(t, line.Modifiers, 1)
	assert.Equal(t, snowflake.ID(500), line.Modifiers[0].ModifierItemID)
	// Modifier quantity defaults to 1 when omitted.
	assert.True(t, line.Modifiers[0].Quantity.Equal(decimal.NewFromInt(1)))

	require.Len(t, req.Payments, 1)
	assert.Equal(t, "VISA", req.Payments[0].Method)
	require.NotNil(t, req.Payments[0].PaymentMethodID)
	assert.Equal(t, snowflake.ID(600), *req.Payments[0].PaymentMethodID)

	require.NotNil(t, req.Discount)
	assert.Equal(t, "FIXED", string(req.Discount.Kind))
}

func TestNormalizePOS_BranchFallbackChain(t *testing.T) {
	branch := &catalog.Branch{ID: 42, BrandID: 7, Code: "JED-01"}
	n := NewNormalizer(&fakeDirectory{byRef: map[string]*catalog.Branch{"JED-01": branch}})

	payload := Payload{
		DeviceID:   flexID(9),
		BranchCode: "JED-01",
		Lines:      []LooseLine{{ProductID: flexID(1), Quantity: flexDecimal(decimal.NewFromInt(1))}},
	}
	req, err := n.NormalizePOS(context.Background(), payload, identity.Identity{})
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), req.BranchID)
	assert.Equal(t, snowflake.ID(7), req.BrandID, "brand falls back to the resolved branch's brand")
	assert.Equal(t, domain.ChannelPOS, req.Channel)
}

func TestNormalizePOS_UnresolvableBranch(t *testing.T) {
	n := NewNormalizer(&fakeDirectory{})
	_, err := n.NormalizePOS(context.Background(), Payload{BranchCode: "NOPE"}, identity.Identity{})
	assert.ErrorIs(t, err, ErrBranchRef)
}

func TestNormalizeCallCenter_BranchFromDevice(t *testing.T) {
	dir := &fakeDirectory{
		branches: map[snowflake.ID]*catalog.Branch{42: {ID: 42, BrandID: 7}},
		devices:  map[snowflake.ID]*catalog.Device{9: {ID: 9, BranchID: 42, BrandID: 7}},
	}
	n := NewNormalizer(dir)

	req, err := n.NormalizeCallCenter(context.Background(), Payload{DeviceID: flexID(9)}, identity.Identity{})
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), req.BranchID)
	assert.Equal(t, snowflake.ID(7), req.BrandID)
	assert.Equal(t, domain.ChannelCallCenter, req.Channel)
}

func TestNormalizeCallCenter_BrandConflictRejected(t *testing.T) {
	dir := &fakeDirectory{
		branches: map[snowflake.ID]*catalog.Branch{42: {ID: 42, BrandID: 7}},
	}
	n := NewNormalizer(dir)

	_, err := n.NormalizeCallCenter(context.Background(), Payload{
		BranchID: flexID(42),
		BrandID:  flexID(8),
	}, identity.Identity{})
	assert.ErrorIs(t, err, ErrBrandMismatch)
}

func TestNormalizeGeneric_RequiresExplicitIDs(t *testing.T) {
	n := NewNormalizer(&fakeDirectory{})

	_, err := n.NormalizeGeneric(context.Background(), Payload{
		BranchID: flexID(42),
		DeviceID: flexID(9),
	}, identity.Identity{})
	assert.ErrorIs(t, err, domain.ErrBrandRequired)

	_, err = n.NormalizeGeneric(context.Background(), Payload{
		BrandID:  flexID(7),
		BranchID: flexID(42),
	}, identity.Identity{})
	assert.ErrorIs(t, err, domain.ErrDeviceRequired)
}

func TestBase_FallsBackToIdentityScope(t *testing.T) {
	n := NewNormalizer(&fakeDirectory{})
	ident := identity.Identity{BrandID: 7, BranchID: 42, DeviceID: 9}

	req, err := n.NormalizeGeneric(context.Background(), Payload{}, ident)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(7), req.BrandID)
	assert.Equal(t, snowflake.ID(42), req.BranchID)
	assert.Equal(t, snowflake.ID(9), req.DeviceID)
	assert.Equal(t, domain.OrderTypeDineIn, req.OrderType)
}

func TestNormalizeClose_MapsTotals(t *testing.T) {
	raw := `{
		"device_id": "9",
		"lines": [{"product_id": 1, "quantity": 2, "unit_price": "10.00"}],
		"payments": [{"method": "CASH", "amount": 25.00}],
		"totals": {"subtotal": "21.74", "tax_total": "3.26", "discount_total": 0, "net_total": "25.00"}
	}`
	var payload ClosePayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	req := NormalizeClose(payload)
	assert.Equal(t, snowflake.ID(9), req.DeviceID)
	require.Len(t, req.Lines, 1)
	require.Len(t, req.Payments, 1)
	require.NotNil(t, req.ClientTotals)
	assert.True(t, req.ClientTotals.Subtotal.Equal(decimal.RequireFromString("21.74")))
	assert.True(t, req.ClientTotals.NetTotal.Equal(decimal.RequireFromString("25.00")))
}
