package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/logging"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type failingOrders struct{}

func (failingOrders) List(context.Context) ([]domain.Order, error) { return nil, nil }

func (failingOrders) Append(context.Context, domain.Order) error {
	return errors.New("disk full")
}

func setup(t *testing.T) (*Service, *cartsvc.Store, orderrepo.Repository) {
	t.Helper()
	slots := storage.NewMemory()
	store := cartsvc.Open(context.Background(), cartrepo.NewSlots(slots), logging.Discard())
	orders := orderrepo.NewSlots(slots)
	svc := New(store, orders, logging.Discard(), WithClock(func() time.Time { return fixedNow }))
	return svc, store, orders
}

func cashForm() Input {
	return Input{Name: "Ada", Address: "1 Loop St", State: "CA", ZipCode: "94000", PaymentMethod: "cash"}
}

func TestPlaceOrder(t *testing.T) {
	svc, store, orders := setup(t)
	ctx := context.Background()
	store.Add(ctx, domain.LineItem{ProductID: 1, Name: "Mascara", Price: decimal.RequireFromString("9.99"), Quantity: 2})

	order, err := svc.PlaceOrder(ctx, cashForm())
	require.NoError(t, err)

	assert.Equal(t, "ORD-1773500966000", order.ID)
	assert.Equal(t, fixedNow, order.Date)
	assert.Equal(t, domain.PaymentCash, order.PaymentMethod)
	assert.Equal(t, "Ada", order.ShippingAddress.Name)
	require.Len(t, order.Items, 1)
	assert.True(t, decimal.RequireFromString("19.98").Equal(order.Total))

	assert.Empty(t, store.Snapshot().Items)

	stored, err := orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, order.ID, stored[0].ID)
}

func TestOrdersInSameMillisecondGetDistinctIDs(t *testing.T) {
	svc, store, orders := setup(t)
	ctx := context.Background()
	item := domain.LineItem{ProductID: 1, Name: "Mascara", Price: decimal.RequireFromString("9.99"), Quantity: 1}

	var ids []string
	for i := 0; i < 3; i++ {
		store.Add(ctx, item)
		order, err := svc.PlaceOrder(ctx, cashForm())
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}
	assert.Equal(t, []string{"ORD-1773500966000", "ORD-1773500966001", "ORD-1773500966002"}, ids)

	stored, err := orders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	svc, _, orders := setup(t)

	_, err := svc.PlaceOrder(context.Background(), cashForm())
	assert.ErrorIs(t, err, ErrEmptyCart)

	stored, _ := orders.List(context.Background())
	assert.Empty(t, stored)
}

func TestPlaceOrderValidation(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	store.Add(ctx, domain.LineItem{ProductID: 1, Price: decimal.NewFromInt(1), Quantity: 1})

	_, err := svc.PlaceOrder(ctx, Input{PaymentMethod: "card", Name: "  "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["name"])
	assert.Equal(t, "is required", verr.Fields["address"])
	assert.Equal(t, "is required", verr.Fields["cardNumber"])
	assert.Equal(t, "is required", verr.Fields["cvv"])
	assert.Len(t, store.Snapshot().Items, 1)
}

func TestCardFieldsOnlyRequiredForCard(t *testing.T) {
	svc, _, _ := setup(t)

	assert.NoError(t, svc.Validate(cashForm()))

	form := cashForm()
	form.PaymentMethod = "cheque"
	var verr *ValidationError
	require.ErrorAs(t, svc.Validate(form), &verr)
	assert.Equal(t, "must be one of: cash card", verr.Fields["paymentMethod"])

	form.PaymentMethod = "card"
	form.CardNumber, form.ExpiryDate, form.CVV = "4242424242424242", "12/30", "123"
	assert.NoError(t, svc.Validate(form))
}

func TestFailedAppendKeepsCart(t *testing.T) {
	slots := storage.NewMemory()
	store := cartsvc.Open(context.Background(), cartrepo.NewSlots(slots), logging.Discard())
	svc := New(store, failingOrders{}, logging.Discard())
	ctx := context.Background()
	store.Add(ctx, domain.LineItem{ProductID: 1, Price: decimal.NewFromInt(1), Quantity: 1})

	_, err := svc.PlaceOrder(ctx, cashForm())
	assert.ErrorContains(t, err, "disk full")
	assert.Len(t, store.Snapshot().Items, 1)
}
