package services

import (
	"context"
	"strings"
	"testing"

	"ticket-shop/internal/status"
	"ticket-shop/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrderService() (*OrderService, *fakeStores) {
	stores := newFakeStores()
	stores.addTicketType(&models.TicketType{
		ID:          "tt5",
		Name:        "Stalls",
		Performance: "Evening show",
		Price:       decimal.RequireFromString("800.00"),
		Available:   100,
		Status:      "available",
	})
	return NewOrderService(stores, 3), stores
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	service, _ := setupOrderService()
	ctx := context.Background()

	order, err := service.CreateOrder(ctx, "buyer-1", []models.CartLine{
		{TicketTypeID: "tt5", Quantity: 2},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD"))
	assert.Len(t, order.OrderNumber, 17)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("1600.00")),
		"expected 1600.00, got %s", order.TotalAmount)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("800.00")))
	assert.True(t, order.TotalAmount.Equal(order.ItemsTotal()))
}

func TestOrderService_CreateOrder_UsesAuthoritativePrice(t *testing.T) {
	service, stores := setupOrderService()
	ctx := context.Background()

	// CartLine carries no price field at all; whatever a client sends
	// beyond id+quantity never reaches the service. The persisted price
	// must match the inventory record.
	order, err := service.CreateOrder(ctx, "", []models.CartLine{
		{TicketTypeID: "tt5", Quantity: 3},
	})
	require.NoError(t, err)

	tt := stores.ticketTypes["tt5"]
	assert.True(t, order.Items[0].UnitPrice.Equal(tt.Price))
	assert.True(t, order.TotalAmount.Equal(tt.Price.Mul(decimal.NewFromInt(3))))
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	service, _ := setupOrderService()
	ctx := context.Background()

	_, err := service.CreateOrder(ctx, "buyer-1", nil)
	assert.True(t, status.IsValidation(err))

	_, err = service.CreateOrder(ctx, "buyer-1", []models.CartLine{
		{TicketTypeID: "tt5", Quantity: 0},
	})
	assert.True(t, status.IsValidation(err))

	_, err = service.CreateOrder(ctx, "buyer-1", []models.CartLine{
		{TicketTypeID: "tt5", Quantity: -1},
	})
	assert.True(t, status.IsValidation(err))

	_, err = service.CreateOrder(ctx, "buyer-1", []models.CartLine{
		{TicketTypeID: "", Quantity: 1},
	})
	assert.True(t, status.IsValidation(err))
}

func TestOrderService_CreateOrder_UnknownTicketType(t *testing.T) {
	service, stores := setupOrderService()
	ctx := context.Background()

	_, err := service.CreateOrder(ctx, "buyer-1", []models.CartLine{
		{TicketTypeID: "missing", Quantity: 1},
	})
	assert.ErrorIs(t, err, status.ErrInventoryNotFound)

	// no partial order was persisted
	assert.Empty(t, stores.orders)
}

func TestOrderService_CreateOrder_RetriesOnDuplicateNumber(t *testing.T) {
	service, stores := setupOrderService()
	stores.duplicateFirst = 1
	ctx := context.Background()

	order, err := service.CreateOrder(ctx, "buyer-1", []models.CartLine{
		{TicketTypeID: "tt5", Quantity: 1},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, 2, stores.createCalls)
}

func TestOrderService_CreateOrder_GivesUpAfterBoundedRetries(t *testing.T) {
	service, stores := setupOrderService()
	stores.duplicateFirst = 3
	ctx := context.Background()

	_, err := service.CreateOrder(ctx, "buyer-1", []models.CartLine{
		{TicketTypeID: "tt5", Quantity: 1},
	})
	assert.ErrorIs(t, err, status.ErrDuplicateOrderNumber)
	assert.Equal(t, 3, stores.createCalls)
}

func TestOrderService_UpdateOrderStatus_MonotonicGuard(t *testing.T) {
	service, _ := setupOrderService()
	ctx := context.Background()

	order, err := service.CreateOrder(ctx, "buyer-1", []models.CartLine{
		{TicketTypeID: "tt5", Quantity: 1},
	})
	require.NoError(t, err)

	// pending -> paid is allowed
	require.NoError(t, service.UpdateOrderStatus(ctx, order.OrderNumber, models.OrderStatusPaid, models.PaymentStatusCompleted))

	// paid -> failed is rejected
	err = service.UpdateOrderStatus(ctx, order.OrderNumber, models.OrderStatusFailed, models.PaymentStatusFailed)
	assert.ErrorIs(t, err, status.ErrConflict)

	// paid -> paid is a silent no-op
	assert.NoError(t, service.UpdateOrderStatus(ctx, order.OrderNumber, models.OrderStatusPaid, models.PaymentStatusCompleted))
}

func TestOrderService_UpdateOrderStatus_NotFound(t *testing.T) {
	service, _ := setupOrderService()

	err := service.UpdateOrderStatus(context.Background(), "ORD00000000000000", models.OrderStatusPaid, models.PaymentStatusCompleted)
	assert.ErrorIs(t, err, status.ErrOrderNotFound)
}
