package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ticket-shop/internal/services/tradenum"
	"ticket-shop/internal/status"
	"ticket-shop/models"
	"ticket-shop/monitoring"

	"github.com/shopspring/decimal"
)

// OrderService assembles carts into persisted orders. Prices always come
// from the inventory record, never from the client.
type OrderService struct {
	stores  Stores
	retries int

	// now is swapped in tests
	now func() time.Time
}

func NewOrderService(stores Stores, retries int) *OrderService {
	if retries <= 0 {
		retries = 3
	}
	return &OrderService{
		stores:  stores,
		retries: retries,
		now:     time.Now,
	}
}

// CreateOrder validates the cart, resolves each line against inventory,
// computes totals and persists the order with its items atomically. The
// order number is regenerated on a uniqueness conflict, bounded by retries.
func (s *OrderService) CreateOrder(ctx context.Context, buyer string, lines []models.CartLine) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, status.Invalid("lines", "cart is empty")
	}
	for i, line := range lines {
		if line.TicketTypeID == "" {
			return nil, status.Invalid(fmt.Sprintf("lines[%d].ticket_type_id", i), "required")
		}
		if line.Quantity <= 0 {
			return nil, status.Invalid(fmt.Sprintf("lines[%d].quantity", i), "must be positive")
		}
	}

	order := &models.Order{
		Buyer:         buyer,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}

	total := decimal.Zero
	for _, line := range lines {
		tt, err := s.stores.Inventory().TicketTypeByID(ctx, line.TicketTypeID)
		if err != nil {
			return nil, err
		}

		subtotal := tt.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		order.Items = append(order.Items, models.OrderItem{
			TicketTypeID: tt.ID,
			Quantity:     line.Quantity,
			UnitPrice:    tt.Price,
			Subtotal:     subtotal,
		})
		total = total.Add(subtotal)
	}
	order.TotalAmount = total

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		number, err := tradenum.NewOrderNumber(s.now())
		if err != nil {
			return nil, fmt.Errorf("createOrder: order number: %v", err)
		}
		order.OrderNumber = number

		err = s.stores.Atomic(ctx, func(tx Stores) error {
			return tx.Orders().CreateOrder(ctx, order)
		})
		if err == nil {
			monitoring.TrackOrderCreated("ok")
			slog.Info("order created", "order_number", order.OrderNumber, "total", order.TotalAmount, "items", len(order.Items))
			return order, nil
		}
		if !errors.Is(err, status.ErrDuplicateOrderNumber) {
			monitoring.TrackOrderCreated("error")
			return nil, err
		}
		lastErr = err
	}

	monitoring.TrackOrderCreated("conflict")
	return nil, lastErr
}

func (s *OrderService) GetOrderByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.stores.Orders().OrderByOrderNumber(ctx, orderNumber)
}

// UpdateOrderStatus applies a manual status change. Transitions away from a
// terminal state are rejected; pending→pending is a no-op.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderNumber, orderStatus, paymentStatus string) error {
	order, err := s.stores.Orders().OrderByOrderNumber(ctx, orderNumber)
	if err != nil {
		return err
	}

	if order.Terminal() && order.Status != orderStatus {
		return status.ErrConflict
	}
	if order.Status == orderStatus && order.PaymentStatus == paymentStatus {
		return nil
	}

	return s.stores.Orders().UpdateStatus(ctx, orderNumber, orderStatus, paymentStatus)
}

func (s *OrderService) ListOrdersByBuyer(ctx context.Context, buyer string, limit int) ([]*models.Order, error) {
	if buyer == "" {
		return nil, status.Invalid("buyer", "required")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.stores.Orders().ListByBuyer(ctx, buyer, limit)
}
