package services

import (
	"context"
	"time"

	"ticket-shop/models"
)

// OrderStore persists orders and their items. CreateOrder saves the order
// and every item as one unit; a colliding order number surfaces as
// status.ErrDuplicateOrderNumber.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	OrderByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderNumber, orderStatus, paymentStatus string) error
	MarkPaid(ctx context.Context, orderNumber, tradeNo string, paidAt time.Time) error
	ListByBuyer(ctx context.Context, buyer string, limit int) ([]*models.Order, error)
}

// InventoryStore reads ticket types and adjusts availability at settlement.
type InventoryStore interface {
	TicketTypeByID(ctx context.Context, id string) (*models.TicketType, error)
	DecrementAvailability(ctx context.Context, id string, qty int) error
}

// TicketStore persists issued tickets.
type TicketStore interface {
	CountByOrderItem(ctx context.Context, orderItemID string) (int, error)
	CreateBatch(ctx context.Context, tickets []*models.IssuedTicket) error
	ListByOrder(ctx context.Context, orderID string) ([]*models.IssuedTicket, error)
}

// Stores bundles the persistence surfaces. Atomic runs fn against a
// transaction-scoped Stores; everything fn touches commits or rolls back
// together.
type Stores interface {
	Orders() OrderStore
	Inventory() InventoryStore
	Tickets() TicketStore
	Atomic(ctx context.Context, fn func(tx Stores) error) error
}
