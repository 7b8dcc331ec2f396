package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ticket-shop/internal/status"
	"ticket-shop/models"
)

// fakeStores is an in-memory Stores implementation for service tests.
type fakeStores struct {
	mu sync.Mutex

	orders      map[string]*models.Order // keyed by order number
	ticketTypes map[string]*models.TicketType
	tickets     []*models.IssuedTicket

	nextID int

	// duplicateFirst rejects that many CreateOrder calls with a
	// uniqueness conflict to exercise the retry loop.
	duplicateFirst int
	createCalls    int

	// failAtomic makes every transaction fail with a transient error.
	failAtomic bool
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		orders:      make(map[string]*models.Order),
		ticketTypes: make(map[string]*models.TicketType),
	}
}

func (f *fakeStores) Orders() OrderStore        { return f }
func (f *fakeStores) Inventory() InventoryStore { return f }
func (f *fakeStores) Tickets() TicketStore      { return f }

func (f *fakeStores) Atomic(ctx context.Context, fn func(tx Stores) error) error {
	if f.failAtomic {
		return status.Transient("fake.atomic", fmt.Errorf("database unavailable"))
	}
	return fn(f)
}

func (f *fakeStores) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%04d", prefix, f.nextID)
}

func (f *fakeStores) addTicketType(tt *models.TicketType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticketTypes[tt.ID] = tt
}

func (f *fakeStores) CreateOrder(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.duplicateFirst > 0 {
		f.duplicateFirst--
		return status.ErrDuplicateOrderNumber
	}
	if _, exists := f.orders[order.OrderNumber]; exists {
		return status.ErrDuplicateOrderNumber
	}

	order.ID = f.id("ord")
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = f.id("itm")
		order.Items[i].OrderID = order.ID
	}

	f.orders[order.OrderNumber] = cloneOrder(order)
	return nil
}

func (f *fakeStores) OrderByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderNumber]
	if !ok {
		return nil, status.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (f *fakeStores) UpdateStatus(ctx context.Context, orderNumber, orderStatus, paymentStatus string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderNumber]
	if !ok {
		return status.ErrOrderNotFound
	}
	order.Status = orderStatus
	order.PaymentStatus = paymentStatus
	return nil
}

func (f *fakeStores) MarkPaid(ctx context.Context, orderNumber, tradeNo string, paidAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderNumber]
	if !ok {
		return status.ErrOrderNotFound
	}
	order.Status = models.OrderStatusPaid
	order.PaymentStatus = models.PaymentStatusCompleted
	order.TradeNo = tradeNo
	order.PaidAt = &paidAt
	return nil
}

func (f *fakeStores) ListByBuyer(ctx context.Context, buyer string, limit int) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Order
	for _, order := range f.orders {
		if order.Buyer == buyer {
			out = append(out, cloneOrder(order))
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStores) TicketTypeByID(ctx context.Context, id string) (*models.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tt, ok := f.ticketTypes[id]
	if !ok {
		return nil, status.ErrInventoryNotFound
	}
	cp := *tt
	return &cp, nil
}

func (f *fakeStores) DecrementAvailability(ctx context.Context, id string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tt, ok := f.ticketTypes[id]
	if !ok {
		return status.ErrInventoryNotFound
	}
	if tt.Available < qty {
		qty = tt.Available
	}
	tt.Available -= qty
	return nil
}

func (f *fakeStores) CountByOrderItem(ctx context.Context, orderItemID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, ticket := range f.tickets {
		if ticket.OrderItemID == orderItemID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStores) CreateBatch(ctx context.Context, tickets []*models.IssuedTicket) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ticket := range tickets {
		ticket.ID = f.id("tkt")
		ticket.CreatedAt = time.Now()
		cp := *ticket
		f.tickets = append(f.tickets, &cp)
	}
	return nil
}

func (f *fakeStores) ListByOrder(ctx context.Context, orderID string) ([]*models.IssuedTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.IssuedTicket
	for _, ticket := range f.tickets {
		if ticket.OrderID == orderID {
			cp := *ticket
			out = append(out, &cp)
		}
	}
	return out, nil
}

func cloneOrder(order *models.Order) *models.Order {
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	if order.PaidAt != nil {
		paidAt := *order.PaidAt
		cp.PaidAt = &paidAt
	}
	return &cp
}
