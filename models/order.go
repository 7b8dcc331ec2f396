package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
	OrderStatusFailed  = "failed"

	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

type Order struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Buyer         string          `json:"buyer,omitempty"` // empty for guest checkout
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`         // pending, paid, failed
	PaymentStatus string          `json:"payment_status"` // pending, completed, failed
	TradeNo       string          `json:"trade_no,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []OrderItem     `json:"items"`
}

type OrderItem struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	TicketTypeID string          `json:"ticket_type_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// CartLine is the boundary-validated checkout input. Price and name are
// intentionally absent; the server-side ticket type is authoritative.
type CartLine struct {
	TicketTypeID string `json:"ticket_type_id"`
	Quantity     int    `json:"quantity"`
}

// Terminal reports whether the order already reached paid or failed.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusFailed
}

// ItemsTotal sums the item subtotals.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}
