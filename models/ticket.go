package models

import (
	"time"
)

// IssuedTicket is one redeemable ticket unit, created after its order settles
// as paid. Immutable except for the used flag.
type IssuedTicket struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	OrderID     string    `json:"order_id"`
	OrderItemID string    `json:"order_item_id"`
	Buyer       string    `json:"buyer,omitempty"`
	Used        bool      `json:"used"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
