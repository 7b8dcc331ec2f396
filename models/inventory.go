package models

import (
	"github.com/shopspring/decimal"
)

// TicketType is a sellable allocation for a performance. The order pipeline
// only reads price and availability; catalog management lives elsewhere.
type TicketType struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Performance string          `json:"performance"`
	Price       decimal.Decimal `json:"price"`
	Available   int             `json:"available"`
	Status      string          `json:"status"` // available, soldout, unavailable
}
