package store

import (
	"context"
	"log/slog"

	"ticket-shop/internal/status"
	"ticket-shop/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

type inventoryStore struct {
	app core.App
}

func (s *inventoryStore) TicketTypeByID(ctx context.Context, id string) (*models.TicketType, error) {
	record, err := s.app.FindRecordById("ticket_types", id)
	if err != nil {
		return nil, status.ErrInventoryNotFound
	}

	return &models.TicketType{
		ID:          record.Id,
		Name:        record.GetString("name"),
		Performance: record.GetString("performance"),
		Price:       decimal.NewFromFloat(record.GetFloat("price")),
		Available:   record.GetInt("available"),
		Status:      record.GetString("status"),
	}, nil
}

// DecrementAvailability reduces the remaining allocation at settlement time.
// A shortfall clamps to zero and is logged rather than failing an order the
// buyer already paid for.
func (s *inventoryStore) DecrementAvailability(ctx context.Context, id string, qty int) error {
	record, err := s.app.FindRecordById("ticket_types", id)
	if err != nil {
		return status.ErrInventoryNotFound
	}

	available := record.GetInt("available")
	if available < qty {
		slog.Warn("ticket type oversold", "ticket_type", id, "available", available, "requested", qty)
		qty = available
	}

	record.Set("available", available-qty)
	if available-qty == 0 {
		record.Set("status", "soldout")
	}
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return status.Transient("ticket_types.decrement", err)
	}
	return nil
}
