package store

import (
	"context"

	"ticket-shop/internal/status"
	"ticket-shop/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

type ticketStore struct {
	app core.App
}

func (s *ticketStore) CountByOrderItem(ctx context.Context, orderItemID string) (int, error) {
	count, err := s.app.CountRecords("issued_tickets", dbx.HashExp{"order_item": orderItemID})
	if err != nil {
		return 0, status.Transient("issued_tickets.count", err)
	}
	return int(count), nil
}

func (s *ticketStore) CreateBatch(ctx context.Context, tickets []*models.IssuedTicket) error {
	collection, err := s.app.FindCollectionByNameOrId("issued_tickets")
	if err != nil {
		return status.Transient("issued_tickets.collection", err)
	}

	for _, ticket := range tickets {
		record := core.NewRecord(collection)
		record.Set("code", ticket.Code)
		record.Set("order", ticket.OrderID)
		record.Set("order_item", ticket.OrderItemID)
		record.Set("buyer", ticket.Buyer)
		record.Set("used", false)

		if err := s.app.SaveWithContext(ctx, record); err != nil {
			return status.Transient("issued_tickets.save", err)
		}
		ticket.ID = record.Id
		ticket.CreatedAt = record.GetDateTime("created").Time()
		ticket.UpdatedAt = record.GetDateTime("updated").Time()
	}

	return nil
}

func (s *ticketStore) ListByOrder(ctx context.Context, orderID string) ([]*models.IssuedTicket, error) {
	records, err := s.app.FindRecordsByFilter(
		"issued_tickets",
		"order = {:order}",
		"created",
		0,
		0,
		dbx.Params{"order": orderID},
	)
	if err != nil {
		return nil, status.Transient("issued_tickets.list", err)
	}

	tickets := make([]*models.IssuedTicket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, &models.IssuedTicket{
			ID:          record.Id,
			Code:        record.GetString("code"),
			OrderID:     record.GetString("order"),
			OrderItemID: record.GetString("order_item"),
			Buyer:       record.GetString("buyer"),
			Used:        record.GetBool("used"),
			CreatedAt:   record.GetDateTime("created").Time(),
			UpdatedAt:   record.GetDateTime("updated").Time(),
		})
	}
	return tickets, nil
}
