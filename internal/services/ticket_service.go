package services

import (
	"context"
	"fmt"
	"log/slog"

	"ticket-shop/internal/status"
	"ticket-shop/models"
	"ticket-shop/monitoring"
	"ticket-shop/utils"
)

// TicketService expands a paid order's items into individually coded issued
// tickets. Issuance is idempotent per order item: replays only top up to the
// item quantity.
type TicketService struct {
	stores Stores
}

func NewTicketService(stores Stores) *TicketService {
	return &TicketService{stores: stores}
}

// GenerateTicketsForOrder issues any missing tickets for the order. Exposed
// for admin tooling; settlement calls the same logic inside its own
// transaction.
func (s *TicketService) GenerateTicketsForOrder(ctx context.Context, orderNumber string) error {
	order, err := s.stores.Orders().OrderByOrderNumber(ctx, orderNumber)
	if err != nil {
		return err
	}

	return s.stores.Atomic(ctx, func(tx Stores) error {
		return s.issueWithin(ctx, tx, order)
	})
}

func (s *TicketService) ListTicketsForOrder(ctx context.Context, orderNumber string) ([]*models.IssuedTicket, error) {
	order, err := s.stores.Orders().OrderByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return s.stores.Tickets().ListByOrder(ctx, order.ID)
}

// issueWithin creates the missing tickets for every item of a paid order as
// one batch, inside the caller's transaction scope.
func (s *TicketService) issueWithin(ctx context.Context, tx Stores, order *models.Order) error {
	if order.Status != models.OrderStatusPaid {
		return status.ErrOrderNotPaid
	}

	var batch []*models.IssuedTicket
	for _, item := range order.Items {
		existing, err := tx.Tickets().CountByOrderItem(ctx, item.ID)
		if err != nil {
			return err
		}
		if existing >= item.Quantity {
			continue
		}

		for i := existing; i < item.Quantity; i++ {
			code, err := utils.GenerateCode(16)
			if err != nil {
				return fmt.Errorf("issueTickets: generate code: %v", err)
			}
			batch = append(batch, &models.IssuedTicket{
				Code:        code,
				OrderID:     order.ID,
				OrderItemID: item.ID,
				Buyer:       order.Buyer,
			})
		}
	}

	if len(batch) == 0 {
		return nil
	}

	if err := tx.Tickets().CreateBatch(ctx, batch); err != nil {
		return err
	}

	monitoring.TrackTicketsIssued(len(batch))
	slog.Info("tickets issued", "order_number", order.OrderNumber, "count", len(batch))
	return nil
}
