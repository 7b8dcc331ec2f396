package store

import (
	"context"
	"time"

	"ticket-shop/internal/status"
	"ticket-shop/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

type orderStore struct {
	app core.App
}

// CreateOrder saves the order and all of its items. Callers wrap it in
// Atomic so a failing item rolls the order back too.
func (s *orderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	ordersCol, err := s.app.FindCollectionByNameOrId("orders")
	if err != nil {
		return status.Transient("orders.collection", err)
	}

	record := core.NewRecord(ordersCol)
	record.Set("order_number", order.OrderNumber)
	record.Set("buyer", order.Buyer)
	record.Set("total_amount", order.TotalAmount.InexactFloat64())
	record.Set("status", order.Status)
	record.Set("payment_status", order.PaymentStatus)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		if s.orderNumberTaken(order.OrderNumber) {
			return status.ErrDuplicateOrderNumber
		}
		return status.Transient("orders.save", err)
	}
	order.ID = record.Id
	order.CreatedAt = record.GetDateTime("created").Time()

	itemsCol, err := s.app.FindCollectionByNameOrId("order_items")
	if err != nil {
		return status.Transient("order_items.collection", err)
	}
	for i := range order.Items {
		item := &order.Items[i]
		itemRecord := core.NewRecord(itemsCol)
		itemRecord.Set("order", record.Id)
		itemRecord.Set("ticket_type", item.TicketTypeID)
		itemRecord.Set("quantity", item.Quantity)
		itemRecord.Set("unit_price", item.UnitPrice.InexactFloat64())
		itemRecord.Set("subtotal", item.Subtotal.InexactFloat64())

		if err := s.app.SaveWithContext(ctx, itemRecord); err != nil {
			return status.Transient("order_items.save", err)
		}
		item.ID = itemRecord.Id
		item.OrderID = record.Id
	}

	return nil
}

// orderNumberTaken distinguishes a uniqueness conflict from other save
// failures so the caller can regenerate and retry.
func (s *orderStore) orderNumberTaken(orderNumber string) bool {
	existing, err := s.app.FindFirstRecordByFilter(
		"orders",
		"order_number = {:number}",
		dbx.Params{"number": orderNumber},
	)
	return err == nil && existing != nil
}

func (s *orderStore) OrderByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	record, err := s.app.FindFirstRecordByFilter(
		"orders",
		"order_number = {:number}",
		dbx.Params{"number": orderNumber},
	)
	if err != nil {
		return nil, status.ErrOrderNotFound
	}

	return s.hydrate(record)
}

func (s *orderStore) UpdateStatus(ctx context.Context, orderNumber, orderStatus, paymentStatus string) error {
	record, err := s.app.FindFirstRecordByFilter(
		"orders",
		"order_number = {:number}",
		dbx.Params{"number": orderNumber},
	)
	if err != nil {
		return status.ErrOrderNotFound
	}

	record.Set("status", orderStatus)
	record.Set("payment_status", paymentStatus)
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return status.Transient("orders.updateStatus", err)
	}
	return nil
}

func (s *orderStore) MarkPaid(ctx context.Context, orderNumber, tradeNo string, paidAt time.Time) error {
	record, err := s.app.FindFirstRecordByFilter(
		"orders",
		"order_number = {:number}",
		dbx.Params{"number": orderNumber},
	)
	if err != nil {
		return status.ErrOrderNotFound
	}

	record.Set("status", models.OrderStatusPaid)
	record.Set("payment_status", models.PaymentStatusCompleted)
	record.Set("trade_no", tradeNo)
	record.Set("paid_at", paidAt)
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return status.Transient("orders.markPaid", err)
	}
	return nil
}

func (s *orderStore) ListByBuyer(ctx context.Context, buyer string, limit int) ([]*models.Order, error) {
	records, err := s.app.FindRecordsByFilter(
		"orders",
		"buyer = {:buyer}",
		"-created",
		limit,
		0,
		dbx.Params{"buyer": buyer},
	)
	if err != nil {
		return nil, status.Transient("orders.listByBuyer", err)
	}

	orders := make([]*models.Order, 0, len(records))
	for _, record := range records {
		order, err := s.hydrate(record)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (s *orderStore) hydrate(record *core.Record) (*models.Order, error) {
	order := &models.Order{
		ID:            record.Id,
		OrderNumber:   record.GetString("order_number"),
		Buyer:         record.GetString("buyer"),
		TotalAmount:   decimal.NewFromFloat(record.GetFloat("total_amount")),
		Status:        record.GetString("status"),
		PaymentStatus: record.GetString("payment_status"),
		TradeNo:       record.GetString("trade_no"),
		CreatedAt:     record.GetDateTime("created").Time(),
	}
	if paidAt := record.GetDateTime("paid_at").Time(); !paidAt.IsZero() {
		order.PaidAt = &paidAt
	}

	itemRecords, err := s.app.FindRecordsByFilter(
		"order_items",
		"order = {:order}",
		"created",
		0,
		0,
		dbx.Params{"order": record.Id},
	)
	if err != nil {
		return nil, status.Transient("order_items.list", err)
	}

	for _, ir := range itemRecords {
		order.Items = append(order.Items, models.OrderItem{
			ID:           ir.Id,
			OrderID:      record.Id,
			TicketTypeID: ir.GetString("ticket_type"),
			Quantity:     ir.GetInt("quantity"),
			UnitPrice:    decimal.NewFromFloat(ir.GetFloat("unit_price")),
			Subtotal:     decimal.NewFromFloat(ir.GetFloat("subtotal")),
		})
	}

	return order, nil
}
