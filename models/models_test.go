package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTerminal(t *testing.T) {
	assert.False(t, (&Order{Status: OrderStatusPending}).Terminal())
	assert.True(t, (&Order{Status: OrderStatusPaid}).Terminal())
	assert.True(t, (&Order{Status: OrderStatusFailed}).Terminal())
}

func TestOrderItemsTotal(t *testing.T) {
	order := &Order{
		Items: []OrderItem{
			{Quantity: 2, UnitPrice: decimal.RequireFromString("800.00"), Subtotal: decimal.RequireFromString("1600.00")},
			{Quantity: 1, UnitPrice: decimal.RequireFromString("500.00"), Subtotal: decimal.RequireFromString("500.00")},
		},
	}

	assert.True(t, order.ItemsTotal().Equal(decimal.RequireFromString("2100.00")))
	assert.True(t, (&Order{}).ItemsTotal().IsZero())
}

func TestCartLineDecoding(t *testing.T) {
	// clients may send extra fields; only id and quantity survive decoding
	var line CartLine
	require.NoError(t, json.Unmarshal([]byte(`{"ticket_type_id":"tt5","quantity":2,"unit_price":"0.01"}`), &line))

	assert.Equal(t, "tt5", line.TicketTypeID)
	assert.Equal(t, 2, line.Quantity)
}

func TestOrderJSONOmitsEmptyBuyer(t *testing.T) {
	data, err := json.Marshal(&Order{OrderNumber: "ORD20250101000123"})
	require.NoError(t, err)

	assert.NotContains(t, string(data), "buyer")
	assert.NotContains(t, string(data), "trade_no")
	assert.NotContains(t, string(data), "paid_at")
}
