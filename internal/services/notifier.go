package services

import (
	"fmt"
	"log/slog"

	"ticket-shop/models"

	pubnub "github.com/pubnub/go/v7"
)

// Notifier pushes settlement outcomes to the buyer's realtime channel so
// the storefront can update without polling. Guest orders have no channel.
type Notifier struct {
	pn *pubnub.PubNub
}

func NewNotifier(pn *pubnub.PubNub) *Notifier {
	return &Notifier{pn: pn}
}

func (n *Notifier) OrderSettled(order *models.Order) {
	if n == nil || n.pn == nil || order.Buyer == "" {
		return
	}

	channel := fmt.Sprintf("user-%s", order.Buyer)
	_, _, err := n.pn.Publish().
		Channel(channel).
		Message(map[string]any{
			"type":         "order_settled",
			"order_number": order.OrderNumber,
			"status":       order.Status,
		}).
		Execute()
	if err != nil {
		slog.Error("notifier publish failed", "order_number", order.OrderNumber, "error", err)
	}
}
