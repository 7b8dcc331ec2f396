package handlers

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"ticket-shop/internal/services"
	"ticket-shop/internal/services/gateway"
	"ticket-shop/internal/status"
	"ticket-shop/models"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type PaymentHandler struct {
	app        *pocketbase.PocketBase
	gw         *gateway.Gateway
	orders     *services.OrderService
	settlement *services.SettlementService
}

func NewPaymentHandler(app *pocketbase.PocketBase, gw *gateway.Gateway, orders *services.OrderService, settlement *services.SettlementService) *PaymentHandler {
	return &PaymentHandler{
		app:        app,
		gw:         gw,
		orders:     orders,
		settlement: settlement,
	}
}

// Checkout - build the signed payment form for a pending order. In sandbox
// mode a local confirmation page replaces the external gateway.
func (h *PaymentHandler) Checkout(e *core.RequestEvent) error {
	orderNumber := e.Request.PathValue("orderNumber")
	ctx := e.Request.Context()

	order, err := h.orders.GetOrderByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, status.ErrOrderNotFound) {
			return apis.NewNotFoundError("Order not found", nil)
		}
		slog.Error("h.orders.GetOrderByOrderNumber()", "order_number", orderNumber, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}
	if order.Terminal() {
		return apis.NewBadRequestError("Order already settled", nil)
	}

	if h.gw.Sandbox() {
		return e.HTML(http.StatusOK, sandboxPage(order))
	}

	payload := h.gw.BuildPaymentRequest(order, itemName(order))
	return e.JSON(http.StatusOK, map[string]any{
		"action": h.gw.CheckoutURL(),
		"fields": payload,
	})
}

// Notify - settlement webhook. The body must be exactly the gateway's
// acknowledgment token; anything else keeps it retrying.
func (h *PaymentHandler) Notify(e *core.RequestEvent) error {
	if err := e.Request.ParseForm(); err != nil {
		return e.String(http.StatusOK, string(services.AckRetry))
	}

	n := gateway.ParseNotification(e.Request.PostForm)
	ack := h.settlement.ApplyNotification(e.Request.Context(), n)

	return e.String(http.StatusOK, string(ack))
}

// Return - buyer-facing redirect after payment. Same field shape as the
// webhook but carried as query parameters; responds with a structured
// payload for UI rendering, not the gateway wire contract.
func (h *PaymentHandler) Return(e *core.RequestEvent) error {
	n := gateway.ParseNotification(e.Request.URL.Query())
	ctx := e.Request.Context()

	order, err := h.settlement.ResolveOrder(ctx, n.MerchantTradeNo)
	if err != nil {
		if errors.Is(err, status.ErrOrderNotFound) {
			return e.JSON(http.StatusNotFound, map[string]any{
				"message": "Order not found",
			})
		}
		slog.Error("h.settlement.ResolveOrder()", "trade_no", n.MerchantTradeNo, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	resp := map[string]any{
		"order_number": order.OrderNumber,
		"status":       order.Status,
	}
	switch order.Status {
	case models.OrderStatusPaid:
		resp["message"] = "Payment completed. Your tickets have been issued."
	case models.OrderStatusFailed:
		resp["message"] = "Payment failed. No tickets were issued."
	default:
		resp["message"] = "Payment is still being confirmed."
	}

	return e.JSON(http.StatusOK, resp)
}

// SimulatePayment - sandbox settlement trigger (registered in development
// only). Builds a correctly signed synthetic notification and pushes it
// through the exact webhook path a real gateway delivery would take.
func (h *PaymentHandler) SimulatePayment(e *core.RequestEvent) error {
	orderNumber := e.Request.PathValue("orderNumber")

	var req struct {
		Result string `json:"result"` // success or fail
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	rtnCode := "0"
	rtnMsg := "simulated failure"
	if req.Result == "success" {
		rtnCode = gateway.RtnCodeSuccess
		rtnMsg = "simulated success"
	}

	params := h.gw.Sign(map[string]string{
		"MerchantTradeNo": orderNumber,
		"TradeNo":         "SANDBOX" + orderNumber,
		"RtnCode":         rtnCode,
		"RtnMsg":          rtnMsg,
	})

	values := make(map[string][]string, len(params))
	for k, v := range params {
		values[k] = []string{v}
	}
	n := gateway.ParseNotification(values)

	ack := h.settlement.ApplyNotification(e.Request.Context(), n)
	return e.JSON(http.StatusOK, map[string]any{
		"ack":          string(ack),
		"order_number": orderNumber,
	})
}

func itemName(order *models.Order) string {
	parts := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		parts = append(parts, fmt.Sprintf("%s x%d", item.TicketTypeID, item.Quantity))
	}
	return strings.Join(parts, "#")
}

// sandboxPage renders the local payment confirmation with explicit
// succeed/fail actions that hit the same settlement endpoints as the real
// webhook.
func sandboxPage(order *models.Order) string {
	number := html.EscapeString(order.OrderNumber)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Sandbox payment</title></head>
<body>
<h1>Sandbox payment</h1>
<p>Order %s &mdash; total %s</p>
<button onclick="settle('success')">Pay</button>
<button onclick="settle('fail')">Fail payment</button>
<script>
function settle(result) {
	fetch('/api/v1/payment/sandbox/%s', {
		method: 'POST',
		headers: {'Content-Type': 'application/json'},
		body: JSON.stringify({result: result})
	}).then(function(r) { return r.json(); }).then(function(data) {
		window.location = '/api/v1/payment/return?MerchantTradeNo=%s';
	});
}
</script>
</body>
</html>`, number, order.TotalAmount.StringFixed(2), number, number)
}
