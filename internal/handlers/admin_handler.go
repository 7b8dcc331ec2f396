package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"ticket-shop/internal/services"
	"ticket-shop/internal/services/gateway"
	"ticket-shop/internal/services/tradenum"
	"ticket-shop/internal/status"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// AdminHandler exposes manual reconciliation and repair tooling. Every
// operation goes through the same services the webhook uses.
type AdminHandler struct {
	app        *pocketbase.PocketBase
	gw         *gateway.Gateway
	orders     *services.OrderService
	tickets    *services.TicketService
	settlement *services.SettlementService
}

func NewAdminHandler(app *pocketbase.PocketBase, gw *gateway.Gateway, orders *services.OrderService, tickets *services.TicketService, settlement *services.SettlementService) *AdminHandler {
	return &AdminHandler{
		app:        app,
		gw:         gw,
		orders:     orders,
		tickets:    tickets,
		settlement: settlement,
	}
}

func (h *AdminHandler) requireSuperuser(e *core.RequestEvent) error {
	if e.Auth == nil || !e.Auth.IsSuperuser() {
		return apis.NewForbiddenError("Superuser only", nil)
	}
	return nil
}

// Reconcile - map a gateway trade number back to an order, showing every
// candidate rewrite that was probed.
func (h *AdminHandler) Reconcile(e *core.RequestEvent) error {
	if err := h.requireSuperuser(e); err != nil {
		return err
	}

	tradeNo := e.Request.URL.Query().Get("trade_no")
	if tradeNo == "" {
		return apis.NewBadRequestError("trade_no is required", nil)
	}

	candidates := tradenum.Candidates(tradeNo, nil)

	order, err := h.settlement.ResolveOrder(e.Request.Context(), tradeNo)
	if err != nil {
		if errors.Is(err, status.ErrOrderNotFound) {
			return e.JSON(http.StatusNotFound, map[string]any{
				"candidates": candidates,
				"message":    "No order matches any candidate",
			})
		}
		slog.Error("h.settlement.ResolveOrder()", "trade_no", tradeNo, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"candidates": candidates,
		"order":      order,
	})
}

// QueryGateway - ask the gateway directly for the trade state of an order,
// for reconciling deliveries that never arrived.
func (h *AdminHandler) QueryGateway(e *core.RequestEvent) error {
	if err := h.requireSuperuser(e); err != nil {
		return err
	}

	orderNumber := e.Request.PathValue("orderNumber")

	n, err := h.gw.QueryTradeStatus(e.Request.Context(), orderNumber)
	switch {
	case err == nil:
	case errors.Is(err, status.ErrChecksumMismatch):
		return e.JSON(http.StatusBadGateway, map[string]string{
			"error": "Gateway reply failed checksum verification",
		})
	case status.IsTransient(err):
		return e.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "Gateway unreachable",
		})
	default:
		slog.Error("h.gw.QueryTradeStatus()", "order_number", orderNumber, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"order_number": orderNumber,
		"trade_no":     n.TradeNo,
		"rtn_code":     n.RtnCode,
		"rtn_msg":      n.RtnMsg,
		"trade_amt":    n.TradeAmt,
		"payment_date": n.PaymentDate,
	})
}

// SetStatus - manual status override; terminal states stay terminal.
func (h *AdminHandler) SetStatus(e *core.RequestEvent) error {
	if err := h.requireSuperuser(e); err != nil {
		return err
	}

	orderNumber := e.Request.PathValue("orderNumber")

	var req struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	err := h.orders.UpdateOrderStatus(e.Request.Context(), orderNumber, req.Status, req.PaymentStatus)
	switch {
	case err == nil:
		return e.JSON(http.StatusOK, map[string]string{"message": "Status updated"})
	case errors.Is(err, status.ErrOrderNotFound):
		return apis.NewNotFoundError("Order not found", nil)
	case errors.Is(err, status.ErrConflict):
		return e.JSON(http.StatusConflict, map[string]string{
			"error": "Order already reached a terminal status",
		})
	default:
		slog.Error("h.orders.UpdateOrderStatus()", "order_number", orderNumber, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}
}

// ReissueTickets - top up missing issued tickets for a paid order. Safe to
// repeat; issuance is idempotent per order item.
func (h *AdminHandler) ReissueTickets(e *core.RequestEvent) error {
	if err := h.requireSuperuser(e); err != nil {
		return err
	}

	orderNumber := e.Request.PathValue("orderNumber")
	ctx := e.Request.Context()

	err := h.tickets.GenerateTicketsForOrder(ctx, orderNumber)
	switch {
	case err == nil:
	case errors.Is(err, status.ErrOrderNotFound):
		return apis.NewNotFoundError("Order not found", nil)
	case errors.Is(err, status.ErrOrderNotPaid):
		return apis.NewBadRequestError("Order is not paid", nil)
	default:
		slog.Error("h.tickets.GenerateTicketsForOrder()", "order_number", orderNumber, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	tickets, err := h.tickets.ListTicketsForOrder(ctx, orderNumber)
	if err != nil {
		slog.Error("h.tickets.ListTicketsForOrder()", "order_number", orderNumber, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"order_number": orderNumber,
		"tickets":      tickets,
	})
}
