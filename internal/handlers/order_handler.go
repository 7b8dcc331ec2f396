package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"ticket-shop/internal/services"
	"ticket-shop/internal/status"
	"ticket-shop/models"
	"ticket-shop/security"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type OrderHandler struct {
	app     *pocketbase.PocketBase
	orders  *services.OrderService
	limiter *security.RateLimiter
}

func NewOrderHandler(app *pocketbase.PocketBase, orders *services.OrderService, limiter *security.RateLimiter) *OrderHandler {
	return &OrderHandler{
		app:     app,
		orders:  orders,
		limiter: limiter,
	}
}

// CreateOrder - assemble a cart into a pending order. Guest checkout is
// allowed; an authenticated buyer is attached when present.
func (h *OrderHandler) CreateOrder(e *core.RequestEvent) error {
	var req struct {
		Lines []models.CartLine `json:"lines"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ctx := e.Request.Context()

	buyer := ""
	if e.Auth != nil {
		buyer = e.Auth.Id
	}

	limitKey := buyer
	if limitKey == "" {
		limitKey = e.RealIP()
	}
	if ok, _ := h.limiter.Allow(ctx, limitKey); !ok {
		return e.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "Too many checkout attempts. Please try again later.",
		})
	}

	order, err := h.orders.CreateOrder(ctx, buyer, req.Lines)
	if err != nil {
		switch {
		case status.IsValidation(err):
			return apis.NewBadRequestError(err.Error(), nil)
		case errors.Is(err, status.ErrInventoryNotFound):
			return apis.NewNotFoundError("Ticket type not found", nil)
		default:
			slog.Error("h.orders.CreateOrder()", "buyer", buyer, "error", err)
			return apis.NewInternalServerError("internal error", nil)
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"total_amount": order.TotalAmount,
	})
}

// GetOrder - return one order with its items by order number.
func (h *OrderHandler) GetOrder(e *core.RequestEvent) error {
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

	// guests fetch by order number; authenticated buyers only see their own
	if e.Auth != nil && order.Buyer != "" && order.Buyer != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, order)
}

// ListOrders - purchase history for the authenticated buyer.
func (h *OrderHandler) ListOrders(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	ctx := e.Request.Context()

	orders, err := h.orders.ListOrdersByBuyer(ctx, e.Auth.Id, 20)
	if err != nil {
		slog.Error("h.orders.ListOrdersByBuyer()", "buyer", e.Auth.Id, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	return e.JSON(http.StatusOK, orders)
}
