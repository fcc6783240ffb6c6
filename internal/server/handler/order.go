package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// OrderService defines the methods that the order handler requires from the
// service layer.
type OrderService interface {
	Buy(ctx context.Context, userID, domainID string) (domain.Order, error)
	Cancel(ctx context.Context, userID, orderID string) (domain.Order, error)
	UpdateStatus(ctx context.Context, actor, orderID string, status domain.OrderStatus) (domain.Order, error)
	ListMine(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Order, error)
	List(ctx context.Context, opts domain.ListOpts) ([]domain.Order, error)
}

// OrderHandler serves order-related HTTP endpoints.
type OrderHandler struct {
	orders OrderService
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler with the given service and logger.
func NewOrderHandler(orders OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logHandler(logger, "order")}
}

type listOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

func ordersResponse(orders []domain.Order) listOrdersResponse {
	if orders == nil {
		orders = []domain.Order{}
	}
	return listOrdersResponse{Orders: orders}
}

// ListMine returns the caller's orders.
// GET /api/me/orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListMine(r.Context(), caller(r).Subject, parseListOpts(r))
	if err != nil {
		writeServiceError(w, r, h.logger, "list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, ordersResponse(orders))
}

type buyRequest struct {
	DomainID string `json:"domain_id"`
}

// Buy places an order for an available domain.
// POST /api/me/orders
func (h *OrderHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "place order", err)
		return
	}
	if strings.TrimSpace(req.DomainID) == "" {
		writeError(w, http.StatusBadRequest, "domain_id is required")
		return
	}
	o, err := h.orders.Buy(r.Context(), caller(r).Subject, strings.TrimSpace(req.DomainID))
	if err != nil {
		writeServiceError(w, r, h.logger, "place order", err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// Cancel cancels one of the caller's pending orders.
// POST /api/me/orders/{id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Cancel(r.Context(), caller(r).Subject, pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, "cancel order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// List returns every order.
// GET /api/admin/orders?status=pending
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), parseListOpts(r))
	if err != nil {
		writeServiceError(w, r, h.logger, "list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, ordersResponse(orders))
}

// UpdateStatus moves an order through its lifecycle.
// PUT /api/admin/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "update order", err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), caller(r).Subject, pathParam(r, "id"), domain.OrderStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, h.logger, "update order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
