package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"coffeeshop-backend/internal/model"
	"coffeeshop-backend/internal/store"
)

// OrderStore is the slice of the order repository the handlers use.
type OrderStore interface {
	Create(ctx context.Context, userID int64, items []store.OrderItemInput) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*model.Order, error)
	Delete(ctx context.Context, id int64) error
}

// OrderHandlers provides the /api/orders endpoints. Customers place and read
// their own orders; the full collection is admin-gated by the router.
type OrderHandlers struct {
	Orders OrderStore
	Logger *slog.Logger
}

func (h *OrderHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type orderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type createOrderRequest struct {
	OrderItems []orderItemRequest `json:"orderItems"`
}

// Create handles POST /api/orders for the authenticated user.
func (h *OrderHandlers) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil || len(req.OrderItems) == 0 {
		writeError(w, http.StatusBadRequest, "At least one order item is required")
		return
	}
	items := make([]store.OrderItemInput, 0, len(req.OrderItems))
	for _, item := range req.OrderItems {
		if item.ProductID <= 0 || item.Quantity < 1 {
			writeError(w, http.StatusBadRequest, "Order items need a product id and a quantity of at least 1")
			return
		}
		items = append(items, store.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.Orders.Create(r.Context(), claims.UserID, items)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger().Error("create order failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ListMine handles GET /api/orders/my.
func (h *OrderHandlers) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orders, err := h.Orders.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		h.logger().Error("list own orders failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetMine handles GET /api/orders/my/{id}. Reading another user's order is a
// 403, not a 404, matching the ownership check on the original endpoint.
func (h *OrderHandlers) GetMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}
	order, err := h.Orders.GetByID(r.Context(), id)
	if err != nil {
		h.logger().Error("get own order failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if order == nil || order.UserID != claims.UserID {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// List handles GET /api/orders.
func (h *OrderHandlers) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.List(r.Context())
	if err != nil {
		h.logger().Error("list orders failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id}.
func (h *OrderHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}
	order, err := h.Orders.GetByID(r.Context(), id)
	if err != nil {
		h.logger().Error("get order failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type updateOrderRequest struct {
	Status string `json:"status"`
}

// Update handles PATCH /api/orders/{id}; only the status can change.
func (h *OrderHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}
	var req updateOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !model.ValidOrderStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Unknown order status")
		return
	}

	order, err := h.Orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger().Error("update order failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Delete handles DELETE /api/orders/{id}.
func (h *OrderHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}
	if err := h.Orders.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger().Error("delete order failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
