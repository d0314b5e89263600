package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/order"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	Checkout(ctx context.Context, userID int64, groups []order.CheckoutGroup) (order.CheckoutResult, error)
	List(ctx context.Context, userID int64, q order.ListQuery) (order.OrderList, error)
	Detail(ctx context.Context, userID, orderID int64) (order.Order, error)
	GetStatus(ctx context.Context, userID, orderID int64) (order.Status, error)
	Cancel(ctx context.Context, userID, orderID int64) (order.Order, error)
}

type OrdersHandler struct {
	Orders OrderService
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.checkout)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.detail)
	r.Get("/orders/{id}/status", h.status)
	r.Put("/orders/{id}/cancel", h.cancel)
}

// Body = daftar group per shop, satu order per group.
func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var groups []order.CheckoutGroup
	if err := json.NewDecoder(r.Body).Decode(&groups); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(groups) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing groups"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Orders.Checkout(ctx, UserID(r), groups)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := order.ListQuery{
		Status: order.Status(r.URL.Query().Get("status")),
		Page:   atoiDefault(r.URL.Query().Get("page"), 1),
		Limit:  atoiDefault(r.URL.Query().Get("limit"), 10),
	}
	res, err := h.Orders.List(ctx, UserID(r), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) detail(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Detail(ctx, UserID(r), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Orders.GetStatus(ctx, UserID(r), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]order.Status{"status": s})
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Cancel(ctx, UserID(r), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
