package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/cart"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	Add(ctx context.Context, userID, skuID int64, quantity int) (cart.CartItem, error)
	Update(ctx context.Context, userID, cartItemID, skuID int64, quantity int) (cart.CartItem, error)
	Delete(ctx context.Context, userID int64, cartItemIDs []int64) (int64, error)
	List(ctx context.Context, userID int64, page, limit int) (cart.CartList, error)
}

type CartHandler struct {
	Cart CartService
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.list)
	r.Post("/cart", h.add)
	r.Put("/cart/{id}", h.update)
	r.Post("/cart/delete", h.delete)
}

type cartItemReq struct {
	SKUID    int64 `json:"sku_id"`
	Quantity int   `json:"quantity"`
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ci, err := h.Cart.Add(ctx, UserID(r), req.SKUID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ci)
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	cartItemID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req cartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ci, err := h.Cart.Update(ctx, UserID(r), cartItemID, req.SKUID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ci)
}

func (h *CartHandler) delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CartItemIDs []int64 `json:"cart_item_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.CartItemIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing cart_item_ids"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := h.Cart.Delete(ctx, UserID(r), req.CartItemIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *CartHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Cart.List(ctx, UserID(r),
		atoiDefault(r.URL.Query().Get("page"), 1),
		atoiDefault(r.URL.Query().Get("limit"), 10),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
