package httpx

import (
	"context"
	"net/http"
	"testing"

	"github.com/ariefcatur/go-shop-backend.git/internal/cart"
	"github.com/go-chi/chi/v5"
)

type stubCart struct {
	addFn    func(ctx context.Context, userID, skuID int64, quantity int) (cart.CartItem, error)
	updateFn func(ctx context.Context, userID, cartItemID, skuID int64, quantity int) (cart.CartItem, error)
	deleteFn func(ctx context.Context, userID int64, cartItemIDs []int64) (int64, error)
	listFn   func(ctx context.Context, userID int64, page, limit int) (cart.CartList, error)
}

func (s *stubCart) Add(ctx context.Context, userID, skuID int64, quantity int) (cart.CartItem, error) {
	return s.addFn(ctx, userID, skuID, quantity)
}
func (s *stubCart) Update(ctx context.Context, userID, cartItemID, skuID int64, quantity int) (cart.CartItem, error) {
	return s.updateFn(ctx, userID, cartItemID, skuID, quantity)
}
func (s *stubCart) Delete(ctx context.Context, userID int64, cartItemIDs []int64) (int64, error) {
	return s.deleteFn(ctx, userID, cartItemIDs)
}
func (s *stubCart) List(ctx context.Context, userID int64, page, limit int) (cart.CartList, error) {
	return s.listFn(ctx, userID, page, limit)
}

func newCartRouter(svc CartService) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(&stubAuth{userID: 7}))
		(&CartHandler{Cart: svc}).Register(r)
	})
	return r
}

func TestCartHandler_Add(t *testing.T) {
	t.Run("upserts", func(t *testing.T) {
		svc := &stubCart{
			addFn: func(ctx context.Context, userID, skuID int64, quantity int) (cart.CartItem, error) {
				if userID != 7 || skuID != 100 || quantity != 2 {
					t.Errorf("unexpected args: %d %d %d", userID, skuID, quantity)
				}
				return cart.CartItem{ID: 1, UserID: userID, SKUID: skuID, Quantity: quantity}, nil
			},
		}
		rec := doReq(t, newCartRouter(svc), http.MethodPost, "/cart", `{"sku_id":100,"quantity":2}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("out of stock", func(t *testing.T) {
		svc := &stubCart{
			addFn: func(ctx context.Context, userID, skuID int64, quantity int) (cart.CartItem, error) {
				return cart.CartItem{}, cart.ErrOutOfStock
			},
		}
		rec := doReq(t, newCartRouter(svc), http.MethodPost, "/cart", `{"sku_id":100,"quantity":2}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown sku", func(t *testing.T) {
		svc := &stubCart{
			addFn: func(ctx context.Context, userID, skuID int64, quantity int) (cart.CartItem, error) {
				return cart.CartItem{}, cart.ErrNotFoundSKU
			},
		}
		rec := doReq(t, newCartRouter(svc), http.MethodPost, "/cart", `{"sku_id":9,"quantity":1}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestCartHandler_Delete(t *testing.T) {
	t.Run("deletes by ids", func(t *testing.T) {
		svc := &stubCart{
			deleteFn: func(ctx context.Context, userID int64, ids []int64) (int64, error) {
				if len(ids) != 2 {
					t.Errorf("expected 2 ids, got %v", ids)
				}
				return 2, nil
			},
		}
		rec := doReq(t, newCartRouter(svc), http.MethodPost, "/cart/delete", `{"cart_item_ids":[1,2]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("empty ids", func(t *testing.T) {
		rec := doReq(t, newCartRouter(&stubCart{}), http.MethodPost, "/cart/delete", `{"cart_item_ids":[]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCartHandler_List(t *testing.T) {
	svc := &stubCart{
		listFn: func(ctx context.Context, userID int64, page, limit int) (cart.CartList, error) {
			if page != 1 || limit != 10 {
				t.Errorf("defaults not applied: page=%d limit=%d", page, limit)
			}
			return cart.CartList{Page: page, Limit: limit}, nil
		},
	}
	rec := doReq(t, newCartRouter(svc), http.MethodGet, "/cart", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
