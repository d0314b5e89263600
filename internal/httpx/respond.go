package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ariefcatur/go-shop-backend.git/internal/auth"
	"github.com/ariefcatur/go-shop-backend.git/internal/cart"
	"github.com/ariefcatur/go-shop-backend.git/internal/catalog"
	"github.com/ariefcatur/go-shop-backend.git/internal/lock"
	"github.com/ariefcatur/go-shop-backend.git/internal/order"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the domain error taxonomy onto HTTP codes. 409 marks the
// retryable outcomes (contention, version conflict).
func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrNotFoundCartItem),
		errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, cart.ErrNotFoundSKU),
		errors.Is(err, cart.ErrNotFoundCartItem),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, auth.ErrEmailNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrOutOfStock),
		errors.Is(err, order.ErrSKUNotBelongToShop),
		errors.Is(err, order.ErrCannotCancelOrder),
		errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrVersionConflict),
		errors.Is(err, lock.ErrHeld):
		return http.StatusConflict
	case errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidPassword),
		errors.Is(err, auth.ErrRefreshTokenUsed),
		errors.Is(err, auth.ErrInvalidSession):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Printf("http: internal error: %v", err)
		msg = "internal error"
	}
	writeJSON(w, code, map[string]string{"error": msg})
}
