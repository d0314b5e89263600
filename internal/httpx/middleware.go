package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-shop-backend.git/internal/auth"
)

type ctxKey int

const userIDKey ctxKey = iota

// Authenticator resolves a bearer access token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (int64, error)
}

func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || token == r.Header.Get("Authorization") {
				writeError(w, auth.ErrInvalidSession)
				return
			}
			userID, err := a.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}

// UserID reads the authenticated user id set by RequireAuth.
func UserID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}
