package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type CatalogService interface {
	List(ctx context.Context, q catalog.ListQuery) (catalog.ProductList, error)
	Detail(ctx context.Context, productID int64, publicOnly bool) (catalog.ProductDetail, error)
}

type CatalogHandler struct {
	Catalog CatalogService
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.detail)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	qs := r.URL.Query()
	public := true
	q := catalog.ListQuery{
		IsPublic:    &public,
		Name:        qs.Get("name"),
		MinPrice:    parseInt64Ptr(qs.Get("min_price")),
		MaxPrice:    parseInt64Ptr(qs.Get("max_price")),
		SortByPrice: qs.Get("sort") == "price",
		Ascending:   qs.Get("order") != "desc",
		Page:        atoiDefault(qs.Get("page"), 1),
		Limit:       atoiDefault(qs.Get("limit"), 10),
	}
	res, err := h.Catalog.List(ctx, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) detail(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Detail(ctx, productID, true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func parseInt64Ptr(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
