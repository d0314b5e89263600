package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

var ErrProductNotFound = errors.New("catalog: product not found")

type Repo struct{ DB *pgxpool.Pool }

// List returns published-aware, soft-delete-aware products with their
// translations. Count and page run concurrently.
func (r *Repo) List(ctx context.Context, q ListQuery) (ProductList, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	conds := []string{"deleted_at IS NULL"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.CreatedByID != nil {
		conds = append(conds, "created_by_id = "+arg(*q.CreatedByID))
	}
	if q.IsPublic != nil {
		if *q.IsPublic {
			conds = append(conds, "published_at IS NOT NULL AND published_at <= now()")
		} else {
			conds = append(conds, "(published_at IS NULL OR published_at > now())")
		}
	}
	if q.Name != "" {
		conds = append(conds, "name ILIKE "+arg("%"+q.Name+"%"))
	}
	if q.MinPrice != nil {
		conds = append(conds, "base_price >= "+arg(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		conds = append(conds, "base_price <= "+arg(*q.MaxPrice))
	}
	where := "WHERE " + strings.Join(conds, " AND ")

	orderCol := "created_at"
	if q.SortByPrice {
		orderCol = "base_price"
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}

	var total int
	var data []Product
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.DB.QueryRow(gctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total)
	})
	g.Go(func() error {
		sql := fmt.Sprintf(`
			SELECT id, name, base_price, created_by_id, published_at, created_at, updated_at
			FROM products %s
			ORDER BY %s %s
			LIMIT %d OFFSET %d`, where, orderCol, dir, limit, (page-1)*limit)
		rows, err := r.DB.Query(gctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Name, &p.BasePrice, &p.CreatedByID, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
				return err
			}
			data = append(data, p)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return r.attachTranslations(gctx, data)
	})
	if err := g.Wait(); err != nil {
		return ProductList{}, err
	}

	return ProductList{
		Data:       data,
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Detail returns a product with translations and live SKUs. With
// publicOnly, unpublished and future-published products are hidden.
func (r *Repo) Detail(ctx context.Context, productID int64, publicOnly bool) (ProductDetail, error) {
	where := `WHERE id = $1 AND deleted_at IS NULL`
	if publicOnly {
		where += ` AND published_at IS NOT NULL AND published_at <= now()`
	}

	var d ProductDetail
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, base_price, created_by_id, published_at, created_at, updated_at
		FROM products `+where,
		productID,
	).Scan(&d.ID, &d.Name, &d.BasePrice, &d.CreatedByID, &d.PublishedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductDetail{}, ErrProductNotFound
	}
	if err != nil {
		return ProductDetail{}, err
	}

	data := []Product{d.Product}
	if err := r.attachTranslations(ctx, data); err != nil {
		return ProductDetail{}, err
	}
	d.Product = data[0]

	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, value, price, stock, image, created_by_id, created_at, updated_at
		FROM skus
		WHERE product_id = $1 AND deleted_at IS NULL
		ORDER BY id`,
		productID,
	)
	if err != nil {
		return ProductDetail{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var s SKU
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Value, &s.Price, &s.Stock, &s.Image, &s.CreatedByID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return ProductDetail{}, err
		}
		d.SKUs = append(d.SKUs, s)
	}
	return d, rows.Err()
}

func (r *Repo) attachTranslations(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(products))
	byID := make(map[int64]*Product, len(products))
	for i := range products {
		ids = append(ids, products[i].ID)
		byID[products[i].ID] = &products[i]
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, language_id, name, description
		FROM product_translations
		WHERE product_id = ANY($1) AND deleted_at IS NULL
		ORDER BY id`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t Translation
		if err := rows.Scan(&t.ID, &t.ProductID, &t.LanguageID, &t.Name, &t.Description); err != nil {
			return err
		}
		if p, ok := byID[t.ProductID]; ok {
			p.Translations = append(p.Translations, t)
		}
	}
	return rows.Err()
}
