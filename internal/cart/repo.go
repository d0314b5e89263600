package cart

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFoundSKU      = errors.New("cart: sku not found")
	ErrNotFoundCartItem = errors.New("cart: cart item not found")
	ErrInvalidQuantity  = errors.New("cart: quantity exceeds available stock")
	ErrOutOfStock       = errors.New("cart: sku out of stock")
	ErrProductNotFound  = errors.New("cart: product not found")
)

type Repo struct{ DB *pgxpool.Pool }

// validateSKU enforces the add/update rules: SKU exists and is live, the
// product is purchasable, and stock covers the requested quantity (plus the
// quantity already sitting in the cart when adding).
func (r *Repo) validateSKU(ctx context.Context, userID, skuID int64, quantity int, isCreate bool) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	var stock int
	var skuDeletedAt, productDeletedAt, publishedAt *time.Time
	err := r.DB.QueryRow(ctx, `
		SELECT s.stock, s.deleted_at, p.deleted_at, p.published_at
		FROM skus s
		JOIN products p ON p.id = s.product_id
		WHERE s.id = $1`,
		skuID,
	).Scan(&stock, &skuDeletedAt, &productDeletedAt, &publishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFoundSKU
	}
	if err != nil {
		return err
	}
	if skuDeletedAt != nil {
		return ErrNotFoundSKU
	}

	if isCreate {
		var existing int
		err := r.DB.QueryRow(ctx,
			`SELECT quantity FROM cart_items WHERE user_id = $1 AND sku_id = $2`,
			userID, skuID,
		).Scan(&existing)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if existing > 0 && quantity+existing > stock {
			return ErrInvalidQuantity
		}
	}

	if stock < 1 || stock < quantity {
		return ErrOutOfStock
	}

	if productDeletedAt != nil || publishedAt == nil || publishedAt.After(time.Now()) {
		return ErrProductNotFound
	}
	return nil
}

// Add upserts on (user_id, sku_id): adding the same SKU twice increments the
// quantity.
func (r *Repo) Add(ctx context.Context, userID, skuID int64, quantity int) (CartItem, error) {
	if err := r.validateSKU(ctx, userID, skuID, quantity, true); err != nil {
		return CartItem{}, err
	}

	var ci CartItem
	err := r.DB.QueryRow(ctx, `
		INSERT INTO cart_items(user_id, sku_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, sku_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING id, user_id, sku_id, quantity, created_at, updated_at`,
		userID, skuID, quantity,
	).Scan(&ci.ID, &ci.UserID, &ci.SKUID, &ci.Quantity, &ci.CreatedAt, &ci.UpdatedAt)
	return ci, err
}

func (r *Repo) Update(ctx context.Context, userID, cartItemID, skuID int64, quantity int) (CartItem, error) {
	if err := r.validateSKU(ctx, userID, skuID, quantity, false); err != nil {
		return CartItem{}, err
	}

	var ci CartItem
	err := r.DB.QueryRow(ctx, `
		UPDATE cart_items SET sku_id = $1, quantity = $2, updated_at = now()
		WHERE id = $3 AND user_id = $4
		RETURNING id, user_id, sku_id, quantity, created_at, updated_at`,
		skuID, quantity, cartItemID, userID,
	).Scan(&ci.ID, &ci.UserID, &ci.SKUID, &ci.Quantity, &ci.CreatedAt, &ci.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CartItem{}, ErrNotFoundCartItem
	}
	return ci, err
}

func (r *Repo) Delete(ctx context.Context, userID int64, cartItemIDs []int64) (int64, error) {
	ct, err := r.DB.Exec(ctx,
		`DELETE FROM cart_items WHERE id = ANY($1) AND user_id = $2`,
		cartItemIDs, userID,
	)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// List groups the cart by shop; groups are ordered by most recent activity
// and pagination applies to groups, not rows.
func (r *Repo) List(ctx context.Context, userID int64, page, limit int) (CartList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.DB.Query(ctx, `
		SELECT ci.id, ci.user_id, ci.sku_id, ci.quantity, ci.created_at, ci.updated_at,
		       s.id, s.value, s.price, s.stock, s.image, s.product_id,
		       p.id, p.name, p.published_at, p.created_by_id
		FROM cart_items ci
		JOIN skus s ON s.id = ci.sku_id
		JOIN products p ON p.id = s.product_id
		WHERE ci.user_id = $1
		  AND p.deleted_at IS NULL
		  AND p.published_at IS NOT NULL
		  AND p.published_at <= now()
		ORDER BY ci.updated_at DESC`,
		userID,
	)
	if err != nil {
		return CartList{}, err
	}
	defer rows.Close()

	var items []ItemDetail
	var shopIDs, productIDs []int64
	for rows.Next() {
		var it ItemDetail
		var shopID int64
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.CartItem.SKUID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt,
			&it.SKU.ID, &it.SKU.Value, &it.SKU.Price, &it.SKU.Stock, &it.SKU.Image, &it.SKU.ProductID,
			&it.SKU.Product.ID, &it.SKU.Product.Name, &it.SKU.Product.PublishedAt, &shopID,
		); err != nil {
			return CartList{}, err
		}
		items = append(items, it)
		shopIDs = append(shopIDs, shopID)
		productIDs = append(productIDs, it.SKU.ProductID)
	}
	if err := rows.Err(); err != nil {
		return CartList{}, err
	}

	if err := r.attachTranslations(ctx, items, productIDs); err != nil {
		return CartList{}, err
	}

	groups := groupByShop(items, shopIDs)
	total := len(groups)
	return CartList{
		Data:       paginateGroups(groups, page, limit),
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func (r *Repo) attachTranslations(ctx context.Context, items []ItemDetail, productIDs []int64) error {
	if len(items) == 0 {
		return nil
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, language_id, name, description
		FROM product_translations
		WHERE product_id = ANY($1) AND deleted_at IS NULL
		ORDER BY id`,
		productIDs,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	byProduct := make(map[int64][]catalog.Translation)
	for rows.Next() {
		var t catalog.Translation
		if err := rows.Scan(&t.ID, &t.ProductID, &t.LanguageID, &t.Name, &t.Description); err != nil {
			return err
		}
		byProduct[t.ProductID] = append(byProduct[t.ProductID], t)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range items {
		items[i].SKU.Product.Translations = byProduct[items[i].SKU.ProductID]
	}
	return nil
}
