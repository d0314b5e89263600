package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/jobs"
	"github.com/ariefcatur/go-shop-backend.git/internal/redisx"
	"github.com/jackc/pgx/v5"
)

// checkoutItem is one cart row re-read inside the transaction, joined with
// its SKU and product snapshot.
type checkoutItem struct {
	CartItemID   int64
	Quantity     int
	SKUID        int64
	SKUValue     string
	SKUPrice     int64
	SKUImage     string
	Stock        int
	SKUUpdatedAt time.Time // version stamp for the conditional decrement
	ShopID       int64     // skus.created_by_id
	ProductID    int64
	ProductName  string
	DeletedAt    *time.Time
	PublishedAt  *time.Time
	Translations []ProductTranslation
}

type plannedOrder struct {
	shopID   int64
	receiver Receiver
	items    []checkoutItem
}

type stockDecrement struct {
	skuID     int64
	qty       int
	readStamp time.Time
}

type checkoutPlan struct {
	groups     []plannedOrder
	decrements []stockDecrement
}

// buildCheckoutPlan runs every checkout validation over the rows re-read
// inside the transaction. Check order follows the documented precedence:
// existence, stock, product availability, shop ownership.
func buildCheckoutPlan(groups []CheckoutGroup, items []checkoutItem, now time.Time) (*checkoutPlan, error) {
	want := 0
	for _, g := range groups {
		want += len(g.CartItemIDs)
	}
	// duplikat id di body juga gagal di sini: set hasil fetch lebih kecil
	if want == 0 || len(items) != want {
		return nil, ErrNotFoundCartItem
	}

	byID := make(map[int64]checkoutItem, len(items))
	for _, it := range items {
		byID[it.CartItemID] = it
	}

	for _, it := range items {
		if it.Quantity > it.Stock {
			return nil, ErrOutOfStock
		}
	}

	for _, it := range items {
		if it.DeletedAt != nil || it.PublishedAt == nil || it.PublishedAt.After(now) {
			return nil, ErrProductNotFound
		}
	}

	plan := &checkoutPlan{}
	for _, g := range groups {
		po := plannedOrder{shopID: g.ShopID, receiver: g.Receiver}
		for _, id := range g.CartItemIDs {
			it, ok := byID[id]
			if !ok {
				return nil, ErrNotFoundCartItem
			}
			if it.ShopID != g.ShopID {
				return nil, ErrSKUNotBelongToShop
			}
			po.items = append(po.items, it)
		}
		plan.groups = append(plan.groups, po)
	}

	for _, it := range items {
		plan.decrements = append(plan.decrements, stockDecrement{
			skuID:     it.SKUID,
			qty:       it.Quantity,
			readStamp: it.SKUUpdatedAt,
		})
	}
	return plan, nil
}

// Checkout converts the referenced cart items into one order per shop group
// plus a single shared payment. Per-SKU leases are taken before the
// transaction; the version-stamped conditional decrement inside it is the
// actual oversell guard.
func (r *Repo) Checkout(ctx context.Context, userID int64, groups []CheckoutGroup) (CheckoutResult, error) {
	start := time.Now()
	res, err := r.checkout(ctx, userID, groups)
	r.Metrics.Observe(checkoutResult(err), time.Since(start))
	return res, err
}

func (r *Repo) checkout(ctx context.Context, userID int64, groups []CheckoutGroup) (CheckoutResult, error) {
	var allIDs []int64
	for _, g := range groups {
		allIDs = append(allIDs, g.CartItemIDs...)
	}
	if len(allIDs) == 0 {
		return CheckoutResult{}, ErrNotFoundCartItem
	}

	// Resolve SKU ids dulu: cukup untuk menentukan lease keys.
	skuIDs, err := r.resolveSKUIDs(ctx, userID, allIDs)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(skuIDs) == 0 {
		return CheckoutResult{}, ErrNotFoundCartItem
	}

	keys := make([]string, 0, len(skuIDs))
	for _, id := range skuIDs {
		keys = append(keys, fmt.Sprintf(redisx.KeySKULock, id))
	}
	lease, err := r.Locks.Acquire(ctx, keys, r.lockTTL())
	if err != nil {
		return CheckoutResult{}, err // lock.ErrHeld is retryable by the caller
	}
	// Release selalu jalan; error ditelan, TTL yang membatasi sisa lease.
	defer func() { _ = lease.Release(context.Background()) }()

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CheckoutResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Re-read di dalam transaksi: nilai sebelum lock bisa saja basi.
	items, err := fetchCheckoutItems(ctx, tx, userID, allIDs)
	if err != nil {
		return CheckoutResult{}, err
	}
	plan, err := buildCheckoutPlan(groups, items, time.Now())
	if err != nil {
		return CheckoutResult{}, err
	}

	var paymentID int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO payments(status) VALUES ($1) RETURNING id`,
		PaymentPending,
	).Scan(&paymentID); err != nil {
		return CheckoutResult{}, err
	}

	out := make([]Order, 0, len(plan.groups))
	for _, po := range plan.groups {
		o, err := insertOrder(ctx, tx, userID, paymentID, po)
		if err != nil {
			return CheckoutResult{}, err
		}
		out = append(out, o)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM cart_items WHERE id = ANY($1) AND user_id = $2`,
		allIDs, userID,
	); err != nil {
		return CheckoutResult{}, err
	}

	for _, d := range plan.decrements {
		ct, err := tx.Exec(ctx, `
			UPDATE skus SET stock = stock - $1, updated_at = now()
			WHERE id = $2 AND updated_at = $3 AND stock >= $1`,
			d.qty, d.skuID, d.readStamp,
		)
		if err != nil {
			return CheckoutResult{}, err
		}
		if ct.RowsAffected() != 1 {
			// penulis lain menang meski ada lease; rollback seluruh checkout
			return CheckoutResult{}, ErrVersionConflict
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return CheckoutResult{}, err
	}

	if r.Jobs != nil {
		jobID := jobs.CancelPaymentJobID(paymentID)
		payload := CancelPaymentPayload{PaymentID: paymentID, UserID: userID}
		if err := r.Jobs.Schedule(ctx, jobID, payload, r.paymentTimeout()); err != nil {
			log.Printf("order: schedule %s: %v", jobID, err)
		}
	}

	for _, o := range out {
		r.cacheStatus(ctx, o.ID, o.Status)
	}
	r.publishCreated(paymentID, userID, out)

	return CheckoutResult{PaymentID: paymentID, Orders: out}, nil
}

func (r *Repo) resolveSKUIDs(ctx context.Context, userID int64, cartItemIDs []int64) ([]int64, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT DISTINCT sku_id FROM cart_items WHERE id = ANY($1) AND user_id = $2`,
		cartItemIDs, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func fetchCheckoutItems(ctx context.Context, tx pgx.Tx, userID int64, cartItemIDs []int64) ([]checkoutItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT ci.id, ci.quantity,
		       s.id, s.value, s.price, s.image, s.stock, s.updated_at, s.created_by_id,
		       p.id, p.name, p.deleted_at, p.published_at
		FROM cart_items ci
		JOIN skus s ON s.id = ci.sku_id
		JOIN products p ON p.id = s.product_id
		WHERE ci.id = ANY($1) AND ci.user_id = $2`,
		cartItemIDs, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []checkoutItem
	productIDs := make([]int64, 0, len(cartItemIDs))
	for rows.Next() {
		var it checkoutItem
		if err := rows.Scan(
			&it.CartItemID, &it.Quantity,
			&it.SKUID, &it.SKUValue, &it.SKUPrice, &it.SKUImage, &it.Stock, &it.SKUUpdatedAt, &it.ShopID,
			&it.ProductID, &it.ProductName, &it.DeletedAt, &it.PublishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
		productIDs = append(productIDs, it.ProductID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	translations, err := fetchTranslations(ctx, tx, productIDs)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Translations = translations[items[i].ProductID]
	}
	return items, nil
}

func fetchTranslations(ctx context.Context, tx pgx.Tx, productIDs []int64) (map[int64][]ProductTranslation, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, product_id, language_id, name, description
		FROM product_translations
		WHERE product_id = ANY($1) AND deleted_at IS NULL`,
		productIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]ProductTranslation)
	for rows.Next() {
		var t ProductTranslation
		var productID int64
		if err := rows.Scan(&t.ID, &productID, &t.LanguageID, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		out[productID] = append(out[productID], t)
	}
	return out, rows.Err()
}

func insertOrder(ctx context.Context, tx pgx.Tx, userID, paymentID int64, po plannedOrder) (Order, error) {
	receiver, err := json.Marshal(po.receiver)
	if err != nil {
		return Order{}, err
	}

	o := Order{
		UserID:    userID,
		ShopID:    po.shopID,
		PaymentID: paymentID,
		Status:    StatusPendingPayment,
		Receiver:  po.receiver,
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO orders(user_id, shop_id, payment_id, status, receiver)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		userID, po.shopID, paymentID, o.Status, receiver,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}

	for _, it := range po.items {
		trans, err := json.Marshal(it.Translations)
		if err != nil {
			return Order{}, err
		}
		oi := OrderItem{
			OrderID:      o.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			SKUID:        it.SKUID,
			SKUValue:     it.SKUValue,
			SKUPrice:     it.SKUPrice,
			Image:        it.SKUImage,
			Quantity:     it.Quantity,
			Translations: it.Translations,
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, product_id, product_name, sku_id, sku_value, sku_price, image, quantity, translations)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			o.ID, oi.ProductID, oi.ProductName, oi.SKUID, oi.SKUValue, oi.SKUPrice, oi.Image, oi.Quantity, trans,
		).Scan(&oi.ID); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, oi)
	}
	return o, nil
}
