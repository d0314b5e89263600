package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/jobs"
	kafkax "github.com/ariefcatur/go-shop-backend.git/internal/kafka"
	"github.com/ariefcatur/go-shop-backend.git/internal/lock"
	"github.com/ariefcatur/go-shop-backend.git/internal/metrics"
	"github.com/ariefcatur/go-shop-backend.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

type Repo struct {
	DB    *pgxpool.Pool
	Locks lock.Manager
	Jobs  *jobs.Scheduler
	Redis *redis.Client // status cache; optional

	ProducerCreated   *kafkax.Producer // order.created; optional
	ProducerCancelled *kafkax.Producer // order.cancelled; optional

	Metrics *metrics.Checkout
	Service string

	LockTTL        time.Duration
	PaymentTimeout time.Duration
}

func (r *Repo) lockTTL() time.Duration {
	if r.LockTTL > 0 {
		return r.LockTTL
	}
	return 3 * time.Second
}

func (r *Repo) paymentTimeout() time.Duration {
	if r.PaymentTimeout > 0 {
		return r.PaymentTimeout
	}
	return 24 * time.Hour
}

func checkoutResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFoundCartItem):
		return "not_found_cart_item"
	case errors.Is(err, ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrSKUNotBelongToShop):
		return "sku_not_belong_to_shop"
	case errors.Is(err, ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, lock.ErrHeld):
		return "lock_held"
	default:
		return "error"
	}
}

// List returns the user's orders, newest first, items included.
func (r *Repo) List(ctx context.Context, userID int64, q ListQuery) (OrderList, error) {
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

	where := `WHERE user_id = $1 AND deleted_at IS NULL`
	args := []any{userID}
	if q.Status != "" {
		where += ` AND status = $2`
		args = append(args, q.Status)
	}

	var total int
	var data []Order
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.DB.QueryRow(gctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total)
	})
	g.Go(func() error {
		sql := fmt.Sprintf(`
			SELECT id, user_id, shop_id, payment_id, status, receiver, created_at, updated_at
			FROM orders %s
			ORDER BY created_at DESC
			LIMIT %d OFFSET %d`, where, limit, (page-1)*limit)
		rows, err := r.DB.Query(gctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			data = append(data, o)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return r.attachItems(gctx, data)
	})
	if err := g.Wait(); err != nil {
		return OrderList{}, err
	}

	return OrderList{
		Data:       data,
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Detail reads one order owned by the user. Must reflect committed checkout
// state immediately; it always goes to Postgres, never the status cache.
func (r *Repo) Detail(ctx context.Context, userID, orderID int64) (Order, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, user_id, shop_id, payment_id, status, receiver, created_at, updated_at
		FROM orders
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		orderID, userID,
	)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	data := []Order{o}
	if err := r.attachItems(ctx, data); err != nil {
		return Order{}, err
	}
	return data[0], nil
}

// GetStatus serves the lightweight status endpoint, cache first.
func (r *Repo) GetStatus(ctx context.Context, userID, orderID int64) (Status, error) {
	if r.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := r.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			return Status(s), nil
		}
	}
	var s Status
	err := r.DB.QueryRow(ctx,
		`SELECT status FROM orders WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		orderID, userID,
	).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	r.cacheStatus(ctx, orderID, s)
	return s, nil
}

// Cancel flips a PENDING_PAYMENT order to CANCELLED. Conditional update so
// two concurrent cancels cannot both pass the status check. Stock is not
// restored here.
func (r *Repo) Cancel(ctx context.Context, userID, orderID int64) (Order, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3 AND status = $4 AND deleted_at IS NULL
		RETURNING id, user_id, shop_id, payment_id, status, receiver, created_at, updated_at`,
		StatusCancelled, orderID, userID, StatusPendingPayment,
	)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// bedakan: order tidak ada vs status sudah bukan PENDING_PAYMENT
		var s Status
		err := r.DB.QueryRow(ctx,
			`SELECT status FROM orders WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
			orderID, userID,
		).Scan(&s)
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		if err != nil {
			return Order{}, err
		}
		return Order{}, ErrCannotCancelOrder
	}
	if err != nil {
		return Order{}, err
	}

	data := []Order{o}
	if err := r.attachItems(ctx, data); err != nil {
		return Order{}, err
	}
	o = data[0]

	r.cacheStatus(ctx, o.ID, o.Status)
	r.publishCancelled(o.ID, o.PaymentID, CancelReasonUser)
	return o, nil
}

// CancelUnpaid is the deferred-job path: if the payment is still PENDING,
// mark it FAILED and cancel its unpaid orders. Idempotent; returns whether
// anything was cancelled.
func (r *Repo) CancelUnpaid(ctx context.Context, paymentID int64) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status PaymentStatus
	err = tx.QueryRow(ctx, `SELECT status FROM payments WHERE id = $1 FOR UPDATE`, paymentID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if status != PaymentPending {
		return false, nil // sudah dibayar atau sudah gagal
	}

	if _, err := tx.Exec(ctx, `UPDATE payments SET status = $1 WHERE id = $2`, PaymentFailed, paymentID); err != nil {
		return false, err
	}

	rows, err := tx.Query(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE payment_id = $2 AND status = $3 AND deleted_at IS NULL
		RETURNING id`,
		StatusCancelled, paymentID, StatusPendingPayment,
	)
	if err != nil {
		return false, err
	}
	var orderIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return false, err
		}
		orderIDs = append(orderIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	for _, id := range orderIDs {
		r.cacheStatus(ctx, id, StatusCancelled)
		r.publishCancelled(id, paymentID, CancelReasonPaymentTimeout)
	}
	return true, nil
}

// MarkPaid handles external payment confirmation: payment PENDING -> PAID,
// its orders move to PENDING_PICKUP, and the scheduled cancel job is dropped.
func (r *Repo) MarkPaid(ctx context.Context, paymentID int64) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`UPDATE payments SET status = $1 WHERE id = $2 AND status = $3`,
		PaymentPaid, paymentID, PaymentPending,
	)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	rows, err := tx.Query(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE payment_id = $2 AND status = $3 AND deleted_at IS NULL
		RETURNING id`,
		StatusPendingPickup, paymentID, StatusPendingPayment,
	)
	if err != nil {
		return false, err
	}
	var orderIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return false, err
		}
		orderIDs = append(orderIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	if r.Jobs != nil {
		if err := r.Jobs.Cancel(ctx, jobs.CancelPaymentJobID(paymentID)); err != nil {
			log.Printf("order: cancel job for payment %d: %v", paymentID, err)
		}
	}
	for _, id := range orderIDs {
		r.cacheStatus(ctx, id, StatusPendingPickup)
	}
	return true, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var receiver []byte
	if err := row.Scan(&o.ID, &o.UserID, &o.ShopID, &o.PaymentID, &o.Status, &receiver, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	if len(receiver) > 0 {
		if err := json.Unmarshal(receiver, &o.Receiver); err != nil {
			return Order{}, err
		}
	}
	return o, nil
}

func (r *Repo) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*Order, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		byID[orders[i].ID] = &orders[i]
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, product_name, sku_id, sku_value, sku_price, image, quantity, translations
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		var trans []byte
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.SKUID, &it.SKUValue, &it.SKUPrice, &it.Image, &it.Quantity, &trans); err != nil {
			return err
		}
		if len(trans) > 0 {
			if err := json.Unmarshal(trans, &it.Translations); err != nil {
				return err
			}
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (r *Repo) cacheStatus(ctx context.Context, orderID int64, s Status) {
	if r.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = r.Redis.Set(ctx, key, string(s), redisx.TTLStatusCache).Err()
}

func (r *Repo) publishCreated(paymentID, userID int64, orders []Order) {
	if r.ProducerCreated == nil {
		return
	}
	refs := make([]OrderRef, 0, len(orders))
	for _, o := range orders {
		refs = append(refs, OrderRef{OrderID: o.ID, ShopID: o.ShopID})
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      r.Service,
		CorrelationID: fmt.Sprintf("payment-%d", paymentID),
		Payload:       kafkax.MustMarshal(OrderCreatedPayload{PaymentID: paymentID, UserID: userID, Orders: refs}),
	}
	r.ProducerCreated.Publish(PartitionKey(paymentID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (r *Repo) publishCancelled(orderID, paymentID int64, reason string) {
	if r.ProducerCancelled == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderCancelled,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      r.Service,
		CorrelationID: fmt.Sprintf("payment-%d", paymentID),
		Payload:       kafkax.MustMarshal(OrderCancelledPayload{OrderID: orderID, PaymentID: paymentID, Reason: reason}),
	}
	r.ProducerCancelled.Publish(PartitionKey(paymentID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderCancelled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
