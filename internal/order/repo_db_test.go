package order

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/lock"
	"github.com/ariefcatur/go-shop-backend.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration tests. Set TEST_POSTGRES_DSN to a disposable database with the
// migrations applied; without it the tests skip.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("integration test: TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return &Repo{DB: pool, Locks: lock.NewMemoryManager()}
}

type fixture struct {
	buyerID    int64
	sellerID   int64
	skuID      int64
	cartItemID int64
}

func seedCheckout(t *testing.T, db *pgxpool.Pool, stock, qty int) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture

	mustScan := func(sql string, dst *int64, args ...any) {
		t.Helper()
		if err := db.QueryRow(ctx, sql, args...).Scan(dst); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	mustScan(`INSERT INTO users(email, name, password_hash) VALUES ($1, 'seller', 'x') RETURNING id`,
		&f.sellerID, fmt.Sprintf("seller-%s@test.local", uuid.NewString()))
	mustScan(`INSERT INTO users(email, name, password_hash) VALUES ($1, 'buyer', 'x') RETURNING id`,
		&f.buyerID, fmt.Sprintf("buyer-%s@test.local", uuid.NewString()))

	var productID int64
	mustScan(`INSERT INTO products(name, base_price, created_by_id, published_at)
	          VALUES ('shirt', 1500, $1, now() - interval '1 hour') RETURNING id`,
		&productID, f.sellerID)
	mustScan(`INSERT INTO skus(product_id, value, price, stock, created_by_id)
	          VALUES ($1, 'red/L', 1500, $2, $3) RETURNING id`,
		&f.skuID, productID, stock, f.sellerID)
	mustScan(`INSERT INTO cart_items(user_id, sku_id, quantity) VALUES ($1, $2, $3) RETURNING id`,
		&f.cartItemID, f.buyerID, f.skuID, qty)
	return f
}

func TestRepoCheckoutDB(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	t.Run("decrements stock and snapshots items", func(t *testing.T) {
		f := seedCheckout(t, r.DB, 5, 2)
		groups := []CheckoutGroup{{
			ShopID:      f.sellerID,
			Receiver:    Receiver{Name: "a", Phone: "1", Address: "x"},
			CartItemIDs: []int64{f.cartItemID},
		}}

		res, err := r.Checkout(ctx, f.buyerID, groups)
		if err != nil {
			t.Fatalf("checkout: %v", err)
		}
		if res.PaymentID == 0 || len(res.Orders) != 1 {
			t.Fatalf("unexpected result: %+v", res)
		}
		o := res.Orders[0]
		if o.Status != StatusPendingPayment || len(o.Items) != 1 || o.Items[0].SKUPrice != 1500 {
			t.Errorf("unexpected order: %+v", o)
		}

		var stock int
		if err := r.DB.QueryRow(ctx, `SELECT stock FROM skus WHERE id = $1`, f.skuID).Scan(&stock); err != nil {
			t.Fatalf("read stock: %v", err)
		}
		if stock != 3 {
			t.Errorf("expected stock 3, got %d", stock)
		}

		var n int
		if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, f.buyerID).Scan(&n); err != nil {
			t.Fatalf("count cart: %v", err)
		}
		if n != 0 {
			t.Errorf("cart items not consumed: %d left", n)
		}
	})

	t.Run("out of stock rolls everything back", func(t *testing.T) {
		f := seedCheckout(t, r.DB, 1, 2)
		groups := []CheckoutGroup{{ShopID: f.sellerID, CartItemIDs: []int64{f.cartItemID}}}

		if _, err := r.Checkout(ctx, f.buyerID, groups); !errors.Is(err, ErrOutOfStock) {
			t.Fatalf("expected ErrOutOfStock, got %v", err)
		}
		var n int
		if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, f.buyerID).Scan(&n); err != nil {
			t.Fatalf("count cart: %v", err)
		}
		if n != 1 {
			t.Errorf("cart must be untouched on failure, got %d items", n)
		}
	})

	t.Run("cancel is single shot", func(t *testing.T) {
		f := seedCheckout(t, r.DB, 5, 1)
		groups := []CheckoutGroup{{ShopID: f.sellerID, CartItemIDs: []int64{f.cartItemID}}}
		res, err := r.Checkout(ctx, f.buyerID, groups)
		if err != nil {
			t.Fatalf("checkout: %v", err)
		}
		orderID := res.Orders[0].ID

		o, err := r.Cancel(ctx, f.buyerID, orderID)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if o.Status != StatusCancelled {
			t.Errorf("expected CANCELLED, got %s", o.Status)
		}
		if _, err := r.Cancel(ctx, f.buyerID, orderID); !errors.Is(err, ErrCannotCancelOrder) {
			t.Fatalf("second cancel should fail, got %v", err)
		}

		// stock stays decremented after cancel
		var stock int
		if err := r.DB.QueryRow(ctx, `SELECT stock FROM skus WHERE id = $1`, f.skuID).Scan(&stock); err != nil {
			t.Fatalf("read stock: %v", err)
		}
		if stock != 4 {
			t.Errorf("cancel must not restore stock, got %d", stock)
		}
	})

	t.Run("payment timeout cancels unpaid orders once", func(t *testing.T) {
		f := seedCheckout(t, r.DB, 5, 1)
		groups := []CheckoutGroup{{ShopID: f.sellerID, CartItemIDs: []int64{f.cartItemID}}}
		res, err := r.Checkout(ctx, f.buyerID, groups)
		if err != nil {
			t.Fatalf("checkout: %v", err)
		}

		cancelled, err := r.CancelUnpaid(ctx, res.PaymentID)
		if err != nil {
			t.Fatalf("cancel unpaid: %v", err)
		}
		if !cancelled {
			t.Fatal("expected first run to cancel")
		}
		cancelled, err = r.CancelUnpaid(ctx, res.PaymentID)
		if err != nil {
			t.Fatalf("second cancel unpaid: %v", err)
		}
		if cancelled {
			t.Fatal("second run must be a no-op")
		}

		o, err := r.Detail(ctx, f.buyerID, res.Orders[0].ID)
		if err != nil {
			t.Fatalf("detail: %v", err)
		}
		if o.Status != StatusCancelled {
			t.Errorf("expected CANCELLED, got %s", o.Status)
		}
	})

	t.Run("concurrent checkouts never oversell", func(t *testing.T) {
		// stock 5, two buyers wanting 3 each: at most one can fit
		f := seedCheckout(t, r.DB, 5, 3)

		var buyer2, cartItem2 int64
		if err := r.DB.QueryRow(ctx,
			`INSERT INTO users(email, name, password_hash) VALUES ($1, 'buyer2', 'x') RETURNING id`,
			fmt.Sprintf("buyer2-%s@test.local", uuid.NewString()),
		).Scan(&buyer2); err != nil {
			t.Fatalf("seed buyer2: %v", err)
		}
		if err := r.DB.QueryRow(ctx,
			`INSERT INTO cart_items(user_id, sku_id, quantity) VALUES ($1, $2, 3) RETURNING id`,
			buyer2, f.skuID,
		).Scan(&cartItem2); err != nil {
			t.Fatalf("seed cart item 2: %v", err)
		}

		run := func(userID, cartItemID int64) error {
			_, err := r.Checkout(ctx, userID, []CheckoutGroup{{
				ShopID:      f.sellerID,
				CartItemIDs: []int64{cartItemID},
			}})
			return err
		}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() { defer wg.Done(); errs[0] = run(f.buyerID, f.cartItemID) }()
		go func() { defer wg.Done(); errs[1] = run(buyer2, cartItem2) }()
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			if !errors.Is(err, lock.ErrHeld) && !errors.Is(err, ErrOutOfStock) && !errors.Is(err, ErrVersionConflict) {
				t.Errorf("loser must fail with a retryable/stock error, got %v", err)
			}
		}
		if wins != 1 {
			t.Fatalf("expected exactly 1 winning checkout, got %d (%v, %v)", wins, errs[0], errs[1])
		}

		var stock int
		if err := r.DB.QueryRow(ctx, `SELECT stock FROM skus WHERE id = $1`, f.skuID).Scan(&stock); err != nil {
			t.Fatalf("read stock: %v", err)
		}
		if stock != 2 {
			t.Errorf("expected final stock 2, got %d", stock)
		}
	})

	t.Run("stale sku row aborts the decrement", func(t *testing.T) {
		f := seedCheckout(t, r.DB, 5, 2)

		// Hold the sku row so the checkout's conditional UPDATE blocks, then
		// touch updated_at before releasing: the re-evaluated WHERE must miss.
		tx, err := r.DB.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if _, err := tx.Exec(ctx, `SELECT id FROM skus WHERE id = $1 FOR UPDATE`, f.skuID); err != nil {
			t.Fatalf("row lock: %v", err)
		}

		done := make(chan error, 1)
		go func() {
			_, err := r.Checkout(ctx, f.buyerID, []CheckoutGroup{{
				ShopID:      f.sellerID,
				CartItemIDs: []int64{f.cartItemID},
			}})
			done <- err
		}()

		time.Sleep(500 * time.Millisecond) // let the checkout reach the decrement
		if _, err := tx.Exec(ctx, `UPDATE skus SET updated_at = now() WHERE id = $1`, f.skuID); err != nil {
			t.Fatalf("touch sku: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}

		if err := <-done; !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}

		// whole checkout rolled back: stock and cart untouched
		var stock, items int
		if err := r.DB.QueryRow(ctx, `SELECT stock FROM skus WHERE id = $1`, f.skuID).Scan(&stock); err != nil {
			t.Fatalf("read stock: %v", err)
		}
		if stock != 5 {
			t.Errorf("expected stock 5 after rollback, got %d", stock)
		}
		if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, f.buyerID).Scan(&items); err != nil {
			t.Fatalf("count cart: %v", err)
		}
		if items != 1 {
			t.Errorf("cart must survive rollback, got %d items", items)
		}
	})

	t.Run("paid payment moves orders to pickup", func(t *testing.T) {
		f := seedCheckout(t, r.DB, 5, 1)
		groups := []CheckoutGroup{{ShopID: f.sellerID, CartItemIDs: []int64{f.cartItemID}}}
		res, err := r.Checkout(ctx, f.buyerID, groups)
		if err != nil {
			t.Fatalf("checkout: %v", err)
		}

		paid, err := r.MarkPaid(ctx, res.PaymentID)
		if err != nil {
			t.Fatalf("mark paid: %v", err)
		}
		if !paid {
			t.Fatal("expected payment to flip to PAID")
		}
		o, err := r.Detail(ctx, f.buyerID, res.Orders[0].ID)
		if err != nil {
			t.Fatalf("detail: %v", err)
		}
		if o.Status != StatusPendingPickup {
			t.Errorf("expected PENDING_PICKUP, got %s", o.Status)
		}

		// too late to cancel now
		if _, err := r.CancelUnpaid(ctx, res.PaymentID); err != nil {
			t.Fatalf("cancel unpaid after paid: %v", err)
		}
	})
}
