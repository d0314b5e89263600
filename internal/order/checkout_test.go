package order

import (
	"errors"
	"testing"
	"time"
)

func liveItem(cartItemID, skuID, shopID int64, qty, stock int) checkoutItem {
	published := time.Now().Add(-time.Hour)
	return checkoutItem{
		CartItemID:   cartItemID,
		Quantity:     qty,
		SKUID:        skuID,
		SKUValue:     "red/L",
		SKUPrice:     1500,
		Stock:        stock,
		SKUUpdatedAt: time.Now().Add(-time.Minute),
		ShopID:       shopID,
		ProductID:    skuID + 100,
		ProductName:  "shirt",
		PublishedAt:  &published,
	}
}

func TestBuildCheckoutPlan(t *testing.T) {
	now := time.Now()

	t.Run("one order per shop group", func(t *testing.T) {
		groups := []CheckoutGroup{
			{ShopID: 1, Receiver: Receiver{Name: "a"}, CartItemIDs: []int64{10, 11}},
			{ShopID: 2, Receiver: Receiver{Name: "b"}, CartItemIDs: []int64{12}},
		}
		items := []checkoutItem{
			liveItem(10, 100, 1, 2, 5),
			liveItem(11, 101, 1, 1, 5),
			liveItem(12, 102, 2, 3, 5),
		}
		plan, err := buildCheckoutPlan(groups, items, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(plan.groups) != 2 {
			t.Fatalf("expected 2 planned orders, got %d", len(plan.groups))
		}
		if len(plan.groups[0].items) != 2 || len(plan.groups[1].items) != 1 {
			t.Errorf("items not partitioned per group: %d/%d", len(plan.groups[0].items), len(plan.groups[1].items))
		}
		if plan.groups[0].receiver.Name != "a" || plan.groups[1].receiver.Name != "b" {
			t.Error("receiver not carried into planned order")
		}
		if len(plan.decrements) != 3 {
			t.Fatalf("expected 3 decrements, got %d", len(plan.decrements))
		}
		for _, d := range plan.decrements {
			if d.readStamp.IsZero() {
				t.Error("decrement missing version stamp")
			}
		}
	})

	t.Run("missing cart item", func(t *testing.T) {
		groups := []CheckoutGroup{{ShopID: 1, CartItemIDs: []int64{10, 99}}}
		items := []checkoutItem{liveItem(10, 100, 1, 1, 5)}
		if _, err := buildCheckoutPlan(groups, items, now); !errors.Is(err, ErrNotFoundCartItem) {
			t.Fatalf("expected ErrNotFoundCartItem, got %v", err)
		}
	})

	t.Run("duplicate cart item ids", func(t *testing.T) {
		// body claims two items, the fetched set collapses to one
		groups := []CheckoutGroup{{ShopID: 1, CartItemIDs: []int64{10, 10}}}
		items := []checkoutItem{liveItem(10, 100, 1, 1, 5)}
		if _, err := buildCheckoutPlan(groups, items, now); !errors.Is(err, ErrNotFoundCartItem) {
			t.Fatalf("expected ErrNotFoundCartItem, got %v", err)
		}
	})

	t.Run("empty groups", func(t *testing.T) {
		if _, err := buildCheckoutPlan(nil, nil, now); !errors.Is(err, ErrNotFoundCartItem) {
			t.Fatalf("expected ErrNotFoundCartItem, got %v", err)
		}
	})

	t.Run("one short sku fails the whole checkout", func(t *testing.T) {
		groups := []CheckoutGroup{{ShopID: 1, CartItemIDs: []int64{10, 11}}}
		items := []checkoutItem{
			liveItem(10, 100, 1, 2, 5),
			liveItem(11, 101, 1, 6, 5),
		}
		if _, err := buildCheckoutPlan(groups, items, now); !errors.Is(err, ErrOutOfStock) {
			t.Fatalf("expected ErrOutOfStock, got %v", err)
		}
	})

	t.Run("deleted product", func(t *testing.T) {
		it := liveItem(10, 100, 1, 1, 5)
		deleted := now.Add(-time.Minute)
		it.DeletedAt = &deleted
		groups := []CheckoutGroup{{ShopID: 1, CartItemIDs: []int64{10}}}
		if _, err := buildCheckoutPlan(groups, []checkoutItem{it}, now); !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("unpublished product", func(t *testing.T) {
		it := liveItem(10, 100, 1, 1, 5)
		it.PublishedAt = nil
		groups := []CheckoutGroup{{ShopID: 1, CartItemIDs: []int64{10}}}
		if _, err := buildCheckoutPlan(groups, []checkoutItem{it}, now); !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("future published product", func(t *testing.T) {
		it := liveItem(10, 100, 1, 1, 5)
		future := now.Add(time.Hour)
		it.PublishedAt = &future
		groups := []CheckoutGroup{{ShopID: 1, CartItemIDs: []int64{10}}}
		if _, err := buildCheckoutPlan(groups, []checkoutItem{it}, now); !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("sku under the wrong shop group", func(t *testing.T) {
		groups := []CheckoutGroup{
			{ShopID: 1, CartItemIDs: []int64{10}},
			{ShopID: 2, CartItemIDs: []int64{11}},
		}
		items := []checkoutItem{
			liveItem(10, 100, 1, 1, 5),
			liveItem(11, 101, 1, 1, 5), // belongs to shop 1, grouped under shop 2
		}
		if _, err := buildCheckoutPlan(groups, items, now); !errors.Is(err, ErrSKUNotBelongToShop) {
			t.Fatalf("expected ErrSKUNotBelongToShop, got %v", err)
		}
	})

	t.Run("stock check wins over product check", func(t *testing.T) {
		it := liveItem(10, 100, 1, 9, 5)
		deleted := now.Add(-time.Minute)
		it.DeletedAt = &deleted
		groups := []CheckoutGroup{{ShopID: 1, CartItemIDs: []int64{10}}}
		if _, err := buildCheckoutPlan(groups, []checkoutItem{it}, now); !errors.Is(err, ErrOutOfStock) {
			t.Fatalf("expected ErrOutOfStock, got %v", err)
		}
	})

	t.Run("product check wins over shop check", func(t *testing.T) {
		it := liveItem(10, 100, 1, 1, 5)
		it.PublishedAt = nil
		groups := []CheckoutGroup{{ShopID: 2, CartItemIDs: []int64{10}}}
		if _, err := buildCheckoutPlan(groups, []checkoutItem{it}, now); !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})
}
