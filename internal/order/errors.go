package order

import "errors"

var (
	ErrNotFoundCartItem   = errors.New("order: cart item not found")
	ErrOutOfStock         = errors.New("order: sku out of stock")
	ErrProductNotFound    = errors.New("order: product not found")
	ErrSKUNotBelongToShop = errors.New("order: sku does not belong to shop")
	// ErrVersionConflict: baris SKU berubah di antara read dan decrement.
	// Lease seharusnya mencegah ini; version check tetap jadi penjaga terakhir.
	ErrVersionConflict   = errors.New("order: sku version conflict")
	ErrOrderNotFound     = errors.New("order: order not found")
	ErrCannotCancelOrder = errors.New("order: order can no longer be cancelled")
)
