package cart

import (
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/catalog"
)

type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	SKUID     int64     `json:"sku_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SKUView struct {
	ID        int64       `json:"id"`
	Value     string      `json:"value"`
	Price     int64       `json:"price"`
	Stock     int         `json:"stock"`
	Image     string      `json:"image"`
	ProductID int64       `json:"product_id"`
	Product   ProductView `json:"product"`
}

type ProductView struct {
	ID           int64                 `json:"id"`
	Name         string                `json:"name"`
	PublishedAt  *time.Time            `json:"published_at"`
	Translations []catalog.Translation `json:"translations"`
}

type ItemDetail struct {
	CartItem
	SKU SKUView `json:"sku"`
}

// ShopGroup bundles a user's cart items sold by one shop; checkout takes the
// same per-shop partitioning as input.
type ShopGroup struct {
	ShopID int64        `json:"shop_id"`
	Items  []ItemDetail `json:"cart_items"`
}

type CartList struct {
	Data       []ShopGroup `json:"data"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalItems int         `json:"total_items"`
	TotalPages int         `json:"total_pages"`
}
