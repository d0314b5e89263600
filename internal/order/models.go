package order

import "time"

type Receiver struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ProductTranslation is snapshotted into order items; later catalog edits
// must never change historical order content.
type ProductTranslation struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LanguageID  string `json:"language_id"`
}

type Payment struct {
	ID        int64         `json:"id"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

type Order struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	ShopID    int64       `json:"shop_id"`
	PaymentID int64       `json:"payment_id"`
	Status    Status      `json:"status"`
	Receiver  Receiver    `json:"receiver"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem is an immutable snapshot taken at checkout time.
type OrderItem struct {
	ID           int64                `json:"id"`
	OrderID      int64                `json:"order_id"`
	ProductID    int64                `json:"product_id"`
	ProductName  string               `json:"product_name"`
	SKUID        int64                `json:"sku_id"`
	SKUValue     string               `json:"sku_value"`
	SKUPrice     int64                `json:"sku_price"` // cents
	Image        string               `json:"image"`
	Quantity     int                  `json:"quantity"`
	Translations []ProductTranslation `json:"translations"`
}

type CheckoutGroup struct {
	ShopID      int64    `json:"shop_id"`
	Receiver    Receiver `json:"receiver"`
	CartItemIDs []int64  `json:"cart_item_ids"`
}

type CheckoutResult struct {
	PaymentID int64   `json:"payment_id"`
	Orders    []Order `json:"orders"`
}

type ListQuery struct {
	Status Status // optional; empty = all
	Page   int
	Limit  int
}

type OrderList struct {
	Data       []Order `json:"data"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalItems int     `json:"total_items"`
	TotalPages int     `json:"total_pages"`
}
