package catalog

import "time"

type Product struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	BasePrice   int64      `json:"base_price"` // cents
	CreatedByID int64      `json:"created_by_id"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Translations []Translation `json:"translations,omitempty"`
}

type Translation struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	LanguageID  string `json:"language_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SKU struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	Value       string    `json:"value"`
	Price       int64     `json:"price"` // cents
	Stock       int       `json:"stock"`
	Image       string    `json:"image"`
	CreatedByID int64     `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"` // version stamp; checkout decrements against it
}

type ProductDetail struct {
	Product
	SKUs []SKU `json:"skus"`
}

type ListQuery struct {
	CreatedByID *int64
	IsPublic    *bool
	MinPrice    *int64
	MaxPrice    *int64
	Name        string
	SortByPrice bool
	Ascending   bool
	Page        int
	Limit       int
}

type ProductList struct {
	Data       []Product `json:"data"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalItems int       `json:"total_items"`
	TotalPages int       `json:"total_pages"`
}
