package client

import "time"

// Product is a commerce platform product listing.
type Product struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Quantity    int     `json:"quantity"`
}

// ProductPage is one page of a product search.
type ProductPage struct {
	Products      []Product `json:"products"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
}

// OrderItem is a single line in an order.
type OrderItem struct {
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is a commerce platform order.
type Order struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	Currency  string      `json:"currency"`
	CreatedAt time.Time   `json:"createdAt"`
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders        []Order `json:"orders"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// InventoryUpdate is the request body for an inventory write.
type InventoryUpdate struct {
	Quantity int `json:"quantity"`
}
