package domain

import "time"

// CartSession identifies an anonymous buyer via an opaque cookie token.
// Exactly one row exists per buyer agent; the row is deleted when an order
// is finalized or by the expiry sweep.
type CartSession struct {
	ID        int64
	SessionID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CartItem is one product in a session's cart. Artworks are unique goods, so
// there are no quantities: (session_id, product_id) is unique.
type CartItem struct {
	ID        int64
	SessionID string
	ProductID int64
	// PriceEURSnapshot is the catalog price at add-time. Display only;
	// checkout re-reads the live price.
	PriceEURSnapshot int64
	AddedAt          time.Time
}

// CartViewItem is a cart item joined with current product data for display.
type CartViewItem struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	PriceEUR    int64     `json:"price_eur"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsAvailable bool      `json:"is_available"`
	AddedAt     time.Time `json:"added_at"`
}

// CartView is what the cart endpoint returns. Total sums only the available
// items; unavailable items are still listed so the buyer can see them.
type CartView struct {
	Items    []CartViewItem `json:"items"`
	Count    int            `json:"count"`
	TotalEUR int64          `json:"total_eur"`
}
