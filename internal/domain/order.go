package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order may move from status s to next.
// The happy path is pending -> confirmed -> processing -> shipped ->
// completed; cancellation is allowed from any non-terminal status.
func CanTransitionTo(s, next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed
	case OrderStatusConfirmed:
		return next == OrderStatusProcessing
	case OrderStatusProcessing:
		return next == OrderStatusShipped
	case OrderStatusShipped:
		return next == OrderStatusCompleted
	}
	return false
}

// CustomerInfo is the checkout form payload. Phone and Note are optional.
type CustomerInfo struct {
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	ShippingCountry string `json:"shipping_country"`
	ShippingCity    string `json:"shipping_city"`
	ShippingAddress string `json:"shipping_address"`
	ShippingPostal  string `json:"shipping_postal"`
	Note            string `json:"note,omitempty"`
	Lang            string `json:"lang,omitempty"`
}

// Order is immutable after creation except Status and AdminNote; every status
// change appends to the order's status history.
type Order struct {
	ID          int64
	OrderNumber string
	Status      OrderStatus
	Lang        string

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingCountry string
	ShippingCity    string
	ShippingAddress string
	ShippingPostal  string
	Note            string
	AdminNote       string

	// SubtotalEUR is priced off the live catalog at checkout time.
	SubtotalEUR int64
	// CurrencyCode and CurrencyRate are snapshotted so later rate updates
	// never change what the buyer was quoted.
	CurrencyCode string
	CurrencyRate string
	TotalLocal   int64

	Items     []OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem snapshots price and localized title at checkout time. Catalog
// edits after the sale must never alter historical order content.
type OrderItem struct {
	ID            int64
	OrderID       int64
	ProductID     int64
	PriceEUR      int64
	TitleSnapshot string
}

// OrderStatusEntry is one row of the append-only status audit trail.
// ChangedBy is nil for system transitions (the initial "pending" row).
type OrderStatusEntry struct {
	ID        int64
	OrderID   int64
	Status    OrderStatus
	ChangedBy *int64
	CreatedAt time.Time
}
