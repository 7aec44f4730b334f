package domain

// OrderNotification is the payload handed to the notification channels after
// an order has been committed.
type OrderNotification struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	Items []NotificationItem

	SubtotalEUR  int64
	TotalLocal   int64
	CurrencyCode string

	ShippingCountry string
	ShippingCity    string
	ShippingAddress string
	Note            string
	Lang            string
}

// NotificationItem is one order line in a notification message.
type NotificationItem struct {
	Title    string
	PriceEUR int64
}
