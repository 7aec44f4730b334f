package domain

import "time"

// BaseCurrency is the canonical currency all catalog prices and order
// subtotals are stored in.
const BaseCurrency = "EUR"

// CurrencyRate is the current exchange rate from the base currency. Rate is
// kept as a decimal string to preserve precision; there is no historical
// versioning, rows are overwritten in place.
type CurrencyRate struct {
	ID           int64     `json:"id"`
	FromCurrency string    `json:"from_currency"`
	ToCurrency   string    `json:"to_currency"`
	Rate         string    `json:"rate"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CurrencyForLang maps the buyer's display language to their order currency.
// The storefront derives the currency from the language instead of offering
// a currency selector.
func CurrencyForLang(lang string) string {
	switch lang {
	case "ru":
		return "RUB"
	case "zh":
		return "CNY"
	case "es":
		return "EUR"
	default:
		return "USD"
	}
}
