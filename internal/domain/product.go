package domain

import "time"

// Product is a sellable item from the catalog. Prices are stored in whole
// EUR, the base currency for the whole shop.
type Product struct {
	ID            int64
	TitleEN       string
	TitleRU       string
	TitleES       string
	TitleZH       string
	Slug          string
	PriceEUR      int64
	ImageURL      string
	IsVisible     bool
	IsForSale     bool
	StockQuantity int
	IsUnlimited   bool
	CreatedAt     time.Time
}

// TitleFor returns the localized title for the given language, falling back
// to English.
func (p *Product) TitleFor(lang string) string {
	switch lang {
	case "ru":
		return p.TitleRU
	case "es":
		return p.TitleES
	case "zh":
		return p.TitleZH
	default:
		return p.TitleEN
	}
}

// Available reports whether the product can be purchased right now: it must
// be visible and for sale, with either unlimited stock or at least one unit
// left. Pure predicate over current catalog state, used both for cart display
// and as the hard gate before order creation.
func (p *Product) Available() bool {
	if p == nil {
		return false
	}
	if !p.IsVisible || !p.IsForSale {
		return false
	}
	return p.IsUnlimited || p.StockQuantity > 0
}
