package service

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"

	"github.com/simvol2030/project-kliee-sub000/internal/domain"
	"github.com/simvol2030/project-kliee-sub000/internal/repository"
)

// RateSource looks up the current exchange rate for a target currency.
type RateSource interface {
	GetRate(ctx context.Context, toCurrency string) (*domain.CurrencyRate, error)
}

// CurrencyService converts base-currency amounts to display currencies. A
// missing rate degrades to the identity rate with a warning; checkout must
// never break over a stale rate table.
type CurrencyService struct {
	rates RateSource
}

func NewCurrencyService(rates RateSource) *CurrencyService {
	return &CurrencyService{rates: rates}
}

// RateFor returns the stored decimal rate string and its parsed value for
// the target currency. The base currency and unknown currencies both map to
// the identity rate "1".
func (s *CurrencyService) RateFor(ctx context.Context, toCurrency string) (string, float64) {
	if toCurrency == domain.BaseCurrency {
		return "1", 1
	}

	rate, err := s.rates.GetRate(ctx, toCurrency)
	if errors.Is(err, repository.ErrRateNotFound) {
		log.Printf("no currency rate for %s, falling back to 1", toCurrency)
		return "1", 1
	}
	if err != nil {
		log.Printf("currency rate lookup for %s failed: %v", toCurrency, err)
		return "1", 1
	}

	value, errParse := strconv.ParseFloat(rate.Rate, 64)
	if errParse != nil || value <= 0 {
		log.Printf("invalid currency rate %q for %s, falling back to 1", rate.Rate, toCurrency)
		return "1", 1
	}

	return rate.Rate, value
}

// Convert applies a rate to a base amount, rounding to the nearest whole
// currency unit. The storefront prices everything in whole units.
func (s *CurrencyService) Convert(amountBase int64, rate float64) int64 {
	return int64(math.Round(float64(amountBase) * rate))
}
