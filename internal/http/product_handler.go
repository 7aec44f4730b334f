package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/simvol2030/project-kliee-sub000/internal/domain"
	"github.com/simvol2030/project-kliee-sub000/internal/repository"
)

// CatalogAPI is the narrow read interface onto the product catalog.
type CatalogAPI interface {
	ListVisibleProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// RatesAPI lists the current currency rates for the storefront.
type RatesAPI interface {
	ListRates(ctx context.Context) ([]*domain.CurrencyRate, error)
}

type ProductHandler struct {
	catalog CatalogAPI
	rates   RatesAPI
	timeout time.Duration
}

func NewProductHandler(catalog CatalogAPI, rates RatesAPI, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		rates:   rates,
		timeout: timeout,
	}
}

type ProductDTO struct {
	ID          int64  `json:"id"`
	TitleEN     string `json:"title_en"`
	TitleRU     string `json:"title_ru"`
	TitleES     string `json:"title_es"`
	TitleZH     string `json:"title_zh"`
	Slug        string `json:"slug,omitempty"`
	PriceEUR    int64  `json:"price_eur"`
	ImageURL    string `json:"image_url,omitempty"`
	IsAvailable bool   `json:"is_available"`
}

func toProductDTO(p *domain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		TitleEN:     p.TitleEN,
		TitleRU:     p.TitleRU,
		TitleES:     p.TitleES,
		TitleZH:     p.TitleZH,
		Slug:        p.Slug,
		PriceEUR:    p.PriceEUR,
		ImageURL:    p.ImageURL,
		IsAvailable: p.Available(),
	}
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListVisibleProducts(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list products")
		return
	}

	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDTO(p))
	}

	respondJSON(w, http.StatusOK, dtos)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	product, err := h.catalog.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to fetch product")
		return
	}
	if !product.IsVisible {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}

	respondJSON(w, http.StatusOK, toProductDTO(product))
}

func (h *ProductHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rates, err := h.rates.ListRates(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list currencies")
		return
	}
	if rates == nil {
		rates = []*domain.CurrencyRate{}
	}

	respondJSON(w, http.StatusOK, rates)
}
