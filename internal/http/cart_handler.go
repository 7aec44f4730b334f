package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/simvol2030/project-kliee-sub000/internal/domain"
	"github.com/simvol2030/project-kliee-sub000/internal/service"
)

// CartAPI is what the cart endpoints need from the service layer.
type CartAPI interface {
	List(ctx context.Context, sessionID string) (*domain.CartView, error)
	Add(ctx context.Context, sessionID string, productID int64) error
	RemoveByProduct(ctx context.Context, sessionID string, productID int64) error
	Remove(ctx context.Context, sessionID string, itemID int64) error
	Clear(ctx context.Context, sessionID string) error
	Count(ctx context.Context, sessionID string) (int, error)
}

type CartHandler struct {
	cart    CartAPI
	timeout time.Duration
}

func NewCartHandler(cart CartAPI, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type CartMutationResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusInternalServerError, "internal_error", "missing cart session")
		return
	}

	view, err := h.cart.List(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to fetch cart")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusInternalServerError, "internal_error", "missing cart session")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	if err := h.cart.Add(ctx, sessionID, req.ProductID); err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(w, http.StatusNotFound, "not_found", "product not found or not for sale")
		case errors.Is(err, service.ErrOutOfStock):
			respondError(w, http.StatusBadRequest, "out_of_stock", "product is out of stock")
		case errors.Is(err, service.ErrAlreadyInCart):
			respondError(w, http.StatusConflict, "already_in_cart", "item already in cart")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to add item to cart")
		}
		return
	}

	count, err := h.cart.Count(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to count cart items")
		return
	}

	respondJSON(w, http.StatusCreated, CartMutationResponse{Success: true, Count: count})
}

// RemoveItem handles removal by item id, by product id, or clearing the
// whole cart with ?clear=true. Removing something that is not there is a
// no-op success.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusInternalServerError, "internal_error", "missing cart session")
		return
	}

	q := r.URL.Query()

	if q.Get("clear") == "true" {
		if err := h.cart.Clear(ctx, sessionID); err != nil {
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
			return
		}
		respondJSON(w, http.StatusOK, CartMutationResponse{Success: true, Count: 0})
		return
	}

	switch {
	case q.Get("id") != "":
		itemID, err := strconv.ParseInt(q.Get("id"), 10, 64)
		if err != nil || itemID <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
			return
		}
		if err := h.cart.Remove(ctx, sessionID, itemID); err != nil {
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to remove item from cart")
			return
		}
	case q.Get("product_id") != "":
		productID, err := strconv.ParseInt(q.Get("product_id"), 10, 64)
		if err != nil || productID <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
			return
		}
		if err := h.cart.RemoveByProduct(ctx, sessionID, productID); err != nil {
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to remove item from cart")
			return
		}
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "id, product_id, or clear=true required")
		return
	}

	count, err := h.cart.Count(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to count cart items")
		return
	}

	respondJSON(w, http.StatusOK, CartMutationResponse{Success: true, Count: count})
}
