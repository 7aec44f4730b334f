package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/simvol2030/project-kliee-sub000/internal/domain"
	"github.com/simvol2030/project-kliee-sub000/internal/service"
)

// OrderAPI is what the order endpoints need from the service layer.
type OrderAPI interface {
	CreateOrder(ctx context.Context, sessionID string, info domain.CustomerInfo) (*service.CreateOrderResult, error)
	GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderNumber string, next domain.OrderStatus, adminNote string, changedBy *int64) error
}

type OrdersHandler struct {
	orders       OrderAPI
	timeout      time.Duration
	secureCookie bool
}

func NewOrdersHandler(orders OrderAPI, timeout time.Duration, secureCookie bool) *OrdersHandler {
	return &OrdersHandler{
		orders:       orders,
		timeout:      timeout,
		secureCookie: secureCookie,
	}
}

type CreateOrderResponse struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"order_number"`
	OrderID     int64  `json:"order_id"`
}

func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// an order needs an existing cart; never mint a session here
	sessionID := existingSessionID(r)
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "no_cart_session", "no cart session found")
		return
	}

	var info domain.CustomerInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.orders.CreateOrder(ctx, sessionID, info)
	if err != nil {
		var validation *service.ValidationError
		switch {
		case errors.As(err, &validation):
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   validation.Message,
				Code:    "validation_error",
				Details: validation.Field,
			})
		case errors.Is(err, service.ErrEmptyCart):
			respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
		case errors.Is(err, service.ErrItemsUnavailable):
			respondError(w, http.StatusBadRequest, "items_unavailable", "some items are no longer available")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to create order")
		}
		return
	}

	clearCartCookie(w, h.secureCookie)

	respondJSON(w, http.StatusCreated, CreateOrderResponse{
		Success:     true,
		OrderNumber: result.OrderNumber,
		OrderID:     result.OrderID,
	})
}

// order lookup exposes only what the confirmation page needs
type OrderItemDTO struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	PriceEUR  int64  `json:"price_eur"`
}

type OrderDTO struct {
	ID              int64          `json:"id"`
	OrderNumber     string         `json:"order_number"`
	Status          string         `json:"status"`
	CustomerName    string         `json:"customer_name"`
	CustomerEmail   string         `json:"customer_email"`
	ShippingCountry string         `json:"shipping_country"`
	ShippingCity    string         `json:"shipping_city"`
	SubtotalEUR     int64          `json:"subtotal_eur"`
	CurrencyCode    string         `json:"currency_code"`
	TotalLocal      int64          `json:"total_local"`
	CreatedAt       time.Time      `json:"created_at"`
	Items           []OrderItemDTO `json:"items"`
}

func toOrderDTO(order *domain.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          string(order.Status),
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		ShippingCountry: order.ShippingCountry,
		ShippingCity:    order.ShippingCity,
		SubtotalEUR:     order.SubtotalEUR,
		CurrencyCode:    order.CurrencyCode,
		TotalLocal:      order.TotalLocal,
		CreatedAt:       order.CreatedAt,
		Items:           []OrderItemDTO{},
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID: item.ProductID,
			Title:     item.TitleSnapshot,
			PriceEUR:  item.PriceEUR,
		})
	}
	return dto
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderNumber := chi.URLParam(r, "order_number")
	if orderNumber == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "order number is required")
		return
	}

	order, err := h.orders.GetOrder(ctx, orderNumber)
	if errors.Is(err, service.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to fetch order")
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	dtos := make([]OrderDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, toOrderDTO(order))
	}

	respondJSON(w, http.StatusOK, dtos)
}

type UpdateStatusRequestDTO struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note,omitempty"`
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderNumber := chi.URLParam(r, "order_number")
	if orderNumber == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "order number is required")
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.orders.UpdateStatus(ctx, orderNumber, domain.OrderStatus(req.Status), req.AdminNote, nil)
	if err != nil {
		var validation *service.ValidationError
		switch {
		case errors.As(err, &validation):
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   validation.Message,
				Code:    "validation_error",
				Details: validation.Field,
			})
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "not_found", "order not found")
		case errors.Is(err, service.ErrIllegalTransition):
			respondError(w, http.StatusConflict, "illegal_transition", "order cannot move to that status")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to update order status")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
