package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/simvol2030/project-kliee-sub000/internal/cache"
	"github.com/simvol2030/project-kliee-sub000/internal/domain"
	"github.com/simvol2030/project-kliee-sub000/internal/notify"
	"github.com/simvol2030/project-kliee-sub000/internal/repository"
)

// OrderRepository is the slice of the store the order service needs.
type OrderRepository interface {
	ListCartItems(ctx context.Context, sessionID string) ([]*domain.CartItem, map[int64]*domain.Product, error)
	CreateOrder(ctx context.Context, order *domain.Order, sessionID string) (int64, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderNumber string, next domain.OrderStatus, adminNote string, changedBy *int64) error
	ListStatusHistory(ctx context.Context, orderID int64) ([]*domain.OrderStatusEntry, error)
}

// Notifier fans an order out to the configured channels. Delivery is
// best-effort and must never fail the order.
type Notifier interface {
	Notify(ctx context.Context, n domain.OrderNotification) notify.Results
}

type OrderService struct {
	repo     OrderRepository
	currency *CurrencyService
	notifier Notifier
	cache    cache.CartCache

	notifyTimeout time.Duration
}

func NewOrderService(repo OrderRepository, currency *CurrencyService, notifier Notifier, cartCache cache.CartCache) *OrderService {
	return &OrderService{
		repo:          repo,
		currency:      currency,
		notifier:      notifier,
		cache:         cartCache,
		notifyTimeout: 30 * time.Second,
	}
}

type CreateOrderResult struct {
	OrderID     int64
	OrderNumber string
}

const orderNumberAttempts = 3

// CreateOrder turns the session's cart into a durable order: re-validate
// every item against the live catalog, price off the live catalog (never the
// cart's stale snapshot), snapshot currency and localized titles, persist
// everything in one transaction that also consumes the cart, then dispatch
// notifications without blocking the response.
func (s *OrderService) CreateOrder(ctx context.Context, sessionID string, info domain.CustomerInfo) (*CreateOrderResult, error) {
	items, products, err := s.repo.ListCartItems(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// re-validation at checkout time is the guarantee against stale carts
	for _, item := range items {
		if !products[item.ProductID].Available() {
			return nil, ErrItemsUnavailable
		}
	}

	if err := validateCustomerInfo(&info); err != nil {
		return nil, err
	}

	lang := info.Lang
	if lang == "" {
		lang = "en"
	}

	var subtotal int64
	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		p := products[item.ProductID]
		subtotal += p.PriceEUR
		orderItems = append(orderItems, domain.OrderItem{
			ProductID:     p.ID,
			PriceEUR:      p.PriceEUR,
			TitleSnapshot: p.TitleFor(lang),
		})
	}

	currencyCode := domain.CurrencyForLang(lang)
	rateStr, rateVal := s.currency.RateFor(ctx, currencyCode)
	totalLocal := s.currency.Convert(subtotal, rateVal)

	order := &domain.Order{
		Status:          domain.OrderStatusPending,
		Lang:            lang,
		CustomerName:    info.CustomerName,
		CustomerEmail:   strings.ToLower(info.CustomerEmail),
		CustomerPhone:   info.CustomerPhone,
		ShippingCountry: info.ShippingCountry,
		ShippingCity:    info.ShippingCity,
		ShippingAddress: info.ShippingAddress,
		ShippingPostal:  info.ShippingPostal,
		Note:            info.Note,
		SubtotalEUR:     subtotal,
		CurrencyCode:    currencyCode,
		CurrencyRate:    rateStr,
		TotalLocal:      totalLocal,
		Items:           orderItems,
	}

	// order-number collisions are rare; regenerate instead of failing
	var orderID int64
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = generateOrderNumber()
		orderID, err = s.repo.CreateOrder(ctx, order, sessionID)
		if errors.Is(err, repository.ErrDuplicateOrderNumber) {
			continue
		}
		break
	}
	if errors.Is(err, repository.ErrProductNotForSale) || errors.Is(err, repository.ErrProductNotFound) {
		return nil, ErrItemsUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.invalidateCartCache(sessionID)

	go s.dispatchNotifications(order)

	return &CreateOrderResult{OrderID: orderID, OrderNumber: order.OrderNumber}, nil
}

func (s *OrderService) dispatchNotifications(order *domain.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()

	items := make([]domain.NotificationItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = domain.NotificationItem{Title: item.TitleSnapshot, PriceEUR: item.PriceEUR}
	}

	results := s.notifier.Notify(ctx, domain.OrderNotification{
		OrderNumber:     order.OrderNumber,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
		Items:           items,
		SubtotalEUR:     order.SubtotalEUR,
		TotalLocal:      order.TotalLocal,
		CurrencyCode:    order.CurrencyCode,
		ShippingCountry: order.ShippingCountry,
		ShippingCity:    order.ShippingCity,
		ShippingAddress: order.ShippingAddress,
		Note:            order.Note,
		Lang:            order.Lang,
	})

	log.Printf("order %s notifications: customer_email=%t admin_email=%t telegram=%t",
		order.OrderNumber, results.EmailCustomer, results.EmailAdmin, results.Telegram)
}

func (s *OrderService) invalidateCartCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("cache invalidate error: %v \n", err)
	}
}

func (s *OrderService) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, err := s.repo.GetOrderByNumber(ctx, orderNumber)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.ListOrders(ctx)
}

// UpdateStatus moves an order along its lifecycle, appending to the audit
// trail. ChangedBy identifies the admin actor when known.
func (s *OrderService) UpdateStatus(ctx context.Context, orderNumber string, next domain.OrderStatus, adminNote string, changedBy *int64) error {
	if !next.Valid() {
		return &ValidationError{Field: "status", Message: "unknown order status"}
	}

	err := s.repo.UpdateOrderStatus(ctx, orderNumber, next, adminNote, changedBy)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return ErrOrderNotFound
	}
	if errors.Is(err, repository.ErrIllegalTransition) {
		return ErrIllegalTransition
	}
	return err
}

func (s *OrderService) StatusHistory(ctx context.Context, orderID int64) ([]*domain.OrderStatusEntry, error) {
	return s.repo.ListStatusHistory(ctx, orderID)
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateCustomerInfo(info *domain.CustomerInfo) error {
	info.CustomerName = strings.TrimSpace(info.CustomerName)
	info.CustomerEmail = strings.TrimSpace(info.CustomerEmail)
	info.CustomerPhone = strings.TrimSpace(info.CustomerPhone)
	info.ShippingCountry = strings.TrimSpace(info.ShippingCountry)
	info.ShippingCity = strings.TrimSpace(info.ShippingCity)
	info.ShippingAddress = strings.TrimSpace(info.ShippingAddress)
	info.ShippingPostal = strings.TrimSpace(info.ShippingPostal)
	info.Note = strings.TrimSpace(info.Note)

	required := []struct {
		field, value, message string
	}{
		{"customer_name", info.CustomerName, "customer name is required"},
		{"customer_email", info.CustomerEmail, "customer email is required"},
		{"shipping_country", info.ShippingCountry, "shipping country is required"},
		{"shipping_city", info.ShippingCity, "shipping city is required"},
		{"shipping_address", info.ShippingAddress, "shipping address is required"},
		{"shipping_postal", info.ShippingPostal, "shipping postal code is required"},
	}
	for _, req := range required {
		if req.value == "" {
			return &ValidationError{Field: req.field, Message: req.message}
		}
	}

	if !emailShape.MatchString(info.CustomerEmail) {
		return &ValidationError{Field: "customer_email", Message: "invalid email format"}
	}

	return nil
}

const orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateOrderNumber builds a human-legible number from a base-36 timestamp
// and a short random suffix, e.g. KL-M3X9A1BC-Q7F2.
func generateOrderNumber() string {
	timestamp := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = orderNumberCharset[rand.Intn(len(orderNumberCharset))]
	}
	return fmt.Sprintf("KL-%s-%s", timestamp, suffix)
}
