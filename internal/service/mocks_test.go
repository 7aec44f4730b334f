package service

import (
	"context"
	"sync"
	"time"

	"github.com/simvol2030/project-kliee-sub000/internal/cache"
	"github.com/simvol2030/project-kliee-sub000/internal/domain"
	"github.com/simvol2030/project-kliee-sub000/internal/notify"
	"github.com/simvol2030/project-kliee-sub000/internal/repository"
)

// MockCartRepo implements CartRepository for testing
type MockCartRepo struct {
	Products map[int64]*domain.Product
	Items    []*domain.CartItem

	AddErr     error
	ListErr    error
	nextItemID int64
}

func (m *MockCartRepo) EnsureSession(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (m *MockCartRepo) ListCartItems(_ context.Context, sessionID string) ([]*domain.CartItem, map[int64]*domain.Product, error) {
	if m.ListErr != nil {
		return nil, nil, m.ListErr
	}
	var items []*domain.CartItem
	products := map[int64]*domain.Product{}
	for _, item := range m.Items {
		if item.SessionID != sessionID {
			continue
		}
		items = append(items, item)
		if p, ok := m.Products[item.ProductID]; ok {
			products[item.ProductID] = p
		}
	}
	return items, products, nil
}

func (m *MockCartRepo) AddCartItem(_ context.Context, sessionID string, productID, priceSnapshot int64) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	for _, item := range m.Items {
		if item.SessionID == sessionID && item.ProductID == productID {
			return repository.ErrDuplicateCartItem
		}
	}
	m.nextItemID++
	m.Items = append(m.Items, &domain.CartItem{
		ID:               m.nextItemID,
		SessionID:        sessionID,
		ProductID:        productID,
		PriceEURSnapshot: priceSnapshot,
		AddedAt:          time.Now(),
	})
	return nil
}

func (m *MockCartRepo) RemoveCartItemByProduct(_ context.Context, sessionID string, productID int64) error {
	for i, item := range m.Items {
		if item.SessionID == sessionID && item.ProductID == productID {
			m.Items = append(m.Items[:i], m.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockCartRepo) RemoveCartItem(_ context.Context, sessionID string, itemID int64) error {
	for i, item := range m.Items {
		if item.SessionID == sessionID && item.ID == itemID {
			m.Items = append(m.Items[:i], m.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockCartRepo) ClearCart(_ context.Context, sessionID string) error {
	var kept []*domain.CartItem
	for _, item := range m.Items {
		if item.SessionID != sessionID {
			kept = append(kept, item)
		}
	}
	m.Items = kept
	return nil
}

func (m *MockCartRepo) CountCartItems(_ context.Context, sessionID string) (int, error) {
	count := 0
	for _, item := range m.Items {
		if item.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

func (m *MockCartRepo) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *MockCartRepo) GetProductsByIDs(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	products := map[int64]*domain.Product{}
	for _, id := range ids {
		if p, ok := m.Products[id]; ok {
			products[id] = p
		}
	}
	return products, nil
}

// MockOrderRepo implements OrderRepository for testing
type MockOrderRepo struct {
	Cart     *MockCartRepo
	Orders   map[string]*domain.Order
	History  map[int64][]*domain.OrderStatusEntry
	nextID   int64

	CreateErr     error
	CreateErrOnce error // returned on the first call only, for retry tests
	CreatedOrders []*domain.Order
}

func NewMockOrderRepo(cart *MockCartRepo) *MockOrderRepo {
	return &MockOrderRepo{
		Cart:    cart,
		Orders:  map[string]*domain.Order{},
		History: map[int64][]*domain.OrderStatusEntry{},
	}
}

func (m *MockOrderRepo) ListCartItems(ctx context.Context, sessionID string) ([]*domain.CartItem, map[int64]*domain.Product, error) {
	return m.Cart.ListCartItems(ctx, sessionID)
}

func (m *MockOrderRepo) CreateOrder(ctx context.Context, order *domain.Order, sessionID string) (int64, error) {
	if m.CreateErrOnce != nil {
		err := m.CreateErrOnce
		m.CreateErrOnce = nil
		return 0, err
	}
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}

	m.nextID++
	order.ID = m.nextID
	saved := *order
	m.Orders[order.OrderNumber] = &saved
	m.CreatedOrders = append(m.CreatedOrders, &saved)
	m.History[order.ID] = []*domain.OrderStatusEntry{
		{OrderID: order.ID, Status: domain.OrderStatusPending},
	}
	_ = m.Cart.ClearCart(ctx, sessionID)
	return order.ID, nil
}

func (m *MockOrderRepo) GetOrderByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	order, ok := m.Orders[orderNumber]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *MockOrderRepo) ListOrders(_ context.Context) ([]*domain.Order, error) {
	var orders []*domain.Order
	for _, order := range m.Orders {
		orders = append(orders, order)
	}
	return orders, nil
}

func (m *MockOrderRepo) UpdateOrderStatus(_ context.Context, orderNumber string, next domain.OrderStatus, adminNote string, changedBy *int64) error {
	order, ok := m.Orders[orderNumber]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if !domain.CanTransitionTo(order.Status, next) {
		return repository.ErrIllegalTransition
	}
	order.Status = next
	if adminNote != "" {
		order.AdminNote = adminNote
	}
	m.History[order.ID] = append(m.History[order.ID], &domain.OrderStatusEntry{
		OrderID:   order.ID,
		Status:    next,
		ChangedBy: changedBy,
	})
	return nil
}

func (m *MockOrderRepo) ListStatusHistory(_ context.Context, orderID int64) ([]*domain.OrderStatusEntry, error) {
	return m.History[orderID], nil
}

// MockCache implements cache.CartCache with a plain map
type MockCache struct {
	mu      sync.Mutex
	items   map[string][]*domain.CartItem
	GetErr  error
	SetErr  error
	Deleted []string
}

func NewMockCache() *MockCache {
	return &MockCache{items: map[string][]*domain.CartItem{}}
}

func (m *MockCache) Get(_ context.Context, sessionID string) ([]*domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	items, ok := m.items[sessionID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return items, nil
}

func (m *MockCache) Set(_ context.Context, sessionID string, items []*domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.items[sessionID] = items
	return nil
}

func (m *MockCache) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, sessionID)
	m.Deleted = append(m.Deleted, sessionID)
	return nil
}

func (m *MockCache) Put(sessionID string, items []*domain.CartItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[sessionID] = items
}

func (m *MockCache) Has(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[sessionID]
	return ok
}

// MockRateSource implements RateSource
type MockRateSource struct {
	Rates map[string]string
	Err   error
}

func (m *MockRateSource) GetRate(_ context.Context, toCurrency string) (*domain.CurrencyRate, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	rate, ok := m.Rates[toCurrency]
	if !ok {
		return nil, repository.ErrRateNotFound
	}
	return &domain.CurrencyRate{FromCurrency: domain.BaseCurrency, ToCurrency: toCurrency, Rate: rate}, nil
}

// MockNotifier records the notifications it receives
type MockNotifier struct {
	mu       sync.Mutex
	Received []domain.OrderNotification
	Results  notify.Results
	done     chan struct{}
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{done: make(chan struct{}, 8)}
}

func (m *MockNotifier) Notify(_ context.Context, n domain.OrderNotification) notify.Results {
	m.mu.Lock()
	m.Received = append(m.Received, n)
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.Results
}

// Wait blocks until one notification has been dispatched.
func (m *MockNotifier) Wait(timeout time.Duration) bool {
	select {
	case <-m.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (m *MockNotifier) Last() domain.OrderNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Received[len(m.Received)-1]
}
