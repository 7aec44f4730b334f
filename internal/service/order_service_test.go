package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/simvol2030/project-kliee-sub000/internal/domain"
	"github.com/simvol2030/project-kliee-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCustomerInfo() domain.CustomerInfo {
	return domain.CustomerInfo{
		CustomerName:    "Jane Doe",
		CustomerEmail:   "Jane@Example.com",
		CustomerPhone:   "+49 30 123456",
		ShippingCountry: "Germany",
		ShippingCity:    "Berlin",
		ShippingAddress: "Torstr. 1",
		ShippingPostal:  "10119",
		Note:            "ring the bell",
		Lang:            "en",
	}
}

type orderFixture struct {
	cart     *MockCartRepo
	repo     *MockOrderRepo
	rates    *MockRateSource
	notifier *MockNotifier
	cache    *MockCache
	svc      *OrderService
}

func newOrderFixture() *orderFixture {
	cart := &MockCartRepo{Products: map[int64]*domain.Product{}}
	repo := NewMockOrderRepo(cart)
	rates := &MockRateSource{Rates: map[string]string{}}
	notifier := NewMockNotifier()
	mockCache := NewMockCache()
	svc := NewOrderService(repo, NewCurrencyService(rates), notifier, mockCache)
	return &orderFixture{cart: cart, repo: repo, rates: rates, notifier: notifier, cache: mockCache, svc: svc}
}

func (f *orderFixture) addToCart(t *testing.T, sessionID string, p *domain.Product) {
	t.Helper()
	f.cart.Products[p.ID] = p
	require.NoError(t, f.cart.AddCartItem(context.Background(), sessionID, p.ID, p.PriceEUR))
}

var orderNumberShape = regexp.MustCompile(`^KL-[0-9A-Z]+-[0-9A-Z]{4}$`)

func TestCreateOrder_Success(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(t, "sess-1", testProduct(1, 25000))
	f.addToCart(t, "sess-1", testProduct(2, 30000))

	result, err := f.svc.CreateOrder(context.Background(), "sess-1", validCustomerInfo())
	require.NoError(t, err)
	assert.Regexp(t, orderNumberShape, result.OrderNumber)

	order, err := f.svc.GetOrder(context.Background(), result.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, int64(55000), order.SubtotalEUR)
	assert.Equal(t, "USD", order.CurrencyCode)
	assert.Equal(t, "1", order.CurrencyRate, "no USD rate loaded, identity fallback")
	assert.Equal(t, int64(55000), order.TotalLocal)
	assert.Equal(t, "jane@example.com", order.CustomerEmail)
	assert.Len(t, order.Items, 2)

	// the cart is consumed by the order
	count, err := f.cart.CountCartItems(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.CreateOrder(context.Background(), "sess-1", validCustomerInfo())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateOrder_UnavailableItemBlocksCheckout(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(t, "sess-1", testProduct(1, 25000))
	sold := testProduct(2, 30000)
	f.addToCart(t, "sess-1", sold)

	sold.IsForSale = false
	sold.StockQuantity = 0

	_, err := f.svc.CreateOrder(context.Background(), "sess-1", validCustomerInfo())
	assert.ErrorIs(t, err, ErrItemsUnavailable)
	assert.Empty(t, f.repo.CreatedOrders)
}

func TestCreateOrder_PricesFromLiveCatalog(t *testing.T) {
	f := newOrderFixture()
	p := testProduct(1, 25000)
	f.cart.Products[p.ID] = p
	// stale snapshot from before a price change
	require.NoError(t, f.cart.AddCartItem(context.Background(), "sess-1", p.ID, 20000))
	p.PriceEUR = 25000

	result, err := f.svc.CreateOrder(context.Background(), "sess-1", validCustomerInfo())
	require.NoError(t, err)

	order, err := f.svc.GetOrder(context.Background(), result.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), order.SubtotalEUR)
	assert.Equal(t, int64(25000), order.Items[0].PriceEUR)
}

func TestCreateOrder_LocalizedTitleSnapshot(t *testing.T) {
	f := newOrderFixture()
	p := testProduct(1, 25000)
	p.TitleRU = "Картина"
	f.addToCart(t, "sess-1", p)
	f.rates.Rates["RUB"] = "105.5"

	info := validCustomerInfo()
	info.Lang = "ru"

	result, err := f.svc.CreateOrder(context.Background(), "sess-1", info)
	require.NoError(t, err)

	order, err := f.svc.GetOrder(context.Background(), result.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "Картина", order.Items[0].TitleSnapshot)
	assert.Equal(t, "RUB", order.CurrencyCode)
	assert.Equal(t, "105.5", order.CurrencyRate)
	assert.Equal(t, int64(2637500), order.TotalLocal)
}

func TestCreateOrder_MissingRateFallsBackToBase(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(t, "sess-1", testProduct(1, 25000))

	info := validCustomerInfo()
	info.Lang = "zh" // CNY rate not loaded

	result, err := f.svc.CreateOrder(context.Background(), "sess-1", info)
	require.NoError(t, err)

	order, err := f.svc.GetOrder(context.Background(), result.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "CNY", order.CurrencyCode)
	assert.Equal(t, "1", order.CurrencyRate)
	assert.Equal(t, int64(25000), order.TotalLocal)
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.CustomerInfo)
		field  string
	}{
		{"missing name", func(i *domain.CustomerInfo) { i.CustomerName = "  " }, "customer_name"},
		{"missing email", func(i *domain.CustomerInfo) { i.CustomerEmail = "" }, "customer_email"},
		{"bad email", func(i *domain.CustomerInfo) { i.CustomerEmail = "not-an-email" }, "customer_email"},
		{"email with spaces", func(i *domain.CustomerInfo) { i.CustomerEmail = "a b@example.com" }, "customer_email"},
		{"missing country", func(i *domain.CustomerInfo) { i.ShippingCountry = "" }, "shipping_country"},
		{"missing city", func(i *domain.CustomerInfo) { i.ShippingCity = "" }, "shipping_city"},
		{"missing address", func(i *domain.CustomerInfo) { i.ShippingAddress = "" }, "shipping_address"},
		{"missing postal", func(i *domain.CustomerInfo) { i.ShippingPostal = "" }, "shipping_postal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			f.addToCart(t, "sess-1", testProduct(1, 25000))

			info := validCustomerInfo()
			tt.mutate(&info)

			_, err := f.svc.CreateOrder(context.Background(), "sess-1", info)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Empty(t, f.repo.CreatedOrders)
		})
	}
}

func TestCreateOrder_RetriesOnDuplicateNumber(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(t, "sess-1", testProduct(1, 25000))
	f.repo.CreateErrOnce = repository.ErrDuplicateOrderNumber

	result, err := f.svc.CreateOrder(context.Background(), "sess-1", validCustomerInfo())
	require.NoError(t, err)
	assert.NotEmpty(t, result.OrderNumber)
}

func TestCreateOrder_RaceLoserGetsItemsUnavailable(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(t, "sess-1", testProduct(1, 25000))
	f.repo.CreateErr = repository.ErrProductNotForSale

	_, err := f.svc.CreateOrder(context.Background(), "sess-1", validCustomerInfo())
	assert.ErrorIs(t, err, ErrItemsUnavailable)
}

func TestCreateOrder_DispatchesNotification(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(t, "sess-1", testProduct(1, 25000))

	result, err := f.svc.CreateOrder(context.Background(), "sess-1", validCustomerInfo())
	require.NoError(t, err)

	require.True(t, f.notifier.Wait(time.Second), "notification was not dispatched")
	n := f.notifier.Last()
	assert.Equal(t, result.OrderNumber, n.OrderNumber)
	assert.Equal(t, "jane@example.com", n.CustomerEmail)
	assert.Equal(t, int64(25000), n.SubtotalEUR)
	require.Len(t, n.Items, 1)
	assert.Equal(t, "Painting", n.Items[0].Title)
}

func TestCreateOrder_InvalidatesCartCache(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(t, "sess-1", testProduct(1, 25000))
	f.cache.Put("sess-1", []*domain.CartItem{{ID: 1, SessionID: "sess-1", ProductID: 1}})

	_, err := f.svc.CreateOrder(context.Background(), "sess-1", validCustomerInfo())
	require.NoError(t, err)
	assert.Contains(t, f.cache.Deleted, "sess-1")
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.GetOrder(context.Background(), "KL-NOPE-0000")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(t, "sess-1", testProduct(1, 25000))
	result, err := f.svc.CreateOrder(context.Background(), "sess-1", validCustomerInfo())
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateStatus(context.Background(), result.OrderNumber, domain.OrderStatusConfirmed, "", nil))

	order, err := f.svc.GetOrder(context.Background(), result.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)

	history, err := f.svc.StatusHistory(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(t, "sess-1", testProduct(1, 25000))
	result, err := f.svc.CreateOrder(context.Background(), "sess-1", validCustomerInfo())
	require.NoError(t, err)

	err = f.svc.UpdateStatus(context.Background(), result.OrderNumber, domain.OrderStatusShipped, "", nil)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newOrderFixture()

	err := f.svc.UpdateStatus(context.Background(), "KL-X-0000", domain.OrderStatus("teleported"), "", nil)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestGenerateOrderNumber_Shape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := generateOrderNumber()
		assert.Regexp(t, orderNumberShape, n)
		seen[n] = true
	}
	// random suffix keeps same-millisecond numbers apart
	assert.Greater(t, len(seen), 1)
}
