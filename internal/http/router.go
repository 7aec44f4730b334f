package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxRequestBody caps request bodies; checkout payloads are small forms.
const maxRequestBody = 1 << 20 // 1MB

type RouterConfig struct {
	RequestTimeout time.Duration
	SecureCookie   bool
	AdminKey       string
	RateLimiter    *RateLimiter
	Sessions       SessionStore
	Cart           CartAPI
	Orders         OrderAPI
	Catalog        CatalogAPI
	Rates          RatesAPI
}

func NewRouter(cfg RouterConfig) http.Handler {
	cartHandler := NewCartHandler(cfg.Cart, cfg.RequestTimeout)
	ordersHandler := NewOrdersHandler(cfg.Orders, cfg.RequestTimeout, cfg.SecureCookie)
	productHandler := NewProductHandler(cfg.Catalog, cfg.Rates, cfg.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(middleware.RequestSize(maxRequestBody))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{product_id}", productHandler.GetProduct)
		r.Get("/currencies", productHandler.ListCurrencies)

		r.Route("/cart", func(r chi.Router) {
			r.Use(CartSessionMiddleware(cfg.Sessions, cfg.SecureCookie))
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items", cartHandler.RemoveItem)
		})

		r.Post("/orders", ordersHandler.CreateOrder)
		r.Get("/orders/{order_number}", ordersHandler.GetOrder)

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminKeyMiddleware(cfg.AdminKey))
			r.Get("/orders", ordersHandler.ListOrders)
			r.Patch("/orders/{order_number}/status", ordersHandler.UpdateStatus)
		})
	})

	return r
}
