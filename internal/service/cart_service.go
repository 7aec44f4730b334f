package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/simvol2030/project-kliee-sub000/internal/cache"
	"github.com/simvol2030/project-kliee-sub000/internal/domain"
	"github.com/simvol2030/project-kliee-sub000/internal/repository"
	"golang.org/x/sync/singleflight"
)

// CartRepository is the slice of the store the cart service needs.
type CartRepository interface {
	EnsureSession(ctx context.Context, sessionID string, expiresAt time.Time) error
	ListCartItems(ctx context.Context, sessionID string) ([]*domain.CartItem, map[int64]*domain.Product, error)
	AddCartItem(ctx context.Context, sessionID string, productID, priceSnapshot int64) error
	RemoveCartItemByProduct(ctx context.Context, sessionID string, productID int64) error
	RemoveCartItem(ctx context.Context, sessionID string, itemID int64) error
	ClearCart(ctx context.Context, sessionID string) error
	CountCartItems(ctx context.Context, sessionID string) (int, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
}

type CartService struct {
	repo  CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCartService(repo CartRepository, cache cache.CartCache) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
	}
}

// List returns the cart joined with live product data. Only the raw cart
// rows are ever cached; availability and the total are recomputed from the
// catalog on every call, so a sale in another session shows up immediately.
// Unavailable items are still listed but excluded from the total.
func (s *CartService) List(ctx context.Context, sessionID string) (*domain.CartView, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {

		items, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			products, errProducts := s.repo.GetProductsByIDs(ctx, productIDs(items))
			if errProducts != nil {
				return nil, errProducts
			}
			return composeView(items, products), nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		items, products, errBuild := s.repo.ListCartItems(ctx, sessionID)
		if errBuild != nil {
			return nil, errBuild
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), sessionID, items)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return composeView(items, products), nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.CartView), nil
}

func productIDs(items []*domain.CartItem) []int64 {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	return ids
}

func composeView(items []*domain.CartItem, products map[int64]*domain.Product) *domain.CartView {
	view := &domain.CartView{Items: []domain.CartViewItem{}}
	for _, item := range items {
		p := products[item.ProductID]
		available := p.Available()

		viewItem := domain.CartViewItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			PriceEUR:    item.PriceEURSnapshot,
			IsAvailable: available,
			AddedAt:     item.AddedAt,
		}
		if p != nil {
			viewItem.Title = p.TitleEN
			viewItem.Slug = p.Slug
			viewItem.PriceEUR = p.PriceEUR
			viewItem.ImageURL = p.ImageURL
		}
		view.Items = append(view.Items, viewItem)

		if available {
			view.TotalEUR += p.PriceEUR
		}
	}
	view.Count = len(view.Items)

	return view
}

// Add puts a product into the session's cart. The client never declares a
// price; the snapshot is read from the live catalog.
func (s *CartService) Add(ctx context.Context, sessionID string, productID int64) error {
	product, err := s.repo.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		log.Printf("repo get product error: %v \n", err)
		return err
	}

	if !product.IsVisible {
		return ErrProductNotFound
	}
	if !product.Available() {
		return ErrOutOfStock
	}

	errAdd := s.repo.AddCartItem(ctx, sessionID, productID, product.PriceEUR)
	if errors.Is(errAdd, repository.ErrDuplicateCartItem) {
		return ErrAlreadyInCart
	}
	if errAdd != nil {
		log.Printf("repo add item error: %v \n", errAdd)
		return errAdd
	}

	s.invalidateCache(sessionID)
	return nil
}

// RemoveByProduct deletes the matching row. Removing a product that is not
// in the cart is a no-op success.
func (s *CartService) RemoveByProduct(ctx context.Context, sessionID string, productID int64) error {
	errRemove := s.repo.RemoveCartItemByProduct(ctx, sessionID, productID)
	if errRemove != nil {
		log.Printf("repo remove item error: %v \n", errRemove)
		return errRemove
	}

	s.invalidateCache(sessionID)
	return nil
}

// Remove deletes by cart item id, same idempotent semantics.
func (s *CartService) Remove(ctx context.Context, sessionID string, itemID int64) error {
	errRemove := s.repo.RemoveCartItem(ctx, sessionID, itemID)
	if errRemove != nil {
		log.Printf("repo remove item error: %v \n", errRemove)
		return errRemove
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	errClear := s.repo.ClearCart(ctx, sessionID)
	if errClear != nil {
		log.Printf("repo clear cart error: %v \n", errClear)
		return errClear
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) Count(ctx context.Context, sessionID string) (int, error) {
	return s.repo.CountCartItems(ctx, sessionID)
}

func (s *CartService) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, sessionID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}
