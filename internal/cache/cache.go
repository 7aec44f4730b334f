package cache

import (
	"context"
	"errors"

	"github.com/simvol2030/project-kliee-sub000/internal/domain"
)

// CartCache holds the raw cart rows for a session. Only the rows are cached;
// availability and totals depend on live catalog state and must be computed
// on every read, never stored.
type CartCache interface {
	Get(ctx context.Context, sessionID string) ([]*domain.CartItem, error)
	Set(ctx context.Context, sessionID string, items []*domain.CartItem) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")
