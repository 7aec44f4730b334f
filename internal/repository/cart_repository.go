package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/simvol2030/project-kliee-sub000/internal/domain"
)

// EnsureSession creates the backing row for a cart session token if it does
// not exist yet. Idempotent: repeated calls with the same token are no-ops.
func (r *Repository) EnsureSession(ctx context.Context, sessionID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cart_sessions (session_id, expires_at) VALUES (?, ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		sessionID, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to ensure cart session: %w", err)
	}
	return nil
}

// ListCartItems joins cart rows with current product data so availability
// can be computed live.
func (r *Repository) ListCartItems(ctx context.Context, sessionID string) ([]*domain.CartItem, map[int64]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, product_id, price_eur_snapshot, added_at
		 FROM cart_items WHERE session_id = ? ORDER BY added_at, id`,
		sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []*domain.CartItem
	var productIDs []int64
	for rows.Next() {
		item := &domain.CartItem{}
		if err := rows.Scan(&item.ID, &item.SessionID, &item.ProductID, &item.PriceEURSnapshot, &item.AddedAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
		productIDs = append(productIDs, item.ProductID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("row iteration error: %w", err)
	}

	products, err := r.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, nil, err
	}

	return items, products, nil
}

// AddCartItem inserts a product into the session's cart with the current
// catalog price snapshotted. A duplicate (session, product) pair returns
// ErrDuplicateCartItem.
func (r *Repository) AddCartItem(ctx context.Context, sessionID string, productID, priceSnapshot int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cart_items (session_id, product_id, price_eur_snapshot) VALUES (?, ?, ?)`,
		sessionID, productID, priceSnapshot)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateCartItem
		}
		return fmt.Errorf("failed to insert cart item: %w", err)
	}
	return nil
}

// RemoveCartItemByProduct deletes the matching row. Removing a product that
// is not in the cart is a no-op success.
func (r *Repository) RemoveCartItemByProduct(ctx context.Context, sessionID string, productID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE session_id = ? AND product_id = ?`,
		sessionID, productID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// RemoveCartItem deletes by cart item id, scoped to the owning session.
func (r *Repository) RemoveCartItem(ctx context.Context, sessionID string, itemID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE session_id = ? AND id = ?`,
		sessionID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

func (r *Repository) ClearCart(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *Repository) CountCartItems(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cart_items WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return count, nil
}

// DeleteExpiredSessions removes cart sessions past their expiry together
// with their items (via cascade). Returns the number of sessions removed.
func (r *Repository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_sessions WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}
