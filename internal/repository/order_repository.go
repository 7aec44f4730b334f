package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/simvol2030/project-kliee-sub000/internal/domain"
)

// CreateOrder persists the order, its items, the initial status-history row,
// marks every finite-stock item as sold, and consumes the cart, all inside
// one transaction. Any failure leaves nothing behind. A losing concurrent
// checkout of the same unique item surfaces as ErrProductNotForSale.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order, sessionID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (order_number, status, lang, customer_name, customer_email,
			customer_phone, shipping_country, shipping_city, shipping_address,
			shipping_postal, note, subtotal_eur, currency_code, currency_rate, total_local)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.OrderNumber,
		order.Status,
		order.Lang,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.ShippingCountry,
		order.ShippingCity,
		order.ShippingAddress,
		order.ShippingPostal,
		order.Note,
		order.SubtotalEUR,
		order.CurrencyCode,
		order.CurrencyRate,
		order.TotalLocal,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: orders.order_number") {
			return 0, ErrDuplicateOrderNumber
		}
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read order id: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = orderID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, price_eur, title_snapshot)
			 VALUES (?, ?, ?, ?)`,
			orderID, item.ProductID, item.PriceEUR, item.TitleSnapshot); err != nil {
			return 0, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO order_status_history (order_id, status) VALUES (?, ?)`,
		orderID, domain.OrderStatusPending); err != nil {
		return 0, fmt.Errorf("failed to insert status history: %w", err)
	}

	// unique goods leave the catalog once purchased; unlimited items stay
	for i := range order.Items {
		productID := order.Items[i].ProductID
		unlimited, err := isUnlimited(ctx, tx, productID)
		if err != nil {
			return 0, err
		}
		if unlimited {
			continue
		}
		if err := markProductSold(ctx, tx, productID); err != nil {
			return 0, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE session_id = ?`, sessionID); err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_sessions WHERE session_id = ?`, sessionID); err != nil {
		return 0, fmt.Errorf("failed to delete cart session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit order: %w", err)
	}

	order.ID = orderID
	return orderID, nil
}

func isUnlimited(ctx context.Context, tx *sql.Tx, productID int64) (bool, error) {
	var unlimited bool
	err := tx.QueryRowContext(ctx,
		`SELECT is_unlimited FROM products WHERE id = ?`, productID).Scan(&unlimited)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrProductNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to query product %d: %w", productID, err)
	}
	return unlimited, nil
}

const orderColumns = `id, order_number, status, lang, customer_name, customer_email,
		customer_phone, shipping_country, shipping_city, shipping_address,
		shipping_postal, note, admin_note, subtotal_eur, currency_code,
		currency_rate, total_local, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.Status,
		&o.Lang,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.CustomerPhone,
		&o.ShippingCountry,
		&o.ShippingCity,
		&o.ShippingAddress,
		&o.ShippingPostal,
		&o.Note,
		&o.AdminNote,
		&o.SubtotalEUR,
		&o.CurrencyCode,
		&o.CurrencyRate,
		&o.TotalLocal,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE order_number = ?`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.listOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *Repository) listOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, price_eur, title_snapshot
		 FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.PriceEUR, &item.TitleSnapshot); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func (r *Repository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders ORDER BY created_at DESC, id DESC`, orderColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus moves an order to a new status and appends to the audit
// trail, guarding the transition inside the same transaction.
func (r *Repository) UpdateOrderStatus(ctx context.Context, orderNumber string, next domain.OrderStatus, adminNote string, changedBy *int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var orderID int64
	var current domain.OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT id, status FROM orders WHERE order_number = ?`, orderNumber).
		Scan(&orderID, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query order status: %w", err)
	}

	if !domain.CanTransitionTo(current, next) {
		return ErrIllegalTransition
	}

	if adminNote != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = ?, admin_note = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			next, adminNote, orderID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			next, orderID)
	}
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO order_status_history (order_id, status, changed_by) VALUES (?, ?, ?)`,
		orderID, next, changedBy); err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}

	return nil
}

// ListStatusHistory returns the append-only audit trail, oldest first.
func (r *Repository) ListStatusHistory(ctx context.Context, orderID int64) ([]*domain.OrderStatusEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, status, changed_by, created_at
		 FROM order_status_history WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var entries []*domain.OrderStatusEntry
	for rows.Next() {
		entry := &domain.OrderStatusEntry{}
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.ChangedBy, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}
