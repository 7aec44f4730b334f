package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/simvol2030/project-kliee-sub000/internal/domain"
)

const productColumns = `id, title_en, title_ru, title_es, title_zh, slug, price_eur,
		image_url, is_visible, is_for_sale, stock_quantity, is_unlimited, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	p := &domain.Product{}
	var slug sql.NullString
	err := row.Scan(
		&p.ID,
		&p.TitleEN,
		&p.TitleRU,
		&p.TitleES,
		&p.TitleZH,
		&slug,
		&p.PriceEUR,
		&p.ImageURL,
		&p.IsVisible,
		&p.IsForSale,
		&p.StockQuantity,
		&p.IsUnlimited,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Slug = slug.String
	return p, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ?`, productColumns)

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

// GetProductsByIDs returns the products for the given ids keyed by id.
// Missing ids are simply absent from the map; the caller decides whether
// that is an error.
func (r *Repository) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	if len(ids) == 0 {
		return map[int64]*domain.Product{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id IN (%s)`, productColumns, placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make(map[int64]*domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) ListVisibleProducts(ctx context.Context) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE is_visible = 1 ORDER BY id`, productColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

// markProductSold flips is_for_sale off, but only while it is still on. The
// affected-row check is what keeps two concurrent checkouts of the same
// unique item from both succeeding: the loser sees zero rows and the whole
// order transaction rolls back.
func markProductSold(ctx context.Context, tx *sql.Tx, productID int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET is_for_sale = 0, stock_quantity = 0 WHERE id = ? AND is_for_sale = 1`,
		productID)
	if err != nil {
		return fmt.Errorf("failed to mark product %d sold: %w", productID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrProductNotForSale
	}
	return nil
}
