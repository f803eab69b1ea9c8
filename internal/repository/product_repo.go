package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/pricedrop/notifier/internal/models"
	"github.com/pricedrop/notifier/internal/utils"
)

// ProductRepository handles data access for tracked products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByID returns a single product, or utils.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, productID string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1 LIMIT 1`
	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, productID); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert inserts the product or refreshes an existing row for the same
// product_id. A known price is never clobbered by a NULL one, so a failed
// subscribe-time extraction cannot erase what a scan already learned; an
// empty name likewise keeps the existing name.
func (r *ProductRepository) Upsert(ctx context.Context, p *models.Product) error {
	const q = `
        INSERT INTO products (product_id, url, name, currency, last_known_price, last_checked_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (product_id) DO UPDATE SET
            name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE products.name END,
            currency = CASE WHEN EXCLUDED.last_known_price IS NOT NULL THEN EXCLUDED.currency ELSE products.currency END,
            last_known_price = COALESCE(EXCLUDED.last_known_price, products.last_known_price),
            last_checked_at = NOW()
        RETURNING product_id, url, name, currency, last_known_price, last_checked_at, created_at`

	return r.db.QueryRowxContext(ctx, q,
		p.ProductID,
		p.URL,
		p.Name,
		p.Currency,
		p.LastKnownPrice,
	).StructScan(p)
}

// ListActivelyTracked returns every product with at least one ACTIVE
// subscription. Products nobody watches are skipped to avoid wasted fetches.
func (r *ProductRepository) ListActivelyTracked(ctx context.Context) ([]models.Product, error) {
	const q = `
        SELECT p.* FROM products p
        WHERE EXISTS (
            SELECT 1 FROM subscriptions s
            WHERE s.product_id = p.product_id AND s.status = 'ACTIVE'
        )
        ORDER BY p.last_checked_at`

	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, q); err != nil {
		return nil, err
	}
	return products, nil
}

// UpdatePrice atomically replaces the stored price, verifying the previous
// value in the same statement. When another scan already moved the price the
// condition fails and utils.ErrPriceConflict is returned, so overlapping
// cycles cannot interleave a stale overwrite or double-report a drop.
// name refreshes the stored title when non-empty.
func (r *ProductRepository) UpdatePrice(ctx context.Context, productID string, prevPrice *float64, newPrice float64, currency, name string) error {
	const q = `
        UPDATE products SET
            last_known_price = $2,
            currency = $3,
            name = CASE WHEN $4 <> '' THEN $4 ELSE name END,
            last_checked_at = NOW()
        WHERE product_id = $1
        AND last_known_price IS NOT DISTINCT FROM $5`

	res, err := r.db.ExecContext(ctx, q, productID, newPrice, currency, name, prevPrice)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a lost race from a vanished product.
		if _, err := r.GetByID(ctx, productID); err != nil {
			return err
		}
		return utils.ErrPriceConflict
	}
	return nil
}

// TouchChecked records that a scan attempted this product without changing
// the stored price. Used on extraction failure so a transient scrape error is
// never misread as a price change.
func (r *ProductRepository) TouchChecked(ctx context.Context, productID string) error {
	const q = `UPDATE products SET last_checked_at = NOW() WHERE product_id = $1`
	_, err := r.db.ExecContext(ctx, q, productID)
	return err
}
