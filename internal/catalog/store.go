package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the read-mostly catalog of product records. There is no implicit
// process-wide copy: callers hold an injected Store and nothing else.
type Store interface {
	Get(ctx context.Context, id string) (Product, error)
	GetMany(ctx context.Context, ids []string) ([]Product, error)
	List(ctx context.Context) ([]Product, error)
	ReplaceAll(ctx context.Context, products []Product) error
}

// PGStore implements Store on Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

const productColumns = `id, title, author, category, base_price_cents, sale_price_cents,
	bulk_threshold, bulk_percent, membership_product, in_stock`

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p             Product
		salePrice     *int64
		bulkThreshold *int
		bulkPercent   *int
	)
	err := row.Scan(&p.ID, &p.Title, &p.Author, &p.Category, &p.BasePrice, &salePrice,
		&bulkThreshold, &bulkPercent, &p.MembershipProduct, &p.InStock)
	if err != nil {
		return Product{}, err
	}
	p.SalePrice = salePrice
	if bulkThreshold != nil && bulkPercent != nil {
		p.Bulk = &BulkRule{Threshold: *bulkThreshold, Percent: *bulkPercent}
	}
	return p, nil
}

// Get returns a single product by id.
func (s *PGStore) Get(ctx context.Context, id string) (Product, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetMany returns the products matching the provided ids. Missing ids are
// simply absent from the result.
func (s *PGStore) GetMany(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// List returns the whole catalog ordered by title.
func (s *PGStore) List(ctx context.Context) ([]Product, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ReplaceAll swaps the entire catalog in one transaction.
func (s *PGStore) ReplaceAll(ctx context.Context, products []Product) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	for _, p := range products {
		var bulkThreshold, bulkPercent *int
		if p.Bulk != nil {
			bulkThreshold = &p.Bulk.Threshold
			bulkPercent = &p.Bulk.Percent
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO products (id, title, author, category, base_price_cents, sale_price_cents,
				bulk_threshold, bulk_percent, membership_product, in_stock, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())`,
			p.ID, p.Title, p.Author, p.Category, p.BasePrice, p.SalePrice,
			bulkThreshold, bulkPercent, p.MembershipProduct, p.InStock)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
