package coupon

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists coupon rules.
type Store interface {
	GetByCode(ctx context.Context, code string) (Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, c Coupon) error
	Update(ctx context.Context, c Coupon) error
	Delete(ctx context.Context, code string) error
}

// PGStore implements Store on Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

const couponColumns = `code, kind, value, min_order_cents, max_discount_cents, categories, expires_at`

func scanCoupon(row pgx.Row) (Coupon, error) {
	var c Coupon
	err := row.Scan(&c.Code, (*string)(&c.Kind), &c.Value, &c.MinOrder, &c.MaxDiscount, &c.Categories, &c.ExpiresAt)
	if err != nil {
		return Coupon{}, err
	}
	return c, nil
}

// GetByCode returns the coupon for the given code, matched case-insensitively.
func (s *PGStore) GetByCode(ctx context.Context, code string) (Coupon, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE lower(code) = $1`, NormalizeCode(code))
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, fmt.Errorf("get coupon: %w", err)
	}
	return c, nil
}

// List returns every stored coupon ordered by code.
func (s *PGStore) List(ctx context.Context) ([]Coupon, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()
	var coupons []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

// Create inserts a new coupon rule.
func (s *PGStore) Create(ctx context.Context, c Coupon) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO coupons (code, kind, value, min_order_cents, max_discount_cents, categories, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		NormalizeCode(c.Code), string(c.Kind), c.Value, c.MinOrder, c.MaxDiscount, categoriesOrEmpty(c.Categories), c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

// Update rewrites the terms of an existing coupon identified by code.
func (s *PGStore) Update(ctx context.Context, c Coupon) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE coupons
		SET kind = $2, value = $3, min_order_cents = $4, max_discount_cents = $5,
			categories = $6, expires_at = $7, updated_at = now()
		WHERE lower(code) = $1`,
		NormalizeCode(c.Code), string(c.Kind), c.Value, c.MinOrder, c.MaxDiscount, categoriesOrEmpty(c.Categories), c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a coupon by code.
func (s *PGStore) Delete(ctx context.Context, code string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM coupons WHERE lower(code) = $1`, NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func categoriesOrEmpty(categories []string) []string {
	if categories == nil {
		return []string{}
	}
	return categories
}
