package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookhaven/backend-store/internal/membership"
	"github.com/bookhaven/backend-store/internal/pricing"
)

// ErrNotFound indicates the requested order could not be located.
var ErrNotFound = errors.New("order not found")

// OrderItem is a priced line frozen at checkout time.
type OrderItem struct {
	ProductID  string       `json:"productId"`
	Title      string       `json:"title"`
	Kind       pricing.Kind `json:"kind"`
	Qty        int          `json:"qty"`
	RentalDays int          `json:"rentalDays,omitempty"`
	UnitPrice  int64        `json:"unitPriceCents"`
	LineTotal  int64        `json:"lineTotalCents"`
}

// Order is the persisted outcome of a checkout.
type Order struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	Tier       membership.Tier `json:"tier"`
	CouponCode *string         `json:"couponCode,omitempty"`
	Currency   string          `json:"currency"`
	Pricing    pricing.Result  `json:"pricing"`
	Items      []OrderItem     `json:"items"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Store persists orders.
type Store interface {
	Create(ctx context.Context, o Order) (Order, error)
	GetByID(ctx context.Context, id string) (Order, error)
}

// PGStore implements Store on Postgres. Order header and items land in one
// transaction so a crash never produces a half-written order.
type PGStore struct {
	Pool *pgxpool.Pool
}

// Create inserts the order and its items transactionally.
func (s *PGStore) Create(ctx context.Context, o Order) (Order, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (email, tier, coupon_code, currency, subtotal_cents,
			bulk_discount_cents, membership_discount_cents, coupon_discount_cents, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id::text, created_at`,
		o.Email, string(o.Tier), o.CouponCode, o.Currency, o.Pricing.Subtotal,
		o.Pricing.BulkDiscount, o.Pricing.MembershipDiscount, o.Pricing.CouponDiscount, o.Pricing.Total)
	if err := row.Scan(&o.ID, &o.CreatedAt); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	for _, it := range o.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, title, kind, qty, rental_days, unit_price_cents, line_total_cents)
			VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)`,
			o.ID, it.ProductID, it.Title, string(it.Kind), it.Qty, it.RentalDays, it.UnitPrice, it.LineTotal)
		if err != nil {
			return Order{}, fmt.Errorf("create order item %s: %w", it.ProductID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

// GetByID returns the order with its items.
func (s *PGStore) GetByID(ctx context.Context, id string) (Order, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id::text, email, tier, coupon_code, currency, subtotal_cents,
			bulk_discount_cents, membership_discount_cents, coupon_discount_cents, total_cents, created_at
		FROM orders WHERE id = $1::uuid`, id)
	var (
		o    Order
		tier string
	)
	err := row.Scan(&o.ID, &o.Email, &tier, &o.CouponCode, &o.Currency, &o.Pricing.Subtotal,
		&o.Pricing.BulkDiscount, &o.Pricing.MembershipDiscount, &o.Pricing.CouponDiscount,
		&o.Pricing.Total, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	o.Tier = membership.Tier(tier)

	rows, err := s.Pool.Query(ctx, `
		SELECT product_id, title, kind, qty, rental_days, unit_price_cents, line_total_cents
		FROM order_items WHERE order_id = $1::uuid`, id)
	if err != nil {
		return Order{}, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it   OrderItem
			kind string
		)
		if err := rows.Scan(&it.ProductID, &it.Title, &kind, &it.Qty, &it.RentalDays, &it.UnitPrice, &it.LineTotal); err != nil {
			return Order{}, err
		}
		it.Kind = pricing.Kind(kind)
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}
