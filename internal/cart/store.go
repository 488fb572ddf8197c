package cart

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

// Store persists cart headers and their items.
type Store interface {
	GetByID(ctx context.Context, id string) (Cart, error)
	GetActiveByAnon(ctx context.Context, anonID string, now time.Time) (Cart, error)
	Create(ctx context.Context, anonID string, tier membership.Tier, expires time.Time) (Cart, error)
	Touch(ctx context.Context, id string, expires time.Time) error
	SetCoupon(ctx context.Context, id string, code *string) error
	SetTier(ctx context.Context, id string, tier membership.Tier) error

	ListItems(ctx context.Context, cartID string) ([]Item, error)
	FindItem(ctx context.Context, cartID, productID string, kind pricing.Kind) (Item, error)
	InsertItem(ctx context.Context, cartID string, item Item) error
	UpdateItemQty(ctx context.Context, cartID, itemID string, qty int) error
	DeleteItem(ctx context.Context, cartID, itemID string) error
	ClearItems(ctx context.Context, cartID string) error
}

// PGStore implements Store on Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

const cartColumns = `id::text, anon_id, tier, applied_coupon, expires_at`

func scanCart(row pgx.Row) (Cart, error) {
	var (
		c    Cart
		tier string
	)
	if err := row.Scan(&c.ID, &c.AnonID, &tier, &c.CouponCode, &c.ExpiresAt); err != nil {
		return Cart{}, err
	}
	c.Tier = membership.Tier(tier)
	return c, nil
}

// GetByID returns the cart header for the given id.
func (s *PGStore) GetByID(ctx context.Context, id string) (Cart, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1::uuid`, id)
	c, err := scanCart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return c, nil
}

// GetActiveByAnon returns the newest unexpired cart for an anonymous id.
func (s *PGStore) GetActiveByAnon(ctx context.Context, anonID string, now time.Time) (Cart, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+cartColumns+` FROM carts
		WHERE anon_id = $1 AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY created_at DESC
		LIMIT 1`, anonID, now)
	c, err := scanCart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("get active cart: %w", err)
	}
	return c, nil
}

// Create inserts a new cart header.
func (s *PGStore) Create(ctx context.Context, anonID string, tier membership.Tier, expires time.Time) (Cart, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO carts (anon_id, tier, expires_at)
		VALUES ($1, $2, $3)
		RETURNING `+cartColumns, anonID, string(tier), expires)
	c, err := scanCart(row)
	if err != nil {
		return Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return c, nil
}

// Touch extends the cart lifetime after a mutation.
func (s *PGStore) Touch(ctx context.Context, id string, expires time.Time) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE carts SET updated_at = now(), expires_at = $2 WHERE id = $1::uuid`, id, expires)
	return err
}

// SetCoupon attaches or clears the applied coupon code.
func (s *PGStore) SetCoupon(ctx context.Context, id string, code *string) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE carts SET applied_coupon = $2, updated_at = now() WHERE id = $1::uuid`, id, code)
	if err != nil {
		return fmt.Errorf("set coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTier records the membership tier the cart is priced under.
func (s *PGStore) SetTier(ctx context.Context, id string, tier membership.Tier) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE carts SET tier = $2, updated_at = now() WHERE id = $1::uuid`, id, string(tier))
	if err != nil {
		return fmt.Errorf("set tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const itemColumns = `id::text, product_id, kind, qty, rental_days, rental_price_cents`

func scanItem(row pgx.Row) (Item, error) {
	var (
		it   Item
		kind string
	)
	if err := row.Scan(&it.ID, &it.ProductID, &kind, &it.Qty, &it.RentalDays, &it.RentalPrice); err != nil {
		return Item{}, err
	}
	it.Kind = pricing.Kind(kind)
	return it, nil
}

// ListItems returns every line in the cart.
func (s *PGStore) ListItems(ctx context.Context, cartID string) ([]Item, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+itemColumns+` FROM cart_items
		WHERE cart_id = $1::uuid
		ORDER BY created_at`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// FindItem returns the line matching product and kind, if present.
func (s *PGStore) FindItem(ctx context.Context, cartID, productID string, kind pricing.Kind) (Item, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+itemColumns+` FROM cart_items
		WHERE cart_id = $1::uuid AND product_id = $2 AND kind = $3`, cartID, productID, string(kind))
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("find cart item: %w", err)
	}
	return it, nil
}

// InsertItem adds a new line to the cart.
func (s *PGStore) InsertItem(ctx context.Context, cartID string, item Item) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, kind, qty, rental_days, rental_price_cents)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)`,
		cartID, item.ProductID, string(item.Kind), item.Qty, item.RentalDays, item.RentalPrice)
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

// UpdateItemQty sets the quantity of an existing line.
func (s *PGStore) UpdateItemQty(ctx context.Context, cartID, itemID string, qty int) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE cart_items SET qty = $3
		WHERE id = $1::uuid AND cart_id = $2::uuid`, itemID, cartID, qty)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes a single line from the cart.
func (s *PGStore) DeleteItem(ctx context.Context, cartID, itemID string) error {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM cart_items WHERE id = $1::uuid AND cart_id = $2::uuid`, itemID, cartID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearItems drops every line in the cart.
func (s *PGStore) ClearItems(ctx context.Context, cartID string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1::uuid`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return nil
}
