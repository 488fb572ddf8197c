package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/bookhaven/backend-store/internal/obs"
	"github.com/bookhaven/backend-store/internal/pricing"
)

// Service resolves and validates coupons for carts and exposes admin writes.
type Service struct {
	store Store
	cache *Cache

	// Now is injectable for expiry tests.
	Now func() time.Time
}

// NewService constructs a Service instance.
func NewService(store Store, cache *Cache) (*Service, error) {
	if store == nil {
		return nil, errors.New("coupon: store is required")
	}
	return &Service{store: store, cache: cache}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Resolve returns the stored coupon for a code, consulting the cache first.
// It does not check expiry or minimums.
func (s *Service) Resolve(ctx context.Context, code string) (Coupon, error) {
	if NormalizeCode(code) == "" {
		return Coupon{}, ErrNotFound
	}
	if cached, ok, err := s.cache.Get(ctx, code); err == nil && ok {
		return cached, nil
	}
	c, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return Coupon{}, err
	}
	_ = s.cache.Set(ctx, c)
	return c, nil
}

// Validate resolves a code and checks it against the order subtotal. It
// returns ErrNotFound for unknown codes, ErrExpired past the expiry, and
// ErrBelowMinimum when the subtotal does not reach the coupon minimum.
func (s *Service) Validate(ctx context.Context, code string, subtotal int64) (pricing.Coupon, error) {
	c, err := s.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			rejectCoupon("not_found")
		}
		return pricing.Coupon{}, err
	}
	if c.Expired(s.now()) {
		rejectCoupon("expired")
		return pricing.Coupon{}, ErrExpired
	}
	if c.MinOrder > 0 && subtotal < c.MinOrder {
		rejectCoupon("below_minimum")
		return pricing.Coupon{}, ErrBelowMinimum
	}
	return c.Pricing(), nil
}

// List returns every stored coupon.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	return s.store.List(ctx)
}

// Create validates and inserts a new coupon.
func (s *Service) Create(ctx context.Context, c Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, c.Code)
}

// Update validates and rewrites an existing coupon.
func (s *Service) Update(ctx context.Context, c Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.store.Update(ctx, c); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, c.Code)
}

// Delete removes a coupon by code.
func (s *Service) Delete(ctx context.Context, code string) error {
	if err := s.store.Delete(ctx, code); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, code)
}

func rejectCoupon(reason string) {
	if obs.CouponRejectionsTotal != nil {
		obs.CouponRejectionsTotal.WithLabelValues(reason).Inc()
	}
}
