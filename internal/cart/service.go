package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bookhaven/backend-store/internal/catalog"
	"github.com/bookhaven/backend-store/internal/coupon"
	"github.com/bookhaven/backend-store/internal/membership"
	"github.com/bookhaven/backend-store/internal/obs"
	"github.com/bookhaven/backend-store/internal/pricing"
)

// CatalogSource is the slice of the catalog service the cart needs.
type CatalogSource interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
	Lookup(ctx context.Context, ids []string) (pricing.StaticCatalog, error)
}

// CouponSource resolves and validates coupon codes against a subtotal.
type CouponSource interface {
	Validate(ctx context.Context, code string, subtotal int64) (pricing.Coupon, error)
}

// Service encapsulates cart domain operations. Every mutation reprices
// nothing: the pricing breakdown is recomputed from stored state on read.
type Service struct {
	store   Store
	catalog CatalogSource
	coupons CouponSource
	TTL     time.Duration
	Now     func() time.Time
}

// NewService constructs a Service instance.
func NewService(store Store, catalogSrc CatalogSource, coupons CouponSource) (*Service, error) {
	if store == nil {
		return nil, errors.New("cart: store is required")
	}
	if catalogSrc == nil {
		return nil, errors.New("cart: catalog is required")
	}
	if coupons == nil {
		return nil, errors.New("cart: coupon source is required")
	}
	return &Service{store: store, catalog: catalogSrc, coupons: coupons}, nil
}

func (s *Service) ttl() time.Duration {
	if s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureCart loads the active cart for an anonymous id, creating one when
// none exists. An empty anonID gets a fresh identity.
func (s *Service) EnsureCart(ctx context.Context, anonID string) (Cart, error) {
	if anonID == "" {
		anonID = uuid.NewString()
	}
	now := s.now()
	c, err := s.store.GetActiveByAnon(ctx, anonID, now)
	if err == nil {
		_ = s.store.Touch(ctx, c.ID, now.Add(s.ttl()))
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Cart{}, err
	}
	return s.store.Create(ctx, anonID, membership.TierNone, now.Add(s.ttl()))
}

// Get returns the cart with a freshly computed pricing breakdown.
func (s *Service) Get(ctx context.Context, cartID string) (View, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, c)
}

// AddItem appends a line to the cart, or increments the quantity when the
// same product and kind is already present. Quantities must be positive and
// the product must exist in the catalog.
func (s *Service) AddItem(ctx context.Context, cartID string, item Item) (err error) {
	defer func() { recordMutation("add_item", err) }()
	if item.Qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	switch item.Kind {
	case pricing.KindPurchase:
		if item.RentalDays != 0 || item.RentalPrice != 0 {
			return fmt.Errorf("purchase lines carry no rental terms: %w", ErrInvalidInput)
		}
	case pricing.KindRental:
		if item.RentalDays <= 0 {
			return fmt.Errorf("rental days must be positive: %w", ErrInvalidInput)
		}
		if item.RentalPrice < 0 {
			return fmt.Errorf("rental price must not be negative: %w", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("invalid line kind %q: %w", item.Kind, ErrInvalidInput)
	}
	c, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	if _, err := s.catalog.Get(ctx, item.ProductID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return ErrUnknownProduct
		}
		return err
	}

	existing, err := s.store.FindItem(ctx, c.ID, item.ProductID, item.Kind)
	if err == nil {
		if err := s.store.UpdateItemQty(ctx, c.ID, existing.ID, existing.Qty+item.Qty); err != nil {
			return err
		}
		return s.touch(ctx, c.ID)
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := s.store.InsertItem(ctx, c.ID, item); err != nil {
		return err
	}
	return s.touch(ctx, c.ID)
}

// UpdateQty sets the quantity of an existing line. Zero and negative
// quantities are rejected; removal is an explicit separate operation.
func (s *Service) UpdateQty(ctx context.Context, cartID, itemID string, qty int) (err error) {
	defer func() { recordMutation("update_qty", err) }()
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	c, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateItemQty(ctx, c.ID, itemID, qty); err != nil {
		return err
	}
	return s.touch(ctx, c.ID)
}

// RemoveItem deletes a single line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (err error) {
	defer func() { recordMutation("remove_item", err) }()
	c, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, c.ID, itemID); err != nil {
		return err
	}
	return s.touch(ctx, c.ID)
}

// Clear empties the cart and drops any applied coupon with it.
func (s *Service) Clear(ctx context.Context, cartID string) (err error) {
	defer func() { recordMutation("clear", err) }()
	c, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	if err := s.store.ClearItems(ctx, c.ID); err != nil {
		return err
	}
	if err := s.store.SetCoupon(ctx, c.ID, nil); err != nil {
		return err
	}
	return s.touch(ctx, c.ID)
}

// ApplyCoupon validates the code against the current subtotal and attaches
// it to the cart. Callers can tell a subtotal shortfall apart from an
// unknown or expired code through the returned error.
func (s *Service) ApplyCoupon(ctx context.Context, cartID, code string) (view View, err error) {
	defer func() { recordMutation("apply_coupon", err) }()
	c, err := s.load(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	subtotal, err := s.subtotal(ctx, c.ID)
	if err != nil {
		return View{}, err
	}
	validated, err := s.coupons.Validate(ctx, code, subtotal)
	if err != nil {
		return View{}, err
	}
	applied := validated.Code
	if err := s.store.SetCoupon(ctx, c.ID, &applied); err != nil {
		return View{}, err
	}
	if err := s.touch(ctx, c.ID); err != nil {
		return View{}, err
	}
	c.CouponCode = &applied
	return s.view(ctx, c)
}

// RemoveCoupon detaches the applied coupon, if any.
func (s *Service) RemoveCoupon(ctx context.Context, cartID string) (err error) {
	defer func() { recordMutation("remove_coupon", err) }()
	c, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	if err := s.store.SetCoupon(ctx, c.ID, nil); err != nil {
		return err
	}
	return s.touch(ctx, c.ID)
}

// SetTier records the membership tier the cart is priced under.
func (s *Service) SetTier(ctx context.Context, cartID string, tier membership.Tier) (err error) {
	defer func() { recordMutation("set_tier", err) }()
	c, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	if err := s.store.SetTier(ctx, c.ID, tier); err != nil {
		return err
	}
	return s.touch(ctx, c.ID)
}

// Snapshot assembles the pricing inputs for the cart's current state. The
// coupon, when present, is re-validated against the live subtotal so a cart
// that shrank below the minimum silently loses the discount rather than
// keeping a stale one.
func (s *Service) Snapshot(ctx context.Context, c Cart) (pricing.Snapshot, pricing.StaticCatalog, error) {
	items, err := s.store.ListItems(ctx, c.ID)
	if err != nil {
		return pricing.Snapshot{}, nil, err
	}
	lines := make([]pricing.Line, 0, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.Line())
		ids = append(ids, it.ProductID)
	}
	snapshot, err := s.catalog.Lookup(ctx, ids)
	if err != nil {
		return pricing.Snapshot{}, nil, err
	}
	out := pricing.Snapshot{Lines: lines}
	if c.CouponCode != nil && *c.CouponCode != "" {
		subtotal := pricing.Subtotal(lines, snapshot)
		if validated, err := s.coupons.Validate(ctx, *c.CouponCode, subtotal); err == nil {
			out.Coupon = &validated
		} else if !errors.Is(err, coupon.ErrNotFound) &&
			!errors.Is(err, coupon.ErrExpired) &&
			!errors.Is(err, coupon.ErrBelowMinimum) {
			return pricing.Snapshot{}, nil, err
		}
	}
	return out, snapshot, nil
}

func (s *Service) load(ctx context.Context, cartID string) (Cart, error) {
	if cartID == "" {
		return Cart{}, fmt.Errorf("cart id required: %w", ErrInvalidInput)
	}
	c, err := s.store.GetByID(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(s.now()) {
		return Cart{}, ErrNotFound
	}
	return c, nil
}

func (s *Service) touch(ctx context.Context, cartID string) error {
	return s.store.Touch(ctx, cartID, s.now().Add(s.ttl()))
}

func (s *Service) subtotal(ctx context.Context, cartID string) (int64, error) {
	items, err := s.store.ListItems(ctx, cartID)
	if err != nil {
		return 0, err
	}
	lines := make([]pricing.Line, 0, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.Line())
		ids = append(ids, it.ProductID)
	}
	snapshot, err := s.catalog.Lookup(ctx, ids)
	if err != nil {
		return 0, err
	}
	return pricing.Subtotal(lines, snapshot), nil
}

func (s *Service) view(ctx context.Context, c Cart) (View, error) {
	items, err := s.store.ListItems(ctx, c.ID)
	if err != nil {
		return View{}, err
	}
	snapshot, catalogView, err := s.Snapshot(ctx, c)
	if err != nil {
		return View{}, err
	}
	if items == nil {
		items = []Item{}
	}
	return View{
		ID:      c.ID,
		AnonID:  c.AnonID,
		Tier:    c.Tier,
		Coupon:  c.CouponCode,
		Items:   items,
		Pricing: pricing.Compute(snapshot, catalogView, c.Tier),
	}, nil
}

func recordMutation(op string, err error) {
	if obs.CartMutationsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.CartMutationsTotal.WithLabelValues(op, result).Inc()
}
