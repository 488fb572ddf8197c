package cart_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookhaven/backend-store/internal/cart"
	"github.com/bookhaven/backend-store/internal/catalog"
	"github.com/bookhaven/backend-store/internal/coupon"
	"github.com/bookhaven/backend-store/internal/membership"
	"github.com/bookhaven/backend-store/internal/pricing"
)

type memStore struct {
	carts  map[string]cart.Cart
	items  map[string][]cart.Item
	nextID int
}

func newMemStore() *memStore {
	return &memStore{carts: map[string]cart.Cart{}, items: map[string][]cart.Item{}}
}

func (m *memStore) id() string {
	m.nextID++
	return fmt.Sprintf("id-%d", m.nextID)
}

func (m *memStore) GetByID(_ context.Context, id string) (cart.Cart, error) {
	c, ok := m.carts[id]
	if !ok {
		return cart.Cart{}, cart.ErrNotFound
	}
	return c, nil
}

func (m *memStore) GetActiveByAnon(_ context.Context, anonID string, now time.Time) (cart.Cart, error) {
	for _, c := range m.carts {
		if c.AnonID == anonID && (c.ExpiresAt == nil || c.ExpiresAt.After(now)) {
			return c, nil
		}
	}
	return cart.Cart{}, cart.ErrNotFound
}

func (m *memStore) Create(_ context.Context, anonID string, tier membership.Tier, expires time.Time) (cart.Cart, error) {
	c := cart.Cart{ID: m.id(), AnonID: anonID, Tier: tier, ExpiresAt: &expires}
	m.carts[c.ID] = c
	return c, nil
}

func (m *memStore) Touch(_ context.Context, id string, expires time.Time) error {
	c, ok := m.carts[id]
	if !ok {
		return cart.ErrNotFound
	}
	c.ExpiresAt = &expires
	m.carts[id] = c
	return nil
}

func (m *memStore) SetCoupon(_ context.Context, id string, code *string) error {
	c, ok := m.carts[id]
	if !ok {
		return cart.ErrNotFound
	}
	c.CouponCode = code
	m.carts[id] = c
	return nil
}

func (m *memStore) SetTier(_ context.Context, id string, tier membership.Tier) error {
	c, ok := m.carts[id]
	if !ok {
		return cart.ErrNotFound
	}
	c.Tier = tier
	m.carts[id] = c
	return nil
}

func (m *memStore) ListItems(_ context.Context, cartID string) ([]cart.Item, error) {
	return append([]cart.Item(nil), m.items[cartID]...), nil
}

func (m *memStore) FindItem(_ context.Context, cartID, productID string, kind pricing.Kind) (cart.Item, error) {
	for _, it := range m.items[cartID] {
		if it.ProductID == productID && it.Kind == kind {
			return it, nil
		}
	}
	return cart.Item{}, cart.ErrNotFound
}

func (m *memStore) InsertItem(_ context.Context, cartID string, item cart.Item) error {
	item.ID = m.id()
	m.items[cartID] = append(m.items[cartID], item)
	return nil
}

func (m *memStore) UpdateItemQty(_ context.Context, cartID, itemID string, qty int) error {
	for i, it := range m.items[cartID] {
		if it.ID == itemID {
			m.items[cartID][i].Qty = qty
			return nil
		}
	}
	return cart.ErrNotFound
}

func (m *memStore) DeleteItem(_ context.Context, cartID, itemID string) error {
	items := m.items[cartID]
	for i, it := range items {
		if it.ID == itemID {
			m.items[cartID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return cart.ErrNotFound
}

func (m *memStore) ClearItems(_ context.Context, cartID string) error {
	m.items[cartID] = nil
	return nil
}

type fakeCatalog struct {
	products pricing.StaticCatalog
}

func (f *fakeCatalog) Get(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return catalog.Product{ID: p.ID, BasePrice: p.BasePrice, SalePrice: p.SalePrice}, nil
}

func (f *fakeCatalog) Lookup(_ context.Context, ids []string) (pricing.StaticCatalog, error) {
	out := make(pricing.StaticCatalog)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeCoupons struct {
	coupons map[string]coupon.Coupon
}

func (f *fakeCoupons) Validate(_ context.Context, code string, subtotal int64) (pricing.Coupon, error) {
	c, ok := f.coupons[coupon.NormalizeCode(code)]
	if !ok {
		return pricing.Coupon{}, coupon.ErrNotFound
	}
	if c.MinOrder > 0 && subtotal < c.MinOrder {
		return pricing.Coupon{}, coupon.ErrBelowMinimum
	}
	return c.Pricing(), nil
}

func newCartService(t *testing.T) (*cart.Service, *memStore) {
	t.Helper()
	store := newMemStore()
	cat := &fakeCatalog{products: pricing.StaticCatalog{
		"book-a": {ID: "book-a", BasePrice: 1000, Bulk: &pricing.BulkRule{Threshold: 3, Percent: 10}},
		"book-b": {ID: "book-b", BasePrice: 2000},
	}}
	coupons := &fakeCoupons{coupons: map[string]coupon.Coupon{
		"save10": {Code: "save10", Kind: coupon.KindPercent, Value: 10},
		"big":    {Code: "big", Kind: coupon.KindFixed, Value: 500, MinOrder: 5000},
	}}
	svc, err := cart.NewService(store, cat, coupons)
	require.NoError(t, err)
	return svc, store
}

func TestEnsureCartReusesActiveCart(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	first, err := svc.EnsureCart(ctx, "anon-1")
	require.NoError(t, err)
	second, err := svc.EnsureCart(ctx, "anon-1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	other, err := svc.EnsureCart(ctx, "")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)
	require.NotEmpty(t, other.AnonID)
}

func TestAddItemValidation(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()
	c, err := svc.EnsureCart(ctx, "anon-1")
	require.NoError(t, err)

	err = svc.AddItem(ctx, c.ID, cart.Item{ProductID: "book-a", Kind: pricing.KindPurchase, Qty: 0})
	require.ErrorIs(t, err, cart.ErrInvalidInput)

	err = svc.AddItem(ctx, c.ID, cart.Item{ProductID: "ghost", Kind: pricing.KindPurchase, Qty: 1})
	require.ErrorIs(t, err, cart.ErrUnknownProduct)

	err = svc.AddItem(ctx, c.ID, cart.Item{ProductID: "book-a", Kind: pricing.KindRental, Qty: 1, RentalPrice: 300})
	require.ErrorIs(t, err, cart.ErrInvalidInput, "rental without days must be rejected")

	err = svc.AddItem(ctx, c.ID, cart.Item{ProductID: "book-a", Kind: pricing.KindPurchase, Qty: 2})
	require.NoError(t, err)
}

func TestAddItemMergesSameProductAndKind(t *testing.T) {
	svc, store := newCartService(t)
	ctx := context.Background()
	c, err := svc.EnsureCart(ctx, "anon-1")
	require.NoError(t, err)

	require.NoError(t, svc.AddItem(ctx, c.ID, cart.Item{ProductID: "book-a", Kind: pricing.KindPurchase, Qty: 1}))
	require.NoError(t, svc.AddItem(ctx, c.ID, cart.Item{ProductID: "book-a", Kind: pricing.KindPurchase, Qty: 2}))
	require.NoError(t, svc.AddItem(ctx, c.ID, cart.Item{ProductID: "book-a", Kind: pricing.KindRental, Qty: 1, RentalDays: 14, RentalPrice: 300}))

	items := store.items[c.ID]
	require.Len(t, items, 2, "same product purchase lines merge; rental stays separate")
	require.Equal(t, 3, items[0].Qty)
}

func TestUpdateQtyRejectsNonPositive(t *testing.T) {
	svc, store := newCartService(t)
	ctx := context.Background()
	c, err := svc.EnsureCart(ctx, "anon-1")
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(ctx, c.ID, cart.Item{ProductID: "book-a", Kind: pricing.KindPurchase, Qty: 1}))
	itemID := store.items[c.ID][0].ID

	require.ErrorIs(t, svc.UpdateQty(ctx, c.ID, itemID, 0), cart.ErrInvalidInput)
	require.ErrorIs(t, svc.UpdateQty(ctx, c.ID, itemID, -2), cart.ErrInvalidInput)
	require.NoError(t, svc.UpdateQty(ctx, c.ID, itemID, 5))
	require.Equal(t, 5, store.items[c.ID][0].Qty)
}

func TestGetComputesPricing(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()
	c, err := svc.EnsureCart(ctx, "anon-1")
	require.NoError(t, err)

	require.NoError(t, svc.AddItem(ctx, c.ID, cart.Item{ProductID: "book-a", Kind: pricing.KindPurchase, Qty: 3}))
	require.NoError(t, svc.SetTier(ctx, c.ID, membership.TierBasic))

	view, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3000, view.Pricing.Subtotal)
	require.EqualValues(t, 300, view.Pricing.BulkDiscount)
	require.EqualValues(t, 150, view.Pricing.MembershipDiscount)
	require.EqualValues(t, 2550, view.Pricing.Total)
}

func TestApplyCouponDistinguishesShortfall(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()
	c, err := svc.EnsureCart(ctx, "anon-1")
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(ctx, c.ID, cart.Item{ProductID: "book-b", Kind: pricing.KindPurchase, Qty: 1}))

	_, err = svc.ApplyCoupon(ctx, c.ID, "big")
	require.ErrorIs(t, err, coupon.ErrBelowMinimum)

	_, err = svc.ApplyCoupon(ctx, c.ID, "ghost")
	require.ErrorIs(t, err, coupon.ErrNotFound)

	view, err := svc.ApplyCoupon(ctx, c.ID, "SAVE10")
	require.NoError(t, err)
	require.NotNil(t, view.Coupon)
	require.Equal(t, "save10", *view.Coupon)
	require.EqualValues(t, 200, view.Pricing.CouponDiscount)
	require.EqualValues(t, 1800, view.Pricing.Total)
}

func TestClearDropsItemsAndCoupon(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()
	c, err := svc.EnsureCart(ctx, "anon-1")
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(ctx, c.ID, cart.Item{ProductID: "book-b", Kind: pricing.KindPurchase, Qty: 1}))
	_, err = svc.ApplyCoupon(ctx, c.ID, "save10")
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, c.ID))

	view, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.Nil(t, view.Coupon)
	require.EqualValues(t, 0, view.Pricing.Total)
}

func TestExpiredCartBehavesAsMissing(t *testing.T) {
	svc, store := newCartService(t)
	ctx := context.Background()
	c, err := svc.EnsureCart(ctx, "anon-1")
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	stored := store.carts[c.ID]
	stored.ExpiresAt = &past
	store.carts[c.ID] = stored

	_, err = svc.Get(ctx, c.ID)
	require.ErrorIs(t, err, cart.ErrNotFound)
}
