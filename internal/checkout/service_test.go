package checkout_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/backend-store/internal/cart"
	"github.com/bookhaven/backend-store/internal/catalog"
	"github.com/bookhaven/backend-store/internal/checkout"
	"github.com/bookhaven/backend-store/internal/membership"
	"github.com/bookhaven/backend-store/internal/pricing"
)

type fakeCarts struct {
	views   map[string]cart.View
	cleared []string
}

func (f *fakeCarts) Get(_ context.Context, cartID string) (cart.View, error) {
	v, ok := f.views[cartID]
	if !ok {
		return cart.View{}, cart.ErrNotFound
	}
	return v, nil
}

func (f *fakeCarts) Clear(_ context.Context, cartID string) error {
	f.cleared = append(f.cleared, cartID)
	return nil
}

type fakeCatalog struct {
	products map[string]catalog.Product
}

func (f *fakeCatalog) Get(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

type fakeOrders struct {
	created []checkout.Order
}

func (f *fakeOrders) Create(_ context.Context, o checkout.Order) (checkout.Order, error) {
	o.ID = "order-1"
	f.created = append(f.created, o)
	return o, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (checkout.Order, error) {
	for _, o := range f.created {
		if o.ID == id {
			return o, nil
		}
	}
	return checkout.Order{}, checkout.ErrNotFound
}

type fakeReceipts struct {
	enqueued []checkout.Order
}

func (f *fakeReceipts) EnqueueOrderReceipt(_ context.Context, o checkout.Order) error {
	f.enqueued = append(f.enqueued, o)
	return nil
}

func newCheckout(t *testing.T, view cart.View) (*checkout.Service, *fakeCarts, *fakeOrders, *fakeReceipts) {
	t.Helper()
	sale := int64(900)
	carts := &fakeCarts{views: map[string]cart.View{"cart-1": view}}
	orders := &fakeOrders{}
	receipts := &fakeReceipts{}
	svc := &checkout.Service{
		Carts: carts,
		Catalog: &fakeCatalog{products: map[string]catalog.Product{
			"book-a": {ID: "book-a", Title: "Dune", BasePrice: 1000, SalePrice: &sale},
			"book-b": {ID: "book-b", Title: "Hyperion", BasePrice: 2000},
		}},
		Orders:   orders,
		Receipts: receipts,
		Currency: "USD",
		Log:      zerolog.Nop(),
	}
	return svc, carts, orders, receipts
}

func TestCreateOrderFreezesCartPricing(t *testing.T) {
	code := "save10"
	view := cart.View{
		ID:     "cart-1",
		Tier:   membership.TierBasic,
		Coupon: &code,
		Items: []cart.Item{
			{ID: "i1", ProductID: "book-a", Kind: pricing.KindPurchase, Qty: 2},
			{ID: "i2", ProductID: "book-b", Kind: pricing.KindRental, Qty: 1, RentalDays: 14, RentalPrice: 400},
		},
		Pricing: pricing.Result{Subtotal: 2200, MembershipDiscount: 90, CouponDiscount: 220, Total: 1890},
	}
	svc, carts, orders, receipts := newCheckout(t, view)

	order, err := svc.Create(context.Background(), checkout.Input{CartID: "cart-1", Email: "reader@example.com"})
	require.NoError(t, err)
	require.Equal(t, "order-1", order.ID)
	require.Equal(t, view.Pricing, order.Pricing)
	require.Equal(t, membership.TierBasic, order.Tier)
	require.NotNil(t, order.CouponCode)

	require.Len(t, order.Items, 2)
	require.Equal(t, "Dune", order.Items[0].Title)
	require.EqualValues(t, 900, order.Items[0].UnitPrice, "sale price wins for purchases")
	require.EqualValues(t, 1800, order.Items[0].LineTotal)
	require.EqualValues(t, 400, order.Items[1].UnitPrice, "rentals keep their fixed price")

	require.Equal(t, []string{"cart-1"}, carts.cleared)
	require.Len(t, receipts.enqueued, 1)
	require.Len(t, orders.created, 1)
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	svc, carts, _, receipts := newCheckout(t, cart.View{ID: "cart-1"})

	_, err := svc.Create(context.Background(), checkout.Input{CartID: "cart-1", Email: "reader@example.com"})
	require.ErrorIs(t, err, checkout.ErrEmptyCart)
	require.Empty(t, carts.cleared)
	require.Empty(t, receipts.enqueued)
}

func TestCreateRequiresEmail(t *testing.T) {
	svc, _, _, _ := newCheckout(t, cart.View{ID: "cart-1"})
	_, err := svc.Create(context.Background(), checkout.Input{CartID: "cart-1", Email: "  "})
	require.ErrorIs(t, err, cart.ErrInvalidInput)
}

func TestCreateUnknownCart(t *testing.T) {
	svc, _, _, _ := newCheckout(t, cart.View{ID: "cart-1"})
	_, err := svc.Create(context.Background(), checkout.Input{CartID: "ghost", Email: "reader@example.com"})
	require.ErrorIs(t, err, cart.ErrNotFound)
}
