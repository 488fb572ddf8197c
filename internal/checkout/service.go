package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bookhaven/backend-store/internal/cart"
	"github.com/bookhaven/backend-store/internal/catalog"
	"github.com/bookhaven/backend-store/internal/obs"
	"github.com/bookhaven/backend-store/internal/pricing"
)

// ErrEmptyCart is returned when a checkout targets a cart without lines.
var ErrEmptyCart = errors.New("cart is empty")

// Carts is the slice of the cart service checkout consumes.
type Carts interface {
	Get(ctx context.Context, cartID string) (cart.View, error)
	Clear(ctx context.Context, cartID string) error
}

// CatalogSource resolves product records for order line snapshots.
type CatalogSource interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

// ReceiptEnqueuer hands finished orders to the mail pipeline.
type ReceiptEnqueuer interface {
	EnqueueOrderReceipt(ctx context.Context, order Order) error
}

// Input is the checkout request.
type Input struct {
	CartID string `json:"cartId"`
	Email  string `json:"email"`
}

// Service turns a cart into a persisted order. The pricing breakdown is
// recomputed from the cart's stored state at the moment of checkout; whatever
// preview the client saw earlier carries no authority.
type Service struct {
	Carts    Carts
	Catalog  CatalogSource
	Orders   Store
	Receipts ReceiptEnqueuer
	Currency string
	Log      zerolog.Logger
}

// Create prices the cart, writes the order, clears the cart, and queues the
// receipt email.
func (s *Service) Create(ctx context.Context, in Input) (Order, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return Order{}, fmt.Errorf("email is required: %w", cart.ErrInvalidInput)
	}
	view, err := s.Carts.Get(ctx, in.CartID)
	if err != nil {
		recordOrder("rejected")
		return Order{}, err
	}
	if len(view.Items) == 0 {
		recordOrder("rejected")
		return Order{}, ErrEmptyCart
	}

	items := make([]OrderItem, 0, len(view.Items))
	for _, it := range view.Items {
		line, err := s.orderItem(ctx, it)
		if err != nil {
			recordOrder("rejected")
			return Order{}, err
		}
		items = append(items, line)
	}

	order := Order{
		Email:      email,
		Tier:       view.Tier,
		CouponCode: view.Coupon,
		Currency:   s.Currency,
		Pricing:    view.Pricing,
		Items:      items,
	}
	created, err := s.Orders.Create(ctx, order)
	if err != nil {
		recordOrder("error")
		return Order{}, err
	}
	recordOrder("created")

	if err := s.Carts.Clear(ctx, in.CartID); err != nil {
		s.Log.Warn().Err(err).Str("order_id", created.ID).Msg("clear cart after checkout failed")
	}
	if s.Receipts != nil {
		if err := s.Receipts.EnqueueOrderReceipt(ctx, created); err != nil {
			s.Log.Warn().Err(err).Str("order_id", created.ID).Msg("enqueue receipt failed")
		}
	}
	return created, nil
}

// Get returns a stored order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.Orders.GetByID(ctx, id)
}

func (s *Service) orderItem(ctx context.Context, it cart.Item) (OrderItem, error) {
	p, err := s.Catalog.Get(ctx, it.ProductID)
	if err != nil {
		return OrderItem{}, fmt.Errorf("resolve product %s: %w", it.ProductID, err)
	}
	unit := pricing.ListPrice(p.Pricing())
	if it.Kind == pricing.KindRental {
		unit = it.RentalPrice
	}
	return OrderItem{
		ProductID:  it.ProductID,
		Title:      p.Title,
		Kind:       it.Kind,
		Qty:        it.Qty,
		RentalDays: it.RentalDays,
		UnitPrice:  unit,
		LineTotal:  unit * int64(it.Qty),
	}, nil
}

func recordOrder(result string) {
	if obs.OrdersTotal != nil {
		obs.OrdersTotal.WithLabelValues(result).Inc()
	}
}
