package cart

import (
	"errors"
	"time"

	"github.com/bookhaven/backend-store/internal/membership"
	"github.com/bookhaven/backend-store/internal/pricing"
)

var (
	// ErrNotFound indicates the requested cart or item could not be located.
	ErrNotFound = errors.New("cart not found")
	// ErrInvalidInput is returned when the provided payload is invalid.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownProduct is returned when a line references a product the
	// catalog does not know.
	ErrUnknownProduct = errors.New("unknown product")
)

// Cart is the persisted cart header. Items live in their own table.
type Cart struct {
	ID         string
	AnonID     string
	Tier       membership.Tier
	CouponCode *string
	ExpiresAt  *time.Time
}

// Item is a persisted cart line.
type Item struct {
	ID          string       `json:"id"`
	ProductID   string       `json:"productId"`
	Kind        pricing.Kind `json:"kind"`
	Qty         int          `json:"qty"`
	RentalDays  int          `json:"rentalDays,omitempty"`
	RentalPrice int64        `json:"rentalPriceCents,omitempty"`
}

// Line converts the item into the pricing engine's input shape.
func (i Item) Line() pricing.Line {
	return pricing.Line{
		ProductID:   i.ProductID,
		Qty:         i.Qty,
		Kind:        i.Kind,
		RentalDays:  i.RentalDays,
		RentalPrice: i.RentalPrice,
	}
}

// View is the cart representation returned to clients: the stored state plus
// a freshly computed pricing breakdown.
type View struct {
	ID      string          `json:"id"`
	AnonID  string          `json:"anonId"`
	Tier    membership.Tier `json:"tier"`
	Coupon  *string         `json:"coupon"`
	Items   []Item          `json:"items"`
	Pricing pricing.Result  `json:"pricing"`
}
