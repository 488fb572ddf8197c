package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bookhaven/backend-store/internal/pricing"
)

// Kind selects between percentage and fixed-amount coupons.
type Kind string

const (
	KindPercent Kind = "percent"
	KindFixed   Kind = "fixed"
)

var (
	// ErrNotFound signals that no coupon exists for the given code.
	ErrNotFound = errors.New("coupon not found")
	// ErrExpired signals that the coupon exists but its expiry has passed.
	ErrExpired = errors.New("coupon expired")
	// ErrBelowMinimum signals that the order subtotal does not meet the
	// coupon minimum.
	ErrBelowMinimum = errors.New("order below coupon minimum")
)

// Coupon is a stored discount rule. Codes are matched case-insensitively;
// Categories is retained for reporting and does not narrow the discount base.
type Coupon struct {
	Code        string     `json:"code"`
	Kind        Kind       `json:"kind"`
	Value       int64      `json:"value"`
	MinOrder    int64      `json:"minOrderCents"`
	MaxDiscount int64      `json:"maxDiscountCents"`
	Categories  []string   `json:"categories,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// NormalizeCode canonicalises a coupon code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Validate checks the coupon terms for admin writes.
func (c Coupon) Validate() error {
	if NormalizeCode(c.Code) == "" {
		return errors.New("code is required")
	}
	switch c.Kind {
	case KindPercent:
		if c.Value < 0 || c.Value > 100 {
			return fmt.Errorf("percent value must be between 0 and 100, got %d", c.Value)
		}
	case KindFixed:
		if c.Value < 0 {
			return errors.New("fixed value must not be negative")
		}
	default:
		return fmt.Errorf("invalid kind %q", c.Kind)
	}
	if c.MinOrder < 0 {
		return errors.New("minimum order must not be negative")
	}
	if c.MaxDiscount < 0 {
		return errors.New("maximum discount must not be negative")
	}
	return nil
}

// Expired reports whether the coupon has lapsed at the given instant.
func (c Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Pricing converts the stored coupon into the shape the pricing engine
// consumes.
func (c Coupon) Pricing() pricing.Coupon {
	return pricing.Coupon{
		Code:        c.Code,
		Kind:        pricing.CouponKind(c.Kind),
		Value:       c.Value,
		MinOrder:    c.MinOrder,
		MaxDiscount: c.MaxDiscount,
		Categories:  c.Categories,
		ExpiresAt:   c.ExpiresAt,
	}
}
