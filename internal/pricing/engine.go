package pricing

import (
	"time"

	"github.com/bookhaven/backend-store/internal/membership"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// Kind distinguishes the two cart line variants.
type Kind string

const (
	// KindPurchase is a regular purchase line item.
	KindPurchase Kind = "purchase"
	// KindRental is a time-limited rental at a fixed price.
	KindRental Kind = "rental"
)

// BulkRule grants a percentage discount once a purchase quantity meets the
// threshold. The comparison is inclusive and rentals never qualify.
type BulkRule struct {
	Threshold int
	Percent   int
}

// Product is the read-only catalog record the engine prices against.
type Product struct {
	ID                string
	BasePrice         Money
	SalePrice         *Money
	Bulk              *BulkRule
	Category          string
	MembershipProduct bool
}

// Line is a single cart line item.
type Line struct {
	ProductID   string
	Qty         int
	Kind        Kind
	RentalDays  int
	RentalPrice Money
}

// CouponKind selects between percentage and fixed-amount coupons.
type CouponKind string

const (
	CouponPercent CouponKind = "percent"
	CouponFixed   CouponKind = "fixed"
)

// Coupon carries the discount terms of an applied coupon. Expiry is enforced
// upstream when the coupon is applied; the engine only does arithmetic.
// Categories is recorded for reporting but does not restrict the discount
// base: the amount is always computed against the whole-cart subtotal.
type Coupon struct {
	Code        string
	Kind        CouponKind
	Value       int64
	MinOrder    Money
	MaxDiscount Money
	Categories  []string
	ExpiresAt   *time.Time
}

// Snapshot is the cart state crossing into the engine.
type Snapshot struct {
	Lines  []Line
	Coupon *Coupon
}

// Result aggregates the computed pricing components.
type Result struct {
	Subtotal           Money `json:"subtotal"`
	BulkDiscount       Money `json:"bulkDiscount"`
	MembershipDiscount Money `json:"membershipDiscount"`
	CouponDiscount     Money `json:"couponDiscount"`
	Total              Money `json:"total"`
}

// Catalog resolves product records for pricing. Lookups are read-only.
type Catalog interface {
	Product(id string) (Product, bool)
}

// StaticCatalog is a map-backed Catalog for snapshots and tests.
type StaticCatalog map[string]Product

// Product implements Catalog.
func (c StaticCatalog) Product(id string) (Product, bool) {
	p, ok := c[id]
	return p, ok
}

// ListPrice returns the unit price used for subtotals: the sale price when
// present, else the base price.
func ListPrice(p Product) Money {
	if p.SalePrice != nil && *p.SalePrice < p.BasePrice {
		return *p.SalePrice
	}
	return p.BasePrice
}

// unitPrice returns the price one unit of the line contributes before any
// discounting: the fixed rental price for rentals, the list price otherwise.
func unitPrice(l Line, p Product) Money {
	if l.Kind == KindRental {
		return l.RentalPrice
	}
	return ListPrice(p)
}

// LineTotal computes the membership-adjusted total for one line. Membership
// discounting applies only to purchases of non-membership products; rentals
// keep their fixed price. The result is never negative and equals
// qty*unitPrice when the tier is TierNone.
func LineTotal(l Line, p Product, tier membership.Tier) Money {
	if l.Qty <= 0 {
		return 0
	}
	unit := unitPrice(l, p)
	if unit < 0 {
		unit = 0
	}
	if l.Kind == KindPurchase && !p.MembershipProduct {
		pct := membership.ForTier(tier).DiscountPercent
		if pct > 0 {
			unit -= unit * Money(pct) / 100
		}
	}
	return unit * Money(l.Qty)
}

// BulkDiscount computes the bulk discount a purchase line earns. The discount
// basis is the list price, pre membership discounting. Rentals, missing rules,
// and unmet thresholds yield zero.
func BulkDiscount(l Line, p Product) Money {
	if l.Kind != KindPurchase || p.Bulk == nil {
		return 0
	}
	if p.Bulk.Threshold <= 0 || l.Qty < p.Bulk.Threshold {
		return 0
	}
	discount := ListPrice(p) * Money(l.Qty) * Money(p.Bulk.Percent) / 100
	if discount < 0 {
		return 0
	}
	return discount
}

// Subtotal sums the pre-discount contribution of every line. Lines whose
// product is missing from the catalog are skipped; the cart boundary rejects
// unknown products before they reach the engine.
func Subtotal(lines []Line, catalog Catalog) Money {
	var subtotal Money
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		p, ok := catalog.Product(l.ProductID)
		if !ok && l.Kind != KindRental {
			continue
		}
		unit := unitPrice(l, p)
		if unit < 0 {
			continue
		}
		subtotal += unit * Money(l.Qty)
	}
	return subtotal
}

// CouponDiscount computes the capped discount a coupon grants against the
// provided subtotal. A nil coupon, or a subtotal below the coupon minimum,
// yields zero; the apply boundary already rejects both cases and this is the
// defensive double-check.
func CouponDiscount(c *Coupon, subtotal Money) Money {
	if c == nil || subtotal <= 0 {
		return 0
	}
	if c.MinOrder > 0 && subtotal < c.MinOrder {
		return 0
	}
	var discount Money
	switch c.Kind {
	case CouponPercent:
		discount = subtotal * c.Value / 100
	case CouponFixed:
		discount = c.Value
		if discount > subtotal {
			discount = subtotal
		}
	default:
		return 0
	}
	if c.MaxDiscount > 0 && discount > c.MaxDiscount {
		discount = c.MaxDiscount
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// membershipDiscount computes the tier discount for one line against the list
// price. It is deliberately independent of BulkDiscount: both discounts use
// the same list-price basis and do not compound.
func membershipDiscount(l Line, p Product, pct int) Money {
	if l.Kind != KindPurchase || p.MembershipProduct || pct <= 0 || l.Qty <= 0 {
		return 0
	}
	discount := ListPrice(p) * Money(l.Qty) * Money(pct) / 100
	if discount < 0 {
		return 0
	}
	return discount
}

// Compute derives the full pricing result for a cart snapshot. It is pure:
// identical inputs always produce identical results and no input is mutated.
// The total is clamped so discounts can never drive it negative.
func Compute(s Snapshot, catalog Catalog, tier membership.Tier) Result {
	pct := membership.ForTier(tier).DiscountPercent

	var (
		subtotal Money
		bulk     Money
		member   Money
	)
	for _, l := range s.Lines {
		if l.Qty <= 0 {
			continue
		}
		p, ok := catalog.Product(l.ProductID)
		if !ok && l.Kind != KindRental {
			continue
		}
		unit := unitPrice(l, p)
		if unit < 0 {
			continue
		}
		subtotal += unit * Money(l.Qty)
		bulk += BulkDiscount(l, p)
		member += membershipDiscount(l, p, pct)
	}

	coupon := CouponDiscount(s.Coupon, subtotal)

	total := subtotal - bulk - member - coupon
	if total < 0 {
		total = 0
	}
	return Result{
		Subtotal:           subtotal,
		BulkDiscount:       bulk,
		MembershipDiscount: member,
		CouponDiscount:     coupon,
		Total:              total,
	}
}
