package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bookhaven/backend-store/internal/pricing"
)

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")

// BulkRule describes a quantity-threshold discount attached to a product.
type BulkRule struct {
	Threshold int `json:"threshold"`
	Percent   int `json:"percent"`
}

// Product is a catalog record. Reference data: looked up, never mutated in
// place; the only write path is a bulk replacement of the whole catalog.
type Product struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Author            string    `json:"author,omitempty"`
	Category          string    `json:"category,omitempty"`
	BasePrice         int64     `json:"basePrice"`
	SalePrice         *int64    `json:"salePrice,omitempty"`
	Bulk              *BulkRule `json:"bulkDiscount,omitempty"`
	MembershipProduct bool      `json:"membershipProduct,omitempty"`
	InStock           bool      `json:"inStock"`
}

// Validate checks the structural invariants of a product record.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("product id is required")
	}
	if p.BasePrice < 0 {
		return fmt.Errorf("product %s: base price must not be negative", p.ID)
	}
	if p.SalePrice != nil && (*p.SalePrice < 0 || *p.SalePrice >= p.BasePrice) {
		return fmt.Errorf("product %s: sale price must be positive and below base price", p.ID)
	}
	if p.Bulk != nil {
		if p.Bulk.Threshold <= 0 {
			return fmt.Errorf("product %s: bulk threshold must be positive", p.ID)
		}
		if p.Bulk.Percent < 0 || p.Bulk.Percent > 100 {
			return fmt.Errorf("product %s: bulk percent must be between 0 and 100", p.ID)
		}
	}
	return nil
}

// Pricing converts the catalog record into the engine's product shape.
func (p Product) Pricing() pricing.Product {
	out := pricing.Product{
		ID:                p.ID,
		BasePrice:         p.BasePrice,
		Category:          p.Category,
		MembershipProduct: p.MembershipProduct,
	}
	if p.SalePrice != nil {
		sale := *p.SalePrice
		out.SalePrice = &sale
	}
	if p.Bulk != nil {
		out.Bulk = &pricing.BulkRule{Threshold: p.Bulk.Threshold, Percent: p.Bulk.Percent}
	}
	return out
}
