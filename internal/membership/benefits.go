package membership

import (
	"fmt"
	"strings"
)

// Tier identifies a membership subscription level.
type Tier string

const (
	TierNone     Tier = "none"
	TierBasic    Tier = "basic"
	TierPremium  Tier = "premium"
	TierUltimate Tier = "ultimate"
)

// Benefits describes what a tier grants its subscribers.
type Benefits struct {
	DiscountPercent     int `json:"discountPercent"`
	FreeRentalsPerMonth int `json:"freeRentalsPerMonth"`
}

// benefitsByTier is the static tier mapping. It is not derived from cart state.
var benefitsByTier = map[Tier]Benefits{
	TierNone:     {DiscountPercent: 0, FreeRentalsPerMonth: 0},
	TierBasic:    {DiscountPercent: 5, FreeRentalsPerMonth: 1},
	TierPremium:  {DiscountPercent: 10, FreeRentalsPerMonth: 3},
	TierUltimate: {DiscountPercent: 15, FreeRentalsPerMonth: 5},
}

// Tiers lists all tiers in ascending order of benefit.
func Tiers() []Tier {
	return []Tier{TierNone, TierBasic, TierPremium, TierUltimate}
}

// ForTier returns the benefits granted by the provided tier. Unknown tiers
// resolve to the zero benefits of TierNone.
func ForTier(t Tier) Benefits {
	if b, ok := benefitsByTier[t]; ok {
		return b
	}
	return benefitsByTier[TierNone]
}

// ParseTier normalises a raw string into a Tier. Empty input maps to TierNone.
func ParseTier(value string) (Tier, error) {
	normalized := Tier(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return TierNone, nil
	}
	if _, ok := benefitsByTier[normalized]; !ok {
		return TierNone, fmt.Errorf("unknown membership tier %q", value)
	}
	return normalized, nil
}
