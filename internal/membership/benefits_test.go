package membership

import "testing"

func TestForTier(t *testing.T) {
	if b := ForTier(TierPremium); b.DiscountPercent != 10 {
		t.Fatalf("expected 10 percent for premium, got %d", b.DiscountPercent)
	}
	if b := ForTier(TierNone); b.DiscountPercent != 0 || b.FreeRentalsPerMonth != 0 {
		t.Fatalf("expected zero benefits for none, got %+v", b)
	}
	if b := ForTier(Tier("bogus")); b.DiscountPercent != 0 {
		t.Fatalf("unknown tier should resolve to none, got %+v", b)
	}
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("  Ultimate ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierUltimate {
		t.Fatalf("expected ultimate, got %s", tier)
	}
	if tier, err := ParseTier(""); err != nil || tier != TierNone {
		t.Fatalf("empty input should map to none, got %s err %v", tier, err)
	}
	if _, err := ParseTier("gold"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}
