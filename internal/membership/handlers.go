package membership

import (
	"net/http"

	"github.com/bookhaven/backend-store/internal/common"
)

type tierView struct {
	Tier                Tier `json:"tier"`
	DiscountPercent     int  `json:"discountPercent"`
	FreeRentalsPerMonth int  `json:"freeRentalsPerMonth"`
}

// TiersHandler lists the available membership tiers and their benefits.
func TiersHandler(w http.ResponseWriter, _ *http.Request) {
	tiers := Tiers()
	out := make([]tierView, 0, len(tiers))
	for _, t := range tiers {
		b := ForTier(t)
		out = append(out, tierView{
			Tier:                t,
			DiscountPercent:     b.DiscountPercent,
			FreeRentalsPerMonth: b.FreeRentalsPerMonth,
		})
	}
	common.Data(w, http.StatusOK, out)
}
