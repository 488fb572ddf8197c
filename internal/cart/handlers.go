package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bookhaven/backend-store/internal/common"
	"github.com/bookhaven/backend-store/internal/coupon"
	"github.com/bookhaven/backend-store/internal/membership"
	"github.com/bookhaven/backend-store/internal/pricing"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc      *Service
	Currency string
}

// Create creates or returns the active cart for an anonymous identity.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AnonID string `json:"anonId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)
	c, err := h.Svc.EnsureCart(r.Context(), strings.TrimSpace(payload.AnonID))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, map[string]any{
		"cartId": c.ID,
		"anonId": c.AnonID,
		"tier":   c.Tier,
	})
}

// Get returns cart contents with a pricing preview.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{
		"cart":     view,
		"currency": h.Currency,
	})
}

// AddItem appends a purchase or rental line to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID   string `json:"productId"`
		Kind        string `json:"kind"`
		Qty         int    `json:"qty"`
		RentalDays  int    `json:"rentalDays"`
		RentalPrice int64  `json:"rentalPriceCents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	kind := pricing.Kind(strings.TrimSpace(payload.Kind))
	if kind == "" {
		kind = pricing.KindPurchase
	}
	item := Item{
		ProductID:   strings.TrimSpace(payload.ProductID),
		Kind:        kind,
		Qty:         payload.Qty,
		RentalDays:  payload.RentalDays,
		RentalPrice: payload.RentalPrice,
	}
	if err := h.Svc.AddItem(r.Context(), chi.URLParam(r, "id"), item); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateQty sets the quantity of an existing line.
func (h *Handler) UpdateQty(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	err := h.Svc.UpdateQty(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), payload.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveItem deletes a single line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	err := h.Svc.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear empties the cart and drops any applied coupon.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyCoupon validates and attaches a coupon code to the cart.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	view, err := h.Svc.ApplyCoupon(r.Context(), chi.URLParam(r, "id"), payload.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{
		"cart":     view,
		"currency": h.Currency,
	})
}

// RemoveCoupon detaches the applied coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.RemoveCoupon(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTier records the membership tier the cart is priced under.
func (h *Handler) SetTier(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Tier string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	tier, err := membership.ParseTier(payload.Tier)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if err := h.Svc.SetTier(r.Context(), chi.URLParam(r, "id"), tier); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrUnknownProduct):
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_PRODUCT", "product not in catalog", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, coupon.ErrBelowMinimum):
		common.JSONError(w, http.StatusUnprocessableEntity, "BELOW_MINIMUM", "order does not meet the coupon minimum", nil)
	case errors.Is(err, coupon.ErrExpired):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_EXPIRED", "coupon expired", nil)
	case errors.Is(err, coupon.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "COUPON_NOT_FOUND", "coupon not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart operation failed", nil)
	}
}
