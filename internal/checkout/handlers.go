package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bookhaven/backend-store/internal/cart"
	"github.com/bookhaven/backend-store/internal/common"
	"github.com/bookhaven/backend-store/internal/coupon"
)

// Handler wires checkout to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type createRequest struct {
	CartID string `json:"cartId" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}

// Create turns a cart into an order.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cartId and a valid email are required", nil)
			return
		}
	}
	order, err := h.Svc.Create(r.Context(), Input{CartID: req.CartID, Email: req.Email})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, order)
}

// Get returns a stored order.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, order)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart has no items", nil)
	case errors.Is(err, cart.ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, coupon.ErrBelowMinimum), errors.Is(err, coupon.ErrExpired), errors.Is(err, coupon.ErrNotFound):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_INVALID", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout failed", nil)
	}
}
