package coupon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bookhaven/backend-store/internal/common"
)

// Handler exposes administrative coupon management endpoints.
type Handler struct {
	Svc *Service
}

type couponPayload struct {
	Code        string     `json:"code"`
	Kind        string     `json:"kind"`
	Value       int64      `json:"value"`
	MinOrder    int64      `json:"minOrderCents"`
	MaxDiscount int64      `json:"maxDiscountCents"`
	Categories  []string   `json:"categories"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

func (p couponPayload) toModel() Coupon {
	kind := strings.TrimSpace(p.Kind)
	if kind == "" {
		kind = string(KindFixed)
	}
	return Coupon{
		Code:        NormalizeCode(p.Code),
		Kind:        Kind(kind),
		Value:       p.Value,
		MinOrder:    p.MinOrder,
		MaxDiscount: p.MaxDiscount,
		Categories:  p.Categories,
		ExpiresAt:   p.ExpiresAt,
	}
}

// List returns every stored coupon.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.Svc.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load coupons", nil)
		return
	}
	if coupons == nil {
		coupons = []Coupon{}
	}
	common.Data(w, http.StatusOK, coupons)
}

// Create inserts a new coupon rule.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c := payload.toModel()
	if err := h.Svc.Create(r.Context(), c); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	common.Data(w, http.StatusCreated, c)
}

// Update rewrites the terms of an existing coupon identified by code.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.Code = code
	c := payload.toModel()
	if err := h.Svc.Update(r.Context(), c); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Delete removes a coupon by code.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), code); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete coupon", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"deleted": NormalizeCode(code)})
}
