package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bookhaven/backend-store/internal/common"
)

// Handler wires catalog operations to HTTP.
type Handler struct {
	Svc *Service
}

// Products lists the whole catalog.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.Svc.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load catalog", nil)
		return
	}
	if products == nil {
		products = []Product{}
	}
	common.Data(w, http.StatusOK, products)
}

// ProductDetail returns a single product by id.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "product id is required", nil)
		return
	}
	product, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load product", nil)
		return
	}
	common.Data(w, http.StatusOK, product)
}

// ReplaceAll swaps the whole catalog from an admin payload.
func (h *Handler) ReplaceAll(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Products []Product `json:"products"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.ReplaceAll(r.Context(), payload.Products); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"count": len(payload.Products)})
}
