package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bookhaven/backend-store/internal/common"
	"github.com/bookhaven/backend-store/internal/membership"
)

// TaskEnqueuer is the slice of the queue the HTTP layer needs.
type TaskEnqueuer interface {
	EnqueueContact(ctx context.Context, msg ContactPayload) error
	EnqueueWelcome(ctx context.Context, email string, tier membership.Tier) error
	EnqueueNewsletter(ctx context.Context, subject, body string) error
}

// Handler exposes contact and newsletter endpoints.
type Handler struct {
	Queue       TaskEnqueuer
	Subscribers SubscriberStore
	Validate    *validator.Validate
}

type contactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=4000"`
}

// Contact accepts a contact form message and queues it for delivery.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "name, email, and message are required", nil)
		return
	}
	err := h.Queue.EnqueueContact(r.Context(), ContactPayload{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Message: req.Message,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to queue message", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"status": "queued"})
}

type subscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Tier  string `json:"tier"`
}

// Subscribe adds an email to the newsletter and queues the welcome email.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "a valid email is required", nil)
		return
	}
	tier, err := membership.ParseTier(req.Tier)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	email := strings.TrimSpace(req.Email)
	if err := h.Subscribers.Upsert(r.Context(), Subscriber{Email: email, Tier: tier, Newsletter: true}); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to subscribe", nil)
		return
	}
	if err := h.Queue.EnqueueWelcome(r.Context(), email, tier); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to queue welcome email", nil)
		return
	}
	common.Data(w, http.StatusCreated, map[string]any{"email": email, "tier": tier})
}

// Unsubscribe removes an email from newsletter delivery.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "a valid email is required", nil)
		return
	}
	if err := h.Subscribers.SetNewsletter(r.Context(), strings.TrimSpace(req.Email), false); err != nil {
		if errors.Is(err, ErrSubscriberNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "subscriber not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to unsubscribe", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type newsletterRequest struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// SendNewsletter queues a newsletter issue for fan-out delivery.
func (h *Handler) SendNewsletter(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "subject and body are required", nil)
		return
	}
	if err := h.Queue.EnqueueNewsletter(r.Context(), req.Subject, req.Body); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to queue newsletter", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"status": "queued"})
}
