package notify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/backend-store/internal/membership"
	"github.com/bookhaven/backend-store/internal/notify"
)

type fakeQueue struct {
	contacts    []notify.ContactPayload
	welcomes    []notify.WelcomePayload
	newsletters []notify.NewsletterPayload
}

func (f *fakeQueue) EnqueueContact(_ context.Context, msg notify.ContactPayload) error {
	f.contacts = append(f.contacts, msg)
	return nil
}

func (f *fakeQueue) EnqueueWelcome(_ context.Context, email string, tier membership.Tier) error {
	f.welcomes = append(f.welcomes, notify.WelcomePayload{Email: email, Tier: tier})
	return nil
}

func (f *fakeQueue) EnqueueNewsletter(_ context.Context, subject, body string) error {
	f.newsletters = append(f.newsletters, notify.NewsletterPayload{Subject: subject, Body: body})
	return nil
}

func newHandler(t *testing.T) (*notify.Handler, *fakeQueue, *fakeSubscribers) {
	t.Helper()
	queue := &fakeQueue{}
	subs := &fakeSubscribers{subs: map[string]notify.Subscriber{}}
	return &notify.Handler{Queue: queue, Subscribers: subs, Validate: validator.New()}, queue, subs
}

func TestContactValidatesAndQueues(t *testing.T) {
	h, queue, _ := newHandler(t)

	rec := httptest.NewRecorder()
	h.Contact(rec, httptest.NewRequest(http.MethodPost, "/contact",
		strings.NewReader(`{"name":"Ada","email":"not-an-email","message":"hi"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, queue.contacts)

	rec = httptest.NewRecorder()
	h.Contact(rec, httptest.NewRequest(http.MethodPost, "/contact",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","message":"hi"}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.contacts, 1)
}

func TestSubscribeQueuesWelcome(t *testing.T) {
	h, queue, subs := newHandler(t)

	rec := httptest.NewRecorder()
	h.Subscribe(rec, httptest.NewRequest(http.MethodPost, "/newsletter/subscribe",
		strings.NewReader(`{"email":"new@example.com","tier":"premium"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, queue.welcomes, 1)
	require.Equal(t, membership.TierPremium, queue.welcomes[0].Tier)
	require.True(t, subs.subs["new@example.com"].Newsletter)
}

func TestSubscribeRejectsUnknownTier(t *testing.T) {
	h, queue, _ := newHandler(t)

	rec := httptest.NewRecorder()
	h.Subscribe(rec, httptest.NewRequest(http.MethodPost, "/newsletter/subscribe",
		strings.NewReader(`{"email":"new@example.com","tier":"platinum"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, queue.welcomes)
}

func TestUnsubscribe(t *testing.T) {
	h, _, subs := newHandler(t)
	subs.subs["old@example.com"] = notify.Subscriber{Email: "old@example.com", Newsletter: true}

	rec := httptest.NewRecorder()
	h.Unsubscribe(rec, httptest.NewRequest(http.MethodPost, "/newsletter/unsubscribe",
		strings.NewReader(`{"email":"old@example.com"}`)))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.False(t, subs.subs["old@example.com"].Newsletter)

	rec = httptest.NewRecorder()
	h.Unsubscribe(rec, httptest.NewRequest(http.MethodPost, "/newsletter/unsubscribe",
		strings.NewReader(`{"email":"missing@example.com"}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendNewsletter(t *testing.T) {
	h, queue, _ := newHandler(t)

	rec := httptest.NewRecorder()
	h.SendNewsletter(rec, httptest.NewRequest(http.MethodPost, "/admin/newsletter",
		strings.NewReader(`{"subject":"August picks","body":"<p>Hi</p>"}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.newsletters, 1)
}
