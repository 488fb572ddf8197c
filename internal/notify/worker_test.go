package notify_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/backend-store/internal/common"
	"github.com/bookhaven/backend-store/internal/membership"
	"github.com/bookhaven/backend-store/internal/notify"
)

type fakeSubscribers struct {
	subs map[string]notify.Subscriber
}

func (f *fakeSubscribers) Upsert(_ context.Context, sub notify.Subscriber) error {
	f.subs[sub.Email] = sub
	return nil
}

func (f *fakeSubscribers) SetNewsletter(_ context.Context, email string, enabled bool) error {
	sub, ok := f.subs[email]
	if !ok {
		return notify.ErrSubscriberNotFound
	}
	sub.Newsletter = enabled
	f.subs[email] = sub
	return nil
}

func (f *fakeSubscribers) ListNewsletter(_ context.Context) ([]notify.Subscriber, error) {
	var out []notify.Subscriber
	for _, sub := range f.subs {
		if sub.Newsletter {
			out = append(out, sub)
		}
	}
	return out, nil
}

func newWorker(t *testing.T) (*notify.Worker, *common.InMemoryEmail, *fakeSubscribers) {
	t.Helper()
	mail := &common.InMemoryEmail{}
	subs := &fakeSubscribers{subs: map[string]notify.Subscriber{}}
	return &notify.Worker{
		Mail:         mail,
		Subscribers:  subs,
		ContactInbox: "support@bookhaven.example",
		Log:          zerolog.Nop(),
	}, mail, subs
}

func task(t *testing.T, kind string, payload any) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(kind, data)
}

func TestHandleOrderReceipt(t *testing.T) {
	worker, mail, _ := newWorker(t)
	payload := notify.ReceiptPayload{
		OrderID:  "order-1",
		Email:    "reader@example.com",
		Currency: "USD",
		Subtotal: 3000, BulkDiscount: 300, Total: 2700,
		Items: []notify.ReceiptItem{{Title: "Dune", Kind: "purchase", Qty: 3, LineTotal: 3000}},
	}

	err := worker.HandleOrderReceipt(context.Background(), task(t, notify.TaskOrderReceipt, payload))
	require.NoError(t, err)
	require.Len(t, mail.Outbox, 1)
	require.Equal(t, "reader@example.com", mail.Outbox[0].To)
	require.Contains(t, mail.Outbox[0].Subject, "order-1")
	require.Contains(t, mail.Outbox[0].HTML, "Dune")
	require.Contains(t, mail.Outbox[0].HTML, "USD 27.00")
}

func TestHandleContactGoesToInbox(t *testing.T) {
	worker, mail, _ := newWorker(t)
	payload := notify.ContactPayload{Name: "Ada", Email: "ada@example.com", Message: "Where is my book?"}

	err := worker.HandleContact(context.Background(), task(t, notify.TaskContact, payload))
	require.NoError(t, err)
	require.Len(t, mail.Outbox, 1)
	require.Equal(t, "support@bookhaven.example", mail.Outbox[0].To)
	require.Contains(t, mail.Outbox[0].HTML, "ada@example.com")
}

func TestHandleWelcomeMentionsBenefits(t *testing.T) {
	worker, mail, _ := newWorker(t)

	err := worker.HandleWelcome(context.Background(),
		task(t, notify.TaskWelcome, notify.WelcomePayload{Email: "new@example.com", Tier: membership.TierPremium}))
	require.NoError(t, err)
	require.Len(t, mail.Outbox, 1)
	require.Contains(t, mail.Outbox[0].HTML, "10%")
}

func TestHandleNewsletterFansOut(t *testing.T) {
	worker, mail, subs := newWorker(t)
	subs.subs["a@example.com"] = notify.Subscriber{Email: "a@example.com", Newsletter: true}
	subs.subs["b@example.com"] = notify.Subscriber{Email: "b@example.com", Newsletter: true}
	subs.subs["quiet@example.com"] = notify.Subscriber{Email: "quiet@example.com", Newsletter: false}

	err := worker.HandleNewsletter(context.Background(),
		task(t, notify.TaskNewsletter, notify.NewsletterPayload{Subject: "August picks", Body: "<p>Hi</p>"}))
	require.NoError(t, err)
	require.Len(t, mail.Outbox, 2, "opted-out subscribers are skipped")
}

func TestBadPayloadFails(t *testing.T) {
	worker, mail, _ := newWorker(t)
	err := worker.HandleOrderReceipt(context.Background(), asynq.NewTask(notify.TaskOrderReceipt, []byte("{")))
	require.Error(t, err)
	require.Empty(t, mail.Outbox)
}
