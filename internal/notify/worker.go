package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/bookhaven/backend-store/internal/common"
	"github.com/bookhaven/backend-store/internal/membership"
	"github.com/bookhaven/backend-store/internal/obs"
)

// Worker delivers queued email tasks.
type Worker struct {
	Mail         common.EmailSender
	Subscribers  SubscriberStore
	ContactInbox string
	Log          zerolog.Logger
}

// Register attaches the worker's handlers to an asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskOrderReceipt, w.HandleOrderReceipt)
	mux.HandleFunc(TaskContact, w.HandleContact)
	mux.HandleFunc(TaskWelcome, w.HandleWelcome)
	mux.HandleFunc(TaskNewsletter, w.HandleNewsletter)
}

// HandleOrderReceipt renders and sends the order confirmation email.
func (w *Worker) HandleOrderReceipt(ctx context.Context, t *asynq.Task) error {
	var p ReceiptPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode receipt payload: %w", err)
	}
	subject := fmt.Sprintf("Your BookHaven order %s", p.OrderID)
	err := w.Mail.Send(ctx, p.Email, subject, receiptHTML(p))
	w.record("receipt", err)
	return err
}

// HandleContact forwards a contact form message to the support inbox.
func (w *Worker) HandleContact(ctx context.Context, t *asynq.Task) error {
	var p ContactPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode contact payload: %w", err)
	}
	subject := fmt.Sprintf("Contact form: %s", p.Name)
	body := fmt.Sprintf("<p>From: %s &lt;%s&gt;</p><p>%s</p>",
		html.EscapeString(p.Name), html.EscapeString(p.Email), html.EscapeString(p.Message))
	err := w.Mail.Send(ctx, w.ContactInbox, subject, body)
	w.record("contact", err)
	return err
}

// HandleWelcome sends the subscription welcome email.
func (w *Worker) HandleWelcome(ctx context.Context, t *asynq.Task) error {
	var p WelcomePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode welcome payload: %w", err)
	}
	err := w.Mail.Send(ctx, p.Email, "Welcome to BookHaven", welcomeHTML(p.Tier))
	w.record("welcome", err)
	return err
}

// HandleNewsletter fans a newsletter issue out to every opted-in subscriber.
// Individual failures are logged and skipped so one bad address cannot stall
// the whole issue.
func (w *Worker) HandleNewsletter(ctx context.Context, t *asynq.Task) error {
	var p NewsletterPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode newsletter payload: %w", err)
	}
	subs, err := w.Subscribers.ListNewsletter(ctx)
	if err != nil {
		return fmt.Errorf("list newsletter subscribers: %w", err)
	}
	for _, sub := range subs {
		if err := w.Mail.Send(ctx, sub.Email, p.Subject, p.Body); err != nil {
			w.record("newsletter", err)
			w.Log.Warn().Err(err).Str("email", sub.Email).Msg("newsletter delivery failed")
			continue
		}
		w.record("newsletter", nil)
	}
	return nil
}

func (w *Worker) record(kind string, err error) {
	if obs.EmailDeliveriesTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.EmailDeliveriesTotal.WithLabelValues(kind, result).Inc()
}

func receiptHTML(p ReceiptPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>Thanks for your order</h1><p>Order %s</p><ul>", html.EscapeString(p.OrderID))
	for _, it := range p.Items {
		fmt.Fprintf(&b, "<li>%s x%d (%s) %s</li>",
			html.EscapeString(it.Title), it.Qty, html.EscapeString(it.Kind), formatCents(it.LineTotal, p.Currency))
	}
	b.WriteString("</ul><table>")
	fmt.Fprintf(&b, "<tr><td>Subtotal</td><td>%s</td></tr>", formatCents(p.Subtotal, p.Currency))
	if p.BulkDiscount > 0 {
		fmt.Fprintf(&b, "<tr><td>Bulk discount</td><td>-%s</td></tr>", formatCents(p.BulkDiscount, p.Currency))
	}
	if p.MembershipDiscount > 0 {
		fmt.Fprintf(&b, "<tr><td>Membership discount</td><td>-%s</td></tr>", formatCents(p.MembershipDiscount, p.Currency))
	}
	if p.CouponDiscount > 0 {
		fmt.Fprintf(&b, "<tr><td>Coupon discount</td><td>-%s</td></tr>", formatCents(p.CouponDiscount, p.Currency))
	}
	fmt.Fprintf(&b, "<tr><td><strong>Total</strong></td><td><strong>%s</strong></td></tr>", formatCents(p.Total, p.Currency))
	b.WriteString("</table>")
	return b.String()
}

func welcomeHTML(tier membership.Tier) string {
	benefits := membership.ForTier(tier)
	if benefits.DiscountPercent == 0 {
		return "<h1>Welcome to BookHaven</h1><p>Happy reading!</p>"
	}
	return fmt.Sprintf(
		"<h1>Welcome to BookHaven</h1><p>Your %s membership gives you %d%% off purchases and %d free rentals a month.</p>",
		html.EscapeString(string(tier)), benefits.DiscountPercent, benefits.FreeRentalsPerMonth)
}

func formatCents(v int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, v/100, v%100)
}
