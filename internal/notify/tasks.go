package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/bookhaven/backend-store/internal/checkout"
	"github.com/bookhaven/backend-store/internal/membership"
)

// Task type names routed through the mail queue.
const (
	TaskOrderReceipt = "email:order_receipt"
	TaskContact      = "email:contact"
	TaskWelcome      = "email:welcome"
	TaskNewsletter   = "email:newsletter"

	// QueueMail is the asynq queue all email tasks land on.
	QueueMail = "mail"
)

// ReceiptItem is one order line echoed into the receipt email.
type ReceiptItem struct {
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Qty       int    `json:"qty"`
	LineTotal int64  `json:"lineTotalCents"`
}

// ReceiptPayload is the serialized order receipt task.
type ReceiptPayload struct {
	OrderID            string        `json:"orderId"`
	Email              string        `json:"email"`
	Currency           string        `json:"currency"`
	Subtotal           int64         `json:"subtotalCents"`
	BulkDiscount       int64         `json:"bulkDiscountCents"`
	MembershipDiscount int64         `json:"membershipDiscountCents"`
	CouponDiscount     int64         `json:"couponDiscountCents"`
	Total              int64         `json:"totalCents"`
	Items              []ReceiptItem `json:"items"`
}

// ContactPayload is the serialized contact form task.
type ContactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// WelcomePayload is the serialized welcome email task.
type WelcomePayload struct {
	Email string          `json:"email"`
	Tier  membership.Tier `json:"tier"`
}

// NewsletterPayload is the serialized newsletter blast task. Recipients are
// resolved at delivery time so late subscribers still receive the issue.
type NewsletterPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Enqueuer pushes email tasks onto the asynq mail queue.
type Enqueuer struct {
	Client *asynq.Client
}

// EnqueueOrderReceipt implements checkout.ReceiptEnqueuer.
func (e *Enqueuer) EnqueueOrderReceipt(ctx context.Context, order checkout.Order) error {
	items := make([]ReceiptItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, ReceiptItem{
			Title:     it.Title,
			Kind:      string(it.Kind),
			Qty:       it.Qty,
			LineTotal: it.LineTotal,
		})
	}
	return e.enqueue(ctx, TaskOrderReceipt, ReceiptPayload{
		OrderID:            order.ID,
		Email:              order.Email,
		Currency:           order.Currency,
		Subtotal:           order.Pricing.Subtotal,
		BulkDiscount:       order.Pricing.BulkDiscount,
		MembershipDiscount: order.Pricing.MembershipDiscount,
		CouponDiscount:     order.Pricing.CouponDiscount,
		Total:              order.Pricing.Total,
		Items:              items,
	})
}

// EnqueueContact queues a contact form message for the support inbox.
func (e *Enqueuer) EnqueueContact(ctx context.Context, msg ContactPayload) error {
	return e.enqueue(ctx, TaskContact, msg)
}

// EnqueueWelcome queues the welcome email for a new subscriber.
func (e *Enqueuer) EnqueueWelcome(ctx context.Context, email string, tier membership.Tier) error {
	return e.enqueue(ctx, TaskWelcome, WelcomePayload{Email: email, Tier: tier})
}

// EnqueueNewsletter queues a newsletter issue for fan-out delivery.
func (e *Enqueuer) EnqueueNewsletter(ctx context.Context, subject, body string) error {
	return e.enqueue(ctx, TaskNewsletter, NewsletterPayload{Subject: subject, Body: body})
}

func (e *Enqueuer) enqueue(ctx context.Context, kind string, payload any) error {
	if e == nil || e.Client == nil {
		return errors.New("notify: enqueuer not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	_, err = e.Client.EnqueueContext(ctx, asynq.NewTask(kind, data),
		asynq.Queue(QueueMail), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", kind, err)
	}
	return nil
}
