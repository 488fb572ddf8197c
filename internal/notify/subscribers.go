package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookhaven/backend-store/internal/membership"
)

// ErrSubscriberNotFound indicates the email has no subscriber record.
var ErrSubscriberNotFound = errors.New("subscriber not found")

// Subscriber is a stored mailing list entry.
type Subscriber struct {
	Email      string          `json:"email"`
	Tier       membership.Tier `json:"tier"`
	Newsletter bool            `json:"newsletter"`
}

// SubscriberStore persists mailing list membership.
type SubscriberStore interface {
	Upsert(ctx context.Context, sub Subscriber) error
	SetNewsletter(ctx context.Context, email string, enabled bool) error
	ListNewsletter(ctx context.Context) ([]Subscriber, error)
}

// PGSubscriberStore implements SubscriberStore on Postgres.
type PGSubscriberStore struct {
	Pool *pgxpool.Pool
}

// Upsert inserts or refreshes a subscriber keyed by lowercased email.
func (s *PGSubscriberStore) Upsert(ctx context.Context, sub Subscriber) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO subscribers (email, tier, newsletter)
		VALUES (lower($1), $2, $3)
		ON CONFLICT (lower(email))
		DO UPDATE SET tier = EXCLUDED.tier, newsletter = EXCLUDED.newsletter, updated_at = now()`,
		sub.Email, string(sub.Tier), sub.Newsletter)
	if err != nil {
		return fmt.Errorf("upsert subscriber: %w", err)
	}
	return nil
}

// SetNewsletter flips the newsletter opt-in flag for an existing subscriber.
func (s *PGSubscriberStore) SetNewsletter(ctx context.Context, email string, enabled bool) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE subscribers SET newsletter = $2, updated_at = now()
		WHERE lower(email) = lower($1)`, email, enabled)
	if err != nil {
		return fmt.Errorf("set newsletter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriberNotFound
	}
	return nil
}

// ListNewsletter returns every subscriber who opted into the newsletter.
func (s *PGSubscriberStore) ListNewsletter(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT email, tier, newsletter FROM subscribers
		WHERE newsletter = TRUE
		ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()
	var subs []Subscriber
	for rows.Next() {
		var (
			sub  Subscriber
			tier string
		)
		if err := rows.Scan(&sub.Email, &tier, &sub.Newsletter); err != nil {
			return nil, err
		}
		sub.Tier = membership.Tier(tier)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
