package repository

import (
	"context"
	"time"

	"github.com/streamhub/notifier/internal/domain"
)

// SubscriptionRepository reads sold screens and full accounts. It never
// writes: the admin application owns the data.
// The pgx implementation is in pg_subscription_repo.go.
// Tests use a hand-written in-memory version (mock_subscription_repo.go).
type SubscriptionRepository interface {
	// FindActiveByEmails returns screen and full-account subscriptions whose
	// normalized email is in emails, that are not cancelled and expire
	// strictly after today.
	FindActiveByEmails(ctx context.Context, emails []string, today time.Time) ([]domain.SubscriptionItem, error)

	// FindExpiring returns non-cancelled subscriptions expiring after today
	// and on or before until.
	FindExpiring(ctx context.Context, today, until time.Time) ([]domain.SubscriptionItem, error)
}

// DateOnly formats t as the calendar day in its own location.
func DateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}
