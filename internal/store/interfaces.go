package store

import (
	"context"
	"errors"
	"time"

	"deskmind.app/support/internal/domain"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Page bounds list results. Zero Limit means the store default.
type Page struct {
	Offset int
	Limit  int
}

// QueryStore persists queries, their outcomes and feedback.
type QueryStore interface {
	CreateQuery(ctx context.Context, q *domain.Query) error
	GetQuery(ctx context.Context, id string) (*domain.Query, error)
	// SaveOutcome records the terminal state of a query. A query has at
	// most one outcome; saving a second one is an error.
	SaveOutcome(ctx context.Context, o *domain.Outcome) error
	GetOutcome(ctx context.Context, queryID string) (*domain.Outcome, error)
	CreateFeedback(ctx context.Context, f *domain.Feedback) error
}

// SubscriptionFilter narrows List results.
type SubscriptionFilter struct {
	IsActive *bool
}

// SubscriptionStore persists webhook endpoint registrations.
// RecordDelivery and RecordFailure must be atomic increments: two
// concurrent deliveries to the same endpoint may finish at once.
type SubscriptionStore interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	GetByID(ctx context.Context, id int64) (*domain.Subscription, error)
	Update(ctx context.Context, sub *domain.Subscription) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter SubscriptionFilter, page Page) ([]domain.Subscription, error)
	ListActiveForEvent(ctx context.Context, t domain.EventType) ([]domain.Subscription, error)
	RecordDelivery(ctx context.Context, id int64, at time.Time) error
	RecordFailure(ctx context.Context, id int64, at time.Time) error
}

// DeliveryStore is the append-only attempt log. Attempts are created
// pending, updated in place while live, and frozen once terminal.
type DeliveryStore interface {
	CreateAttempt(ctx context.Context, a *domain.DeliveryAttempt) error
	UpdateAttempt(ctx context.Context, a *domain.DeliveryAttempt) error
	// ListBySubscription returns attempts newest-first.
	ListBySubscription(ctx context.Context, subscriptionID int64, page Page) ([]domain.DeliveryAttempt, error)
}
