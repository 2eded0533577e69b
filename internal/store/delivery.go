package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"deskmind.app/support/internal/domain"
)

type deliveryStore struct {
	pool *pgxpool.Pool
}

// NewDeliveryStore creates a Postgres-backed DeliveryStore.
func NewDeliveryStore(pool *pgxpool.Pool) DeliveryStore {
	return &deliveryStore{pool: pool}
}

func (s *deliveryStore) CreateAttempt(ctx context.Context, a *domain.DeliveryAttempt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO delivery_attempts (id, subscription_id, event_id, event_type, payload,
			status, http_status, attempt_number, error, next_attempt_at, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.SubscriptionID, a.EventID, string(a.EventType), a.Payload,
		string(a.Status), a.HTTPStatus, a.AttemptNumber, a.Error, a.NextAttemptAt, a.CreatedAt, a.CompletedAt)
	if err != nil {
		return fmt.Errorf("inserting delivery attempt: %w", err)
	}
	return nil
}

// UpdateAttempt refuses to touch rows that already reached a terminal
// status; the attempt log is append-only once settled.
func (s *deliveryStore) UpdateAttempt(ctx context.Context, a *domain.DeliveryAttempt) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE delivery_attempts
		SET status = $2, http_status = $3, error = $4, next_attempt_at = $5, completed_at = $6
		WHERE id = $1 AND status = 'pending'`,
		a.ID, string(a.Status), a.HTTPStatus, a.Error, a.NextAttemptAt, a.CompletedAt)
	if err != nil {
		return fmt.Errorf("updating delivery attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *deliveryStore) ListBySubscription(ctx context.Context, subscriptionID int64, page Page) ([]domain.DeliveryAttempt, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, subscription_id, event_id, event_type, payload, status, http_status,
			attempt_number, error, next_attempt_at, created_at, completed_at
		FROM delivery_attempts
		WHERE subscription_id = $1
		ORDER BY created_at DESC, attempt_number DESC
		LIMIT $2 OFFSET $3`, subscriptionID, limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DeliveryAttempt
	for rows.Next() {
		var (
			a         domain.DeliveryAttempt
			eventType string
			status    string
		)
		if err := rows.Scan(&a.ID, &a.SubscriptionID, &a.EventID, &eventType, &a.Payload,
			&status, &a.HTTPStatus, &a.AttemptNumber, &a.Error, &a.NextAttemptAt,
			&a.CreatedAt, &a.CompletedAt); err != nil {
			return nil, err
		}
		a.EventType = domain.EventType(eventType)
		a.Status = domain.DeliveryStatus(status)
		result = append(result, a)
	}
	return result, rows.Err()
}
