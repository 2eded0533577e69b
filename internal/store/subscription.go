package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"deskmind.app/support/internal/domain"
)

const defaultListLimit = 100

type subscriptionStore struct {
	pool *pgxpool.Pool
}

// NewSubscriptionStore creates a Postgres-backed SubscriptionStore.
func NewSubscriptionStore(pool *pgxpool.Pool) SubscriptionStore {
	return &subscriptionStore{pool: pool}
}

func (s *subscriptionStore) Create(ctx context.Context, sub *domain.Subscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (id, url, events, secret, is_active, delivery_count, failure_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $6)`,
		sub.ID, sub.URL, eventStrings(sub.Events), sub.Secret, sub.IsActive, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting subscription: %w", err)
	}
	return nil
}

func (s *subscriptionStore) GetByID(ctx context.Context, id int64) (*domain.Subscription, error) {
	row := s.pool.QueryRow(ctx, selectSubscription+` WHERE id = $1`, id)
	return scanSubscription(row)
}

func (s *subscriptionStore) Update(ctx context.Context, sub *domain.Subscription) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscriptions
		SET url = $2, events = $3, is_active = $4, updated_at = $5
		WHERE id = $1`,
		sub.ID, sub.URL, eventStrings(sub.Events), sub.IsActive, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("updating subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *subscriptionStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *subscriptionStore) List(ctx context.Context, filter SubscriptionFilter, page Page) ([]domain.Subscription, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := selectSubscription
	args := []any{limit, page.Offset}
	if filter.IsActive != nil {
		query += ` WHERE is_active = $3`
		args = append(args, *filter.IsActive)
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

func (s *subscriptionStore) ListActiveForEvent(ctx context.Context, t domain.EventType) ([]domain.Subscription, error) {
	rows, err := s.pool.Query(ctx, selectSubscription+`
		WHERE is_active AND $1 = ANY(events)`, string(t))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// RecordDelivery bumps the success counter atomically in SQL so that
// concurrent deliveries never lose updates.
func (s *subscriptionStore) RecordDelivery(ctx context.Context, id int64, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE subscriptions
		SET delivery_count = delivery_count + 1, last_delivery_at = $2, updated_at = $2
		WHERE id = $1`, id, at)
	return err
}

func (s *subscriptionStore) RecordFailure(ctx context.Context, id int64, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE subscriptions
		SET failure_count = failure_count + 1, last_failure_at = $2, updated_at = $2
		WHERE id = $1`, id, at)
	return err
}

const selectSubscription = `
	SELECT id, url, events, secret, is_active, delivery_count, failure_count,
		last_delivery_at, last_failure_at, created_at, updated_at
	FROM subscriptions`

type subscriptionRow interface {
	Scan(dest ...any) error
}

func scanSubscription(row subscriptionRow) (*domain.Subscription, error) {
	var (
		sub    domain.Subscription
		events []string
	)
	err := row.Scan(&sub.ID, &sub.URL, &events, &sub.Secret, &sub.IsActive,
		&sub.DeliveryCount, &sub.FailureCount, &sub.LastDeliveryAt, &sub.LastFailureAt,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sub.Events = make([]domain.EventType, len(events))
	for i, e := range events {
		sub.Events[i] = domain.EventType(e)
	}
	return &sub, nil
}

func collectSubscriptions(rows pgx.Rows) ([]domain.Subscription, error) {
	var result []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sub)
	}
	return result, rows.Err()
}

func eventStrings(events []domain.EventType) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e)
	}
	return out
}
