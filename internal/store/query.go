package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"deskmind.app/support/internal/domain"
)

type queryStore struct {
	pool *pgxpool.Pool
}

// NewQueryStore creates a Postgres-backed QueryStore.
func NewQueryStore(pool *pgxpool.Pool) QueryStore {
	return &queryStore{pool: pool}
}

func (s *queryStore) CreateQuery(ctx context.Context, q *domain.Query) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO queries (id, text, submitter_id, is_repeat, is_vip, attempt_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.ID, q.Text, q.SubmitterID, q.Context.IsRepeat, q.Context.IsVIP, q.Context.AttemptCount, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting query: %w", err)
	}
	return nil
}

func (s *queryStore) GetQuery(ctx context.Context, id string) (*domain.Query, error) {
	var q domain.Query
	err := s.pool.QueryRow(ctx, `
		SELECT id, text, submitter_id, is_repeat, is_vip, attempt_count, created_at
		FROM queries WHERE id = $1`, id).
		Scan(&q.ID, &q.Text, &q.SubmitterID, &q.Context.IsRepeat, &q.Context.IsVIP, &q.Context.AttemptCount, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (s *queryStore) SaveOutcome(ctx context.Context, o *domain.Outcome) error {
	snippets, err := json.Marshal(o.Snippets)
	if err != nil {
		return fmt.Errorf("marshal snippets: %w", err)
	}

	// query_id is the primary key: a query has at most one outcome.
	_, err = s.pool.Exec(ctx, `
		INSERT INTO outcomes (query_id, category, confidence, sentiment, intensity, priority,
			response_text, escalated, escalation_reason, snippets, resolution_time_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.QueryID, string(o.Category), o.Confidence, string(o.Sentiment), o.Intensity, o.Priority,
		o.ResponseText, o.Escalated, o.EscalationReason, snippets, o.ResolutionTime.Milliseconds(), o.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting outcome: %w", err)
	}
	return nil
}

func (s *queryStore) GetOutcome(ctx context.Context, queryID string) (*domain.Outcome, error) {
	var (
		o          domain.Outcome
		category   string
		sentiment  string
		snippets   []byte
		durationMS int64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT query_id, category, confidence, sentiment, intensity, priority,
			response_text, escalated, escalation_reason, snippets, resolution_time_ms, created_at
		FROM outcomes WHERE query_id = $1`, queryID).
		Scan(&o.QueryID, &category, &o.Confidence, &sentiment, &o.Intensity, &o.Priority,
			&o.ResponseText, &o.Escalated, &o.EscalationReason, &snippets, &durationMS, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	o.Category = domain.Category(category)
	o.Sentiment = domain.Sentiment(sentiment)
	o.ResolutionTime = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal(snippets, &o.Snippets); err != nil {
		return nil, fmt.Errorf("unmarshal snippets: %w", err)
	}
	return &o, nil
}

func (s *queryStore) CreateFeedback(ctx context.Context, f *domain.Feedback) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback (id, query_id, user_id, rating, text, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.QueryID, f.UserID, f.Rating, f.Text, string(f.Category), f.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting feedback: %w", err)
	}
	return nil
}
