package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"deskmind.app/support/common/id"
	"deskmind.app/support/common/logger"
	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/pipeline"
	"deskmind.app/support/internal/store"
	"deskmind.app/support/internal/webhook"
)

var (
	ErrEmptyQuery    = errors.New("query text is empty")
	ErrQueryNotFound = errors.New("query not found")
)

// EventPublisher decouples the services from the webhook subsystem.
// The in-process EventBus and the queue producer both satisfy it.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

type SubmitQueryRequest struct {
	Text         string
	UserID       string
	IsRepeat     bool
	IsVIP        bool
	AttemptCount int
}

// QueryResult pairs the stored query with its processing outcome.
type QueryResult struct {
	Query   *domain.Query
	Outcome *domain.Outcome
}

type QueryService interface {
	Submit(ctx context.Context, req SubmitQueryRequest) (*QueryResult, error)
	Get(ctx context.Context, queryID string) (*QueryResult, error)
}

type queryService struct {
	queries  store.QueryStore
	pipeline *pipeline.Pipeline
	events   EventPublisher
}

func NewQueryService(queries store.QueryStore, p *pipeline.Pipeline, events EventPublisher) QueryService {
	return &queryService{queries: queries, pipeline: p, events: events}
}

// Submit records the query, runs it through the pipeline, persists the
// outcome and emits events. Pipeline stage failures degrade inside the
// pipeline; only persistence failures surface here, because a response
// the caller cannot trust as recorded is worse than no response.
func (s *queryService) Submit(ctx context.Context, req SubmitQueryRequest) (*QueryResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}

	q := &domain.Query{
		ID:          id.NewString(),
		Text:        text,
		SubmitterID: req.UserID,
		Context: domain.QueryContext{
			IsRepeat:     req.IsRepeat,
			IsVIP:        req.IsVIP,
			AttemptCount: req.AttemptCount,
		},
		CreatedAt: time.Now().UTC(),
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{QueryID: &q.ID, Component: "query"})

	if err := s.queries.CreateQuery(ctx, q); err != nil {
		return nil, fmt.Errorf("persist query: %w", err)
	}

	outcome, err := s.pipeline.Process(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("process query: %w", err)
	}

	if err := s.queries.SaveOutcome(ctx, outcome); err != nil {
		return nil, fmt.Errorf("persist outcome: %w", err)
	}

	s.publish(ctx, domain.EventQueryCreated, webhook.QueryCreatedData(q, outcome))
	if outcome.Escalated {
		s.publish(ctx, domain.EventQueryEscalated, webhook.QueryEscalatedData(q, outcome))
	} else {
		s.publish(ctx, domain.EventQueryResolved, webhook.QueryResolvedData(q, outcome))
	}

	return &QueryResult{Query: q, Outcome: outcome}, nil
}

func (s *queryService) Get(ctx context.Context, queryID string) (*QueryResult, error) {
	q, err := s.queries.GetQuery(ctx, queryID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrQueryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch query %s: %w", queryID, err)
	}
	outcome, err := s.queries.GetOutcome(ctx, queryID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("fetch outcome %s: %w", queryID, err)
	}
	return &QueryResult{Query: q, Outcome: outcome}, nil
}

// publish is fire-and-forget relative to the request: delivery problems
// show up in the delivery log, never in the response path.
func (s *queryService) publish(ctx context.Context, t domain.EventType, data map[string]any) {
	if err := s.events.Publish(ctx, domain.Event{Type: t, Data: data}); err != nil {
		slog.ErrorContext(ctx, "failed to publish event", "event_type", t, "error", err)
	}
}
