package service_test

import (
	"context"
	"sync"

	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/pipeline"
	"deskmind.app/support/internal/policy"
)

// mockQueryStore implements store.QueryStore with func fields so each
// test overrides only what it needs.
type mockQueryStore struct {
	createQueryFn    func(ctx context.Context, q *domain.Query) error
	getQueryFn       func(ctx context.Context, id string) (*domain.Query, error)
	saveOutcomeFn    func(ctx context.Context, o *domain.Outcome) error
	getOutcomeFn     func(ctx context.Context, queryID string) (*domain.Outcome, error)
	createFeedbackFn func(ctx context.Context, f *domain.Feedback) error
}

func (m *mockQueryStore) CreateQuery(ctx context.Context, q *domain.Query) error {
	if m.createQueryFn != nil {
		return m.createQueryFn(ctx, q)
	}
	return nil
}

func (m *mockQueryStore) GetQuery(ctx context.Context, id string) (*domain.Query, error) {
	return m.getQueryFn(ctx, id)
}

func (m *mockQueryStore) SaveOutcome(ctx context.Context, o *domain.Outcome) error {
	if m.saveOutcomeFn != nil {
		return m.saveOutcomeFn(ctx, o)
	}
	return nil
}

func (m *mockQueryStore) GetOutcome(ctx context.Context, queryID string) (*domain.Outcome, error) {
	return m.getOutcomeFn(ctx, queryID)
}

func (m *mockQueryStore) CreateFeedback(ctx context.Context, f *domain.Feedback) error {
	if m.createFeedbackFn != nil {
		return m.createFeedbackFn(ctx, f)
	}
	return nil
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, event domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return c.err
}

func (c *capturePublisher) Events() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Event(nil), c.events...)
}

func (c *capturePublisher) Types() []domain.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]domain.EventType, len(c.events))
	for i, e := range c.events {
		types[i] = e.Type
	}
	return types
}

// stubPipeline builds a real pipeline whose ports return fixed values.
func stubPipeline(category domain.Category, sentiment domain.Sentiment) *pipeline.Pipeline {
	classifier := &pipeline.MockClassifier{
		ClassifyFunc: func(_ context.Context, _ string) (domain.Classification, error) {
			return domain.Classification{Category: category, Confidence: 0.9}, nil
		},
	}
	analyzer := &pipeline.MockSentimentAnalyzer{
		AnalyzeFunc: func(_ context.Context, _ string) (domain.SentimentResult, error) {
			return domain.SentimentResult{Label: sentiment, Intensity: 0.5}, nil
		},
	}
	kb := &pipeline.MockKnowledgeBase{
		LookupFunc: func(_ context.Context, _ string, _ domain.Category) ([]domain.Snippet, error) {
			return nil, nil
		},
	}
	general := &pipeline.MockResponder{
		RespondFunc: func(_ context.Context, _ *domain.Query, _ domain.Category, _ []domain.Snippet) (string, error) {
			return "stub answer", nil
		},
	}
	return pipeline.New(classifier, analyzer, kb, pipeline.NewRouter(general),
		policy.NewScorer(policy.DefaultWeights()),
		policy.NewEscalationPolicy(policy.DefaultEscalationKeywords()))
}
