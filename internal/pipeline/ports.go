package pipeline

import (
	"context"

	"deskmind.app/support/internal/domain"
)

// Ports the pipeline depends on. Implementations live in classify, kb
// and this package's responders; tests swap in func-field mocks.

type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (domain.SentimentResult, error)
}

type KnowledgeBase interface {
	Lookup(ctx context.Context, text string, category domain.Category) ([]domain.Snippet, error)
}

type Responder interface {
	Respond(ctx context.Context, q *domain.Query, category domain.Category, snippets []domain.Snippet) (string, error)
}

// MockClassifier implements Classifier with func fields for tests.
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, text string) (domain.Classification, error)
}

func (m *MockClassifier) Classify(ctx context.Context, text string) (domain.Classification, error) {
	return m.ClassifyFunc(ctx, text)
}

type MockSentimentAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, text string) (domain.SentimentResult, error)
}

func (m *MockSentimentAnalyzer) Analyze(ctx context.Context, text string) (domain.SentimentResult, error) {
	return m.AnalyzeFunc(ctx, text)
}

type MockKnowledgeBase struct {
	LookupFunc func(ctx context.Context, text string, category domain.Category) ([]domain.Snippet, error)
}

func (m *MockKnowledgeBase) Lookup(ctx context.Context, text string, category domain.Category) ([]domain.Snippet, error) {
	return m.LookupFunc(ctx, text, category)
}

type MockResponder struct {
	RespondFunc func(ctx context.Context, q *domain.Query, category domain.Category, snippets []domain.Snippet) (string, error)
}

func (m *MockResponder) Respond(ctx context.Context, q *domain.Query, category domain.Category, snippets []domain.Snippet) (string, error) {
	return m.RespondFunc(ctx, q, category, snippets)
}
