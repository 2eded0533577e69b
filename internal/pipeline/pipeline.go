// Package pipeline runs a support query through classification,
// sentiment analysis, priority scoring, escalation checks and response
// generation, producing a single Outcome.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"deskmind.app/support/common/logger"
	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/policy"
)

type Pipeline struct {
	classifier Classifier
	sentiment  SentimentAnalyzer
	kb         KnowledgeBase
	router     *Router
	scorer     *policy.Scorer
	escalation *policy.EscalationPolicy
}

func New(classifier Classifier, sentiment SentimentAnalyzer, kb KnowledgeBase, router *Router, scorer *policy.Scorer, escalation *policy.EscalationPolicy) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		sentiment:  sentiment,
		kb:         kb,
		router:     router,
		scorer:     scorer,
		escalation: escalation,
	}
}

// Process runs every stage and always produces an Outcome. Stage
// failures degrade the result instead of aborting: a query that reached
// the pipeline gets an answer, even a generic one. Only context
// cancellation propagates as an error.
func (p *Pipeline) Process(ctx context.Context, q *domain.Query) (*domain.Outcome, error) {
	start := time.Now()
	ctx = logger.WithLogFields(ctx, logger.LogFields{QueryID: &q.ID, Component: "pipeline"})

	classification := p.classify(ctx, q)
	sentiment := p.analyzeSentiment(ctx, q)

	priority := p.scorer.Score(classification.Category, sentiment.Label, q.Context)

	escalated, reason := p.escalation.Evaluate(priority, sentiment.Label, q.Text, q.Context)

	var snippets []domain.Snippet
	var responseText string
	if escalated {
		responseText = escalationMessage(sentiment.Label)
		slog.InfoContext(ctx, "query escalated",
			"reason", reason,
			"priority", priority,
			"sentiment", sentiment.Label)
	} else {
		snippets = p.lookupSnippets(ctx, q, classification.Category)
		responseText = p.respond(ctx, q, classification.Category, snippets)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outcome := &domain.Outcome{
		QueryID:          q.ID,
		Category:         classification.Category,
		Confidence:       classification.Confidence,
		Sentiment:        sentiment.Label,
		Intensity:        sentiment.Intensity,
		Priority:         priority,
		ResponseText:     responseText,
		Escalated:        escalated,
		EscalationReason: reason,
		Snippets:         snippets,
		ResolutionTime:   time.Since(q.CreatedAt),
		CreatedAt:        time.Now().UTC(),
	}

	slog.InfoContext(ctx, "query processed",
		"category", outcome.Category,
		"sentiment", outcome.Sentiment,
		"priority", outcome.Priority,
		"escalated", outcome.Escalated,
		"duration_ms", time.Since(start).Milliseconds())

	return outcome, nil
}

func (p *Pipeline) classify(ctx context.Context, q *domain.Query) domain.Classification {
	classification, err := p.classifier.Classify(ctx, q.Text)
	if err != nil {
		slog.WarnContext(ctx, "classification failed, falling back to general", "error", err)
		return domain.Classification{Category: domain.CategoryGeneral, Confidence: 0}
	}
	return classification
}

func (p *Pipeline) analyzeSentiment(ctx context.Context, q *domain.Query) domain.SentimentResult {
	sentiment, err := p.sentiment.Analyze(ctx, q.Text)
	if err != nil {
		slog.WarnContext(ctx, "sentiment analysis failed, assuming neutral", "error", err)
		return domain.SentimentResult{Label: domain.SentimentNeutral, Intensity: 0}
	}
	return sentiment
}

func (p *Pipeline) lookupSnippets(ctx context.Context, q *domain.Query, category domain.Category) []domain.Snippet {
	if p.kb == nil {
		return nil
	}
	snippets, err := p.kb.Lookup(ctx, q.Text, category)
	if err != nil {
		// The responder can still answer without grounding material.
		slog.WarnContext(ctx, "knowledge base lookup failed", "error", err)
		return nil
	}
	return snippets
}

func (p *Pipeline) respond(ctx context.Context, q *domain.Query, category domain.Category, snippets []domain.Snippet) string {
	responder := p.router.Route(category)
	text, err := responder.Respond(ctx, q, category, snippets)
	if err != nil {
		slog.WarnContext(ctx, "response generation failed, using fallback", "category", category, "error", err)
		return fallbackResponse
	}
	return text
}
