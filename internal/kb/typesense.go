package kb

import (
	"context"
	"fmt"
	"log/slog"

	"deskmind.app/support/common/typesense"
	"deskmind.app/support/internal/domain"
)

// TypesenseLookup searches the articles collection with full-text
// matching, filtered to the query's category.
type TypesenseLookup struct {
	ts typesense.Client
}

func NewTypesenseLookup(ts typesense.Client) *TypesenseLookup {
	return &TypesenseLookup{ts: ts}
}

func (l *TypesenseLookup) Lookup(ctx context.Context, text string, category domain.Category) ([]domain.Snippet, error) {
	hits, err := l.ts.Search(ctx, typesense.SearchQuery{
		Text:     text,
		Category: string(category),
		Limit:    MaxSnippets,
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge base search: %w", err)
	}

	snippets := make([]domain.Snippet, 0, len(hits))
	for _, h := range hits {
		score := rankScore(h.Rank)
		if score < ScoreThreshold {
			continue
		}
		snippets = append(snippets, domain.Snippet{
			Title:    h.Document.Title,
			Content:  h.Document.Content,
			Category: h.Document.Category,
			Score:    score,
		})
	}

	slog.DebugContext(ctx, "knowledge base lookup",
		"category", category,
		"hits", len(hits),
		"kept", len(snippets))

	return snippets, nil
}

// rankScore maps result position to a relevance score. Typesense orders
// hits by text match already; position is the stable signal we keep.
func rankScore(rank int) float64 {
	score := 1.0 - 0.2*float64(rank)
	if score < 0 {
		return 0
	}
	return score
}

// Seed upserts the built-in articles so a fresh Typesense node serves
// useful results immediately.
func Seed(ctx context.Context, ts typesense.Client) error {
	if err := ts.EnsureCollection(ctx); err != nil {
		return err
	}
	for i, a := range builtinArticles {
		doc := typesense.Document{
			ID:       fmt.Sprintf("builtin-%d", i+1),
			Title:    a.Title,
			Content:  a.Content,
			Category: string(a.Category),
		}
		if err := ts.Upsert(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
