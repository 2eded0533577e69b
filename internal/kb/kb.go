// Package kb looks up knowledge-base snippets for a query so responders
// can ground their answers in documented fixes.
package kb

import (
	"context"

	"deskmind.app/support/internal/domain"
)

const (
	// MaxSnippets bounds how many articles get injected into a response
	// prompt.
	MaxSnippets = 3

	// ScoreThreshold drops weak matches rather than padding the prompt
	// with noise.
	ScoreThreshold = 0.3
)

// Lookup finds relevant articles for a query, best match first.
type Lookup interface {
	Lookup(ctx context.Context, text string, category domain.Category) ([]domain.Snippet, error)
}
