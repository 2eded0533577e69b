package classify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"deskmind.app/support/common/llm"
	"deskmind.app/support/internal/domain"
)

type categoryResponse struct {
	Category   string  `json:"category" jsonschema:"enum=technical,enum=billing,enum=account,enum=general" jsonschema_description:"Best matching support category"`
	Confidence float64 `json:"confidence" jsonschema_description:"Classifier confidence 0.0-1.0"`
}

var categorySchema = llm.GenerateSchema[categoryResponse]()

const classifierSystemPrompt = `You are a support-ticket classifier. Assign the customer query to exactly one category:

- technical: product errors, crashes, integrations, API usage, performance
- billing: invoices, charges, refunds, subscription changes, payment methods
- account: login, password, profile, permissions, data export or deletion
- general: anything that does not clearly fit the above

Respond with the category and your confidence. Use confidence below 0.5 only when the query is genuinely ambiguous.`

// Classifier assigns a support category to a query using an LLM with
// structured output. Errors are returned to the caller; the pipeline
// decides how to degrade.
type Classifier struct {
	llm       llm.Client
	maxTokens int
}

func NewClassifier(client llm.Client, maxTokens int) *Classifier {
	return &Classifier{llm: client, maxTokens: maxTokens}
}

func (c *Classifier) Classify(ctx context.Context, text string) (domain.Classification, error) {
	var response categoryResponse
	var err error

	// One quick retry on transient errors. Classification sits on the
	// request path, so we do not wait out long rate-limit windows here.
	for attempt := 0; attempt < 2; attempt++ {
		_, err = c.llm.Chat(ctx, llm.Request{
			SystemPrompt: classifierSystemPrompt,
			UserPrompt:   text,
			SchemaName:   "category_response",
			Schema:       categorySchema,
			MaxTokens:    c.maxTokens,
			Temperature:  llm.Temp(0.0),
		}, &response)

		if err == nil {
			break
		}
		if !llm.IsRetryable(ctx, err) {
			return domain.Classification{}, fmt.Errorf("classify query: %w", err)
		}
		time.Sleep(time.Duration(1<<attempt) * 500 * time.Millisecond)
	}
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify query after retries: %w", err)
	}

	result := domain.Classification{
		Category:   domain.ParseCategory(response.Category),
		Confidence: clamp01(response.Confidence),
	}

	slog.DebugContext(ctx, "query classified",
		"category", result.Category,
		"confidence", result.Confidence)

	return result, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
