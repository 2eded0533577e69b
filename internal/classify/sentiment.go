package classify

import (
	"context"
	"fmt"
	"time"

	"deskmind.app/support/common/llm"
	"deskmind.app/support/internal/domain"
)

type sentimentResponse struct {
	Sentiment string  `json:"sentiment" jsonschema:"enum=positive,enum=neutral,enum=negative,enum=angry" jsonschema_description:"Emotional tone of the customer message"`
	Intensity float64 `json:"intensity" jsonschema_description:"Strength of the sentiment 0.0-1.0"`
}

var sentimentSchema = llm.GenerateSchema[sentimentResponse]()

const sentimentSystemPrompt = `You analyze the emotional tone of customer support messages. Classify the sentiment:

- positive: satisfied, grateful, complimentary
- neutral: factual, no strong emotion either way
- negative: frustrated, disappointed, unhappy
- angry: hostile, threatening, demanding, shouting (all caps, profanity)

"angry" is reserved for clear hostility; mere frustration is "negative". Report intensity as how strongly the tone comes through.`

// SentimentAnalyzer scores the emotional tone of a query.
type SentimentAnalyzer struct {
	llm       llm.Client
	maxTokens int
}

func NewSentimentAnalyzer(client llm.Client, maxTokens int) *SentimentAnalyzer {
	return &SentimentAnalyzer{llm: client, maxTokens: maxTokens}
}

func (s *SentimentAnalyzer) Analyze(ctx context.Context, text string) (domain.SentimentResult, error) {
	var response sentimentResponse
	var err error

	for attempt := 0; attempt < 2; attempt++ {
		_, err = s.llm.Chat(ctx, llm.Request{
			SystemPrompt: sentimentSystemPrompt,
			UserPrompt:   text,
			SchemaName:   "sentiment_response",
			Schema:       sentimentSchema,
			MaxTokens:    s.maxTokens,
			Temperature:  llm.Temp(0.0),
		}, &response)

		if err == nil {
			break
		}
		if !llm.IsRetryable(ctx, err) {
			return domain.SentimentResult{}, fmt.Errorf("analyze sentiment: %w", err)
		}
		time.Sleep(time.Duration(1<<attempt) * 500 * time.Millisecond)
	}
	if err != nil {
		return domain.SentimentResult{}, fmt.Errorf("analyze sentiment after retries: %w", err)
	}

	return domain.SentimentResult{
		Label:     domain.ParseSentiment(response.Sentiment),
		Intensity: clamp01(response.Intensity),
	}, nil
}
