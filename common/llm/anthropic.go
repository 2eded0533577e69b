package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicClient struct {
	client anthropic.Client
	model  string
}

func newAnthropicClient(cfg Config) (Client, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5-20250514"
	}

	return &anthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Chat emulates structured output by appending the schema to the system
// prompt. Anthropic has no native JSON-schema response format, so the
// answer is parsed from the first JSON object in the reply.
func (c *anthropicClient) Chat(ctx context.Context, req Request, result any) (*Response, error) {
	schemaBytes, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	system := req.SystemPrompt +
		"\n\nRespond with a single JSON object matching this schema, and nothing else:\n" +
		string(schemaBytes)

	text, usage, err := c.message(ctx, system, req.UserPrompt, req.MaxTokens, req.Temperature)
	if err != nil {
		return nil, err
	}

	text = extractJSON(text)
	if err := json.Unmarshal([]byte(text), result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return usage, nil
}

func (c *anthropicClient) Complete(ctx context.Context, req CompleteRequest) (string, error) {
	text, _, err := c.message(ctx, req.SystemPrompt, req.UserPrompt, req.MaxTokens, req.Temperature)
	return text, err
}

func (c *anthropicClient) message(ctx context.Context, system, user string, maxTokens int, temperature *float64) (string, *Response, error) {
	if maxTokens == 0 {
		maxTokens = 1000
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(user),
				},
			},
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: system}}
	}
	if temperature != nil {
		params.Temperature = anthropic.Float(*temperature)
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", nil, fmt.Errorf("anthropic message: %w", err)
	}

	slog.DebugContext(ctx, "llm chat completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return text, &Response{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

func (c *anthropicClient) Model() string {
	return c.model
}

// extractJSON trims any prose surrounding the first top-level JSON object.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
