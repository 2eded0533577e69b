package pipeline

import (
	"context"
	"fmt"
	"strings"

	"deskmind.app/support/common/llm"
	"deskmind.app/support/internal/domain"
)

const fallbackResponse = "We're sorry, we couldn't generate a detailed answer right now. " +
	"Your request has been recorded and a support agent will follow up shortly."

var responderPrompts = map[domain.Category]string{
	domain.CategoryTechnical: `You are a technical support specialist. Diagnose the customer's problem and give concrete steps to resolve it. Ask for logs or error messages only when you genuinely cannot proceed without them. Keep the answer under 150 words.`,
	domain.CategoryBilling: `You are a billing support specialist. Explain charges, refunds and subscription changes precisely. Never promise a refund outright; describe the process and the conditions. Keep the answer under 150 words.`,
	domain.CategoryAccount: `You are an account support specialist. Walk the customer through sign-in, password and profile issues step by step. Never ask for their password. Keep the answer under 150 words.`,
	domain.CategoryGeneral: `You are a friendly support agent. Answer the customer's question directly, or point them to the right place if it is outside what you can resolve. Keep the answer under 150 words.`,
}

// LLMResponder drafts a reply with the configured model, grounding it
// in knowledge-base snippets when any matched.
type LLMResponder struct {
	llm       llm.Client
	category  domain.Category
	maxTokens int
}

func NewLLMResponder(client llm.Client, category domain.Category, maxTokens int) *LLMResponder {
	return &LLMResponder{llm: client, category: category, maxTokens: maxTokens}
}

func (r *LLMResponder) Respond(ctx context.Context, q *domain.Query, category domain.Category, snippets []domain.Snippet) (string, error) {
	prompt, ok := responderPrompts[r.category]
	if !ok {
		prompt = responderPrompts[domain.CategoryGeneral]
	}

	text, err := r.llm.Complete(ctx, llm.CompleteRequest{
		SystemPrompt: prompt,
		UserPrompt:   buildResponderPrompt(q, snippets),
		MaxTokens:    r.maxTokens,
		Temperature:  llm.Temp(0.4),
	})
	if err != nil {
		return "", fmt.Errorf("generate %s response: %w", category, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("generate %s response: empty completion", category)
	}
	return text, nil
}

func buildResponderPrompt(q *domain.Query, snippets []domain.Snippet) string {
	var b strings.Builder
	b.WriteString("Customer query:\n")
	b.WriteString(q.Text)
	if len(snippets) > 0 {
		b.WriteString("\n\nRelevant knowledge base articles:\n")
		for _, s := range snippets {
			fmt.Fprintf(&b, "\n## %s\n%s\n", s.Title, s.Content)
		}
		b.WriteString("\nGround your answer in these articles where they apply.")
	}
	return b.String()
}

// StaticResponder produces template replies when no LLM is configured.
// The best-matching snippet is quoted so the reply is still useful.
type StaticResponder struct{}

func (StaticResponder) Respond(_ context.Context, _ *domain.Query, category domain.Category, snippets []domain.Snippet) (string, error) {
	intro := staticIntros[category]
	if intro == "" {
		intro = staticIntros[domain.CategoryGeneral]
	}
	if len(snippets) == 0 {
		return intro + " A support agent will review your request and get back to you.", nil
	}
	best := snippets[0]
	return fmt.Sprintf("%s This may help in the meantime:\n\n%s\n%s", intro, best.Title, best.Content), nil
}

var staticIntros = map[domain.Category]string{
	domain.CategoryTechnical: "Thanks for reporting this technical issue.",
	domain.CategoryBilling:   "Thanks for reaching out about billing.",
	domain.CategoryAccount:   "Thanks for contacting us about your account.",
	domain.CategoryGeneral:   "Thanks for getting in touch.",
}

// escalationMessage acknowledges the handoff in a register matched to
// how upset the customer already is.
func escalationMessage(sentiment domain.Sentiment) string {
	switch sentiment {
	case domain.SentimentAngry:
		return "We sincerely apologize for this experience. Your request has been escalated to a senior support agent who will contact you as a priority."
	case domain.SentimentNegative:
		return "We understand this has been frustrating. Your request has been escalated and a support agent will reach out to you shortly."
	default:
		return "Your request has been escalated to our support team. An agent will contact you shortly."
	}
}
