package dto

import (
	"time"

	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/service"
)

type QueryContextRequest struct {
	IsRepeat     bool `json:"is_repeat"`
	IsVIP        bool `json:"is_vip"`
	AttemptCount int  `json:"attempt_count" binding:"omitempty,min=0"`
}

type SubmitQueryRequest struct {
	Text    string               `json:"text" binding:"required,min=1,max=10000"`
	UserID  string               `json:"user_id" binding:"required,min=1,max=255"`
	Context *QueryContextRequest `json:"context,omitempty"`
}

type SnippetResponse struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type QueryResponse struct {
	QueryID          string            `json:"query_id"`
	Category         string            `json:"category"`
	Confidence       float64           `json:"confidence"`
	Sentiment        string            `json:"sentiment"`
	Priority         int               `json:"priority"`
	Response         string            `json:"response"`
	Escalated        bool              `json:"escalated"`
	EscalationReason string            `json:"escalation_reason,omitempty"`
	Snippets         []SnippetResponse `json:"kb_snippets,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

func ToQueryResponse(r *service.QueryResult) *QueryResponse {
	resp := &QueryResponse{
		QueryID:   r.Query.ID,
		CreatedAt: r.Query.CreatedAt,
	}
	if r.Outcome != nil {
		resp.Category = string(r.Outcome.Category)
		resp.Confidence = r.Outcome.Confidence
		resp.Sentiment = string(r.Outcome.Sentiment)
		resp.Priority = r.Outcome.Priority
		resp.Response = r.Outcome.ResponseText
		resp.Escalated = r.Outcome.Escalated
		resp.EscalationReason = r.Outcome.EscalationReason
		resp.Snippets = toSnippetResponses(r.Outcome.Snippets)
	}
	return resp
}

func toSnippetResponses(snippets []domain.Snippet) []SnippetResponse {
	if len(snippets) == 0 {
		return nil
	}
	out := make([]SnippetResponse, len(snippets))
	for i, s := range snippets {
		out[i] = SnippetResponse{Title: s.Title, Content: s.Content, Score: s.Score}
	}
	return out
}
