package dto

import (
	"time"

	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/webhook"
)

type RegisterWebhookRequest struct {
	URL    string   `json:"url" binding:"required,url,max=2048"`
	Events []string `json:"events" binding:"required,min=1"`
}

type UpdateWebhookRequest struct {
	URL      *string  `json:"url,omitempty" binding:"omitempty,url,max=2048"`
	Events   []string `json:"events,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
}

type WebhookResponse struct {
	ID             int64      `json:"id,string"`
	URL            string     `json:"url"`
	Events         []string   `json:"events"`
	Secret         string     `json:"secret,omitempty"`
	IsActive       bool       `json:"is_active"`
	DeliveryCount  int64      `json:"delivery_count"`
	FailureCount   int64      `json:"failure_count"`
	LastDeliveryAt *time.Time `json:"last_delivery_at,omitempty"`
	LastFailureAt  *time.Time `json:"last_failure_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToWebhookResponse maps a subscription for API output. The secret is
// only revealed at registration time; every other surface omits it.
func ToWebhookResponse(sub *domain.Subscription, includeSecret bool) *WebhookResponse {
	resp := &WebhookResponse{
		ID:             sub.ID,
		URL:            sub.URL,
		Events:         eventStrings(sub.Events),
		IsActive:       sub.IsActive,
		DeliveryCount:  sub.DeliveryCount,
		FailureCount:   sub.FailureCount,
		LastDeliveryAt: sub.LastDeliveryAt,
		LastFailureAt:  sub.LastFailureAt,
		CreatedAt:      sub.CreatedAt,
		UpdatedAt:      sub.UpdatedAt,
	}
	if includeSecret {
		resp.Secret = sub.Secret
	}
	return resp
}

type DeliveryResponse struct {
	ID            int64      `json:"id,string"`
	EventID       int64      `json:"event_id,string"`
	EventType     string     `json:"event_type"`
	Status        string     `json:"status"`
	HTTPStatus    *int       `json:"http_status,omitempty"`
	AttemptNumber int        `json:"attempt_number"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func ToDeliveryResponse(a domain.DeliveryAttempt) DeliveryResponse {
	return DeliveryResponse{
		ID:            a.ID,
		EventID:       a.EventID,
		EventType:     string(a.EventType),
		Status:        string(a.Status),
		HTTPStatus:    a.HTTPStatus,
		AttemptNumber: a.AttemptNumber,
		Error:         a.Error,
		CreatedAt:     a.CreatedAt,
		CompletedAt:   a.CompletedAt,
	}
}

type TestWebhookResponse struct {
	Success    bool   `json:"success"`
	HTTPStatus *int   `json:"http_status,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
}

func ToTestWebhookResponse(r *webhook.TestResult) *TestWebhookResponse {
	return &TestWebhookResponse{
		Success:    r.Success,
		HTTPStatus: r.HTTPStatus,
		LatencyMS:  r.Latency.Milliseconds(),
		Error:      r.Error,
	}
}

func ToEventTypes(events []string) []domain.EventType {
	out := make([]domain.EventType, len(events))
	for i, e := range events {
		out[i] = domain.EventType(e)
	}
	return out
}

func eventStrings(events []domain.EventType) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e)
	}
	return out
}
