package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"deskmind.app/support/internal/domain"
)

// deliveryPayload is the wire body POSTed to subscribers. Field order
// is fixed by the struct, map keys are sorted by encoding/json, so one
// Marshal call yields canonical bytes.
type deliveryPayload struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	WebhookID string         `json:"webhook_id"`
	Data      map[string]any `json:"data"`
}

// BuildPayload serializes the body for one (event, subscription) pair.
// Called once when the delivery is scheduled; retries resend the exact
// bytes so signatures stay verifiable per attempt. Returns the payload
// and the timestamp embedded in it, which travels in the
// X-Webhook-Timestamp header as well.
func BuildPayload(event domain.Event, subscriptionID int64, now time.Time) ([]byte, string, error) {
	ts := now.UTC().Format(time.RFC3339)
	body, err := json.Marshal(deliveryPayload{
		Event:     string(event.Type),
		Timestamp: ts,
		WebhookID: strconv.FormatInt(subscriptionID, 10),
		Data:      event.Data,
	})
	if err != nil {
		return nil, "", fmt.Errorf("marshal %s payload: %w", event.Type, err)
	}
	return body, ts, nil
}

// Event data constructors. These define the minimum fields receivers
// rely on per event type; adding fields is safe, removing is not.

func QueryCreatedData(q *domain.Query, o *domain.Outcome) map[string]any {
	return map[string]any{
		"query_id":   q.ID,
		"user_id":    q.SubmitterID,
		"category":   string(o.Category),
		"sentiment":  string(o.Sentiment),
		"priority":   o.Priority,
		"query_text": q.Text,
	}
}

func QueryResolvedData(q *domain.Query, o *domain.Outcome) map[string]any {
	return map[string]any{
		"query_id":                q.ID,
		"user_id":                 q.SubmitterID,
		"category":                string(o.Category),
		"resolution_time_seconds": o.ResolutionTime.Seconds(),
		"response_text":           o.ResponseText,
	}
}

func QueryEscalatedData(q *domain.Query, o *domain.Outcome) map[string]any {
	return map[string]any{
		"query_id":          q.ID,
		"user_id":           q.SubmitterID,
		"category":          string(o.Category),
		"sentiment":         string(o.Sentiment),
		"priority":          o.Priority,
		"escalation_reason": o.EscalationReason,
		"query_text":        q.Text,
	}
}

func FeedbackReceivedData(f *domain.Feedback) map[string]any {
	return map[string]any{
		"query_id":      f.QueryID,
		"user_id":       f.UserID,
		"rating":        f.Rating,
		"feedback_text": f.Text,
		"category":      string(f.Category),
	}
}

func TestEventData(subscriptionID int64, now time.Time) map[string]any {
	return map[string]any{
		"message":    "test delivery",
		"webhook_id": strconv.FormatInt(subscriptionID, 10),
		"sent_at":    now.UTC().Format(time.RFC3339),
	}
}
