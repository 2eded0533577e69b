package domain

import "time"

// EventType identifies a subscriber-visible state change.
type EventType string

const (
	EventQueryCreated     EventType = "query.created"
	EventQueryResolved    EventType = "query.resolved"
	EventQueryEscalated   EventType = "query.escalated"
	EventFeedbackReceived EventType = "feedback.received"

	// EventWebhookTest is synthesized by the subscription test endpoint.
	// Not subscribable.
	EventWebhookTest EventType = "webhook.test"
)

// EventTypes lists every subscribable event type.
func EventTypes() []EventType {
	return []EventType{
		EventQueryCreated,
		EventQueryResolved,
		EventQueryEscalated,
		EventFeedbackReceived,
	}
}

// ValidEventType reports whether t is a subscribable event type.
func ValidEventType(t EventType) bool {
	for _, known := range EventTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Event is an immutable notification produced by the pipeline or the
// feedback path. Data holds the event-specific fields; the wire body
// and its signature are derived from a single canonical serialization
// captured at delivery scheduling time, so every retry resends the
// identical bytes.
type Event struct {
	ID        int64
	Type      EventType
	Data      map[string]any
	CreatedAt time.Time
}
