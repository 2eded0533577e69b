package domain

import "time"

// Subscription is a registered webhook endpoint plus the event types it
// receives. URL, Events and IsActive are mutable through the management
// surface; the delivery statistics are owned by the delivery subsystem.
type Subscription struct {
	ID             int64
	URL            string
	Events         []EventType
	Secret         string
	IsActive       bool
	DeliveryCount  int64
	FailureCount   int64
	LastDeliveryAt *time.Time
	LastFailureAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Subscribed reports whether the subscription wants events of type t.
func (s *Subscription) Subscribed(t EventType) bool {
	for _, et := range s.Events {
		if et == t {
			return true
		}
	}
	return false
}
