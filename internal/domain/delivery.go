package domain

import "time"

// DeliveryStatus is the lifecycle state of one delivery attempt.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Terminal reports whether the status is final. A terminal attempt
// record is never updated again.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliverySuccess || s == DeliveryFailed
}

// DeliveryAttempt is one try at sending an event to one subscription.
// SubscriptionID is a weak reference: the subscription may be deleted
// while an attempt is in flight, and the record still stands.
type DeliveryAttempt struct {
	ID             int64
	SubscriptionID int64
	EventID        int64
	EventType      EventType
	Payload        []byte // canonical signed body, identical across retries
	Status         DeliveryStatus
	HTTPStatus     *int
	AttemptNumber  int
	Error          string
	NextAttemptAt  *time.Time
	CreatedAt      time.Time
	CompletedAt    *time.Time
}
