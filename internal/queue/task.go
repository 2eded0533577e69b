package queue

// Task is one webhook delivery handed from the server to the delivery
// worker. The payload is the canonical signed body frozen at scheduling
// time; the worker resends it byte-for-byte on every attempt.
type Task struct {
	EventID        int64
	EventType      string
	SubscriptionID int64
	Payload        []byte
	Timestamp      string
	TraceID        *string
	Attempt        int
}
