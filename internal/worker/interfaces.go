package worker

import (
	"context"

	"deskmind.app/support/internal/queue"
	"deskmind.app/support/internal/webhook"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// DeliveryRunner abstracts the webhook retry loop for testability. The
// dispatcher's Run owns HTTP retries, attempt records and statistics;
// the worker only feeds it jobs from the stream.
type DeliveryRunner interface {
	Run(ctx context.Context, job webhook.Job)
}
