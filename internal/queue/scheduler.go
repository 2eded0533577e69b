package queue

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"deskmind.app/support/internal/webhook"
)

// Scheduler satisfies webhook.Scheduler by enqueueing jobs onto the
// delivery stream instead of running them in-process. The delivery
// worker consumes the stream and runs the normal retry loop.
type Scheduler struct {
	producer Producer
}

func NewScheduler(producer Producer) *Scheduler {
	return &Scheduler{producer: producer}
}

func (s *Scheduler) Schedule(ctx context.Context, job webhook.Job) {
	task := Task{
		EventID:        job.Event.ID,
		EventType:      string(job.Event.Type),
		SubscriptionID: job.Subscription.ID,
		Payload:        job.Payload,
		Timestamp:      job.Timestamp,
	}
	if span := trace.SpanContextFromContext(ctx); span.HasTraceID() {
		traceID := span.TraceID().String()
		task.TraceID = &traceID
	}

	if err := s.producer.Enqueue(ctx, task); err != nil {
		// Delivery problems stay off the request path; the event is lost
		// to this subscriber but the failure is visible in the logs.
		slog.ErrorContext(ctx, "failed to enqueue delivery",
			"event_id", task.EventID,
			"subscription_id", task.SubscriptionID,
			"error", err)
	}
}
