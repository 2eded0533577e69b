package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/queue"
	"deskmind.app/support/internal/webhook"
)

type Config struct {
	MaxAttempts int
}

// Worker consumes delivery tasks from the stream and runs them through
// the webhook dispatcher. HTTP-level retries happen inside the
// dispatcher; queue-level requeue and DLQ exist for infrastructure
// failures (panics, unparseable messages), not endpoint failures.
type Worker struct {
	consumer Consumer
	runner   DeliveryRunner
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, runner DeliveryRunner, cfg Config) *Worker {
	return &Worker{
		consumer:  consumer,
		runner:    runner,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "delivery worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "delivery worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	// Deliveries in a batch run concurrently. One message carries one
	// subscription's full retry loop, so running the batch sequentially
	// would let a single slow endpoint delay every other subscriber.
	var wg sync.WaitGroup
	for _, msg := range messages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.processMessageSafe(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "message processing failed",
					"error", err,
					"message_id", msg.ID,
					"subscription_id", msg.SubscriptionID)
				w.handleFailedMessage(ctx, msg, err)
			}
		}()
	}
	wg.Wait()

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"subscription_id", msg.SubscriptionID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// Exported so it can be reused by the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	slog.InfoContext(ctx, "processing delivery",
		"message_id", msg.ID,
		"event_id", msg.EventID,
		"event_type", msg.EventType,
		"subscription_id", msg.SubscriptionID,
		"attempt", msg.Attempt)

	// The dispatcher refetches the subscription before each attempt, so
	// only the IDs and the frozen payload travel through the stream.
	w.runner.Run(ctx, webhook.Job{
		Event: domain.Event{
			ID:   msg.EventID,
			Type: domain.EventType(msg.EventType),
		},
		Subscription: domain.Subscription{ID: msg.SubscriptionID},
		Payload:      msg.Payload,
		Timestamp:    msg.Timestamp,
	})

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Log but don't fail - message will be reclaimed but reruns are
		// bounded by the dispatcher's own attempt records
		slog.WarnContext(ctx, "failed to ACK message",
			"error", err,
			"message_id", msg.ID)
	}

	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"subscription_id", msg.SubscriptionID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"subscription_id", msg.SubscriptionID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
