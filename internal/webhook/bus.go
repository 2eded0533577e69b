package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"deskmind.app/support/common/id"
	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/store"
)

// EventBus fans an event out to every matching active subscription.
// Publish only enqueues work; it returns before any delivery runs, so
// the request path never waits on a subscriber endpoint.
type EventBus struct {
	subs      store.SubscriptionStore
	scheduler Scheduler
}

func NewEventBus(subs store.SubscriptionStore, scheduler Scheduler) *EventBus {
	return &EventBus{subs: subs, scheduler: scheduler}
}

func (b *EventBus) Publish(ctx context.Context, event domain.Event) error {
	if event.ID == 0 {
		event.ID = id.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	subs, err := b.subs.ListActiveForEvent(ctx, event.Type)
	if err != nil {
		return fmt.Errorf("list subscriptions for %s: %w", event.Type, err)
	}
	if len(subs) == 0 {
		// Nobody listening is the normal case, not an error.
		return nil
	}

	scheduled := 0
	for _, sub := range subs {
		payload, ts, err := BuildPayload(event, sub.ID, event.CreatedAt)
		if err != nil {
			slog.ErrorContext(ctx, "failed to build delivery payload",
				"event_type", event.Type,
				"subscription_id", sub.ID,
				"error", err)
			continue
		}
		b.scheduler.Schedule(ctx, Job{
			Event:        event,
			Subscription: sub,
			Payload:      payload,
			Timestamp:    ts,
		})
		scheduled++
	}

	slog.DebugContext(ctx, "event published",
		"event_type", event.Type,
		"subscriptions", scheduled)

	return nil
}
