package queue

import (
	"context"
	"errors"
	"testing"

	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/webhook"
)

type mockProducer struct {
	tasks []Task
	err   error
}

func (m *mockProducer) Enqueue(_ context.Context, task Task) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockProducer) Close() error { return nil }

func TestSchedulerMapsJobToTask(t *testing.T) {
	producer := &mockProducer{}
	s := NewScheduler(producer)

	s.Schedule(context.Background(), webhook.Job{
		Event:        domain.Event{ID: 101, Type: domain.EventQueryEscalated},
		Subscription: domain.Subscription{ID: 202},
		Payload:      []byte(`{"event":"query.escalated"}`),
		Timestamp:    "2026-03-14T09:26:53Z",
	})

	if len(producer.tasks) != 1 {
		t.Fatalf("enqueued %d tasks, want 1", len(producer.tasks))
	}
	task := producer.tasks[0]
	if task.EventID != 101 || task.SubscriptionID != 202 {
		t.Errorf("task IDs = %d/%d", task.EventID, task.SubscriptionID)
	}
	if task.EventType != "query.escalated" {
		t.Errorf("event type = %q", task.EventType)
	}
	if string(task.Payload) != `{"event":"query.escalated"}` {
		t.Errorf("payload = %s", task.Payload)
	}
	if task.Timestamp != "2026-03-14T09:26:53Z" {
		t.Errorf("timestamp = %q, want the frozen one", task.Timestamp)
	}
	if task.TraceID != nil {
		t.Errorf("trace ID = %v, want nil without an active span", task.TraceID)
	}
}

func TestSchedulerSwallowsEnqueueErrors(t *testing.T) {
	s := NewScheduler(&mockProducer{err: errors.New("redis down")})

	// Must not panic or propagate; delivery stays off the request path.
	s.Schedule(context.Background(), webhook.Job{
		Event:        domain.Event{ID: 1, Type: domain.EventQueryCreated},
		Subscription: domain.Subscription{ID: 2},
	})
}
