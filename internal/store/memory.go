package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"deskmind.app/support/internal/domain"
)

// Memory is an in-memory implementation of all store interfaces. Used
// in tests and for local development without Postgres. Safe for
// concurrent use; counter updates are serialized by the mutex, so
// concurrent deliveries never lose statistics.
type Memory struct {
	mu            sync.RWMutex
	queries       map[string]domain.Query
	outcomes      map[string]domain.Outcome
	feedback      []domain.Feedback
	subscriptions map[int64]domain.Subscription
	attempts      []domain.DeliveryAttempt
}

func NewMemory() *Memory {
	return &Memory{
		queries:       make(map[string]domain.Query),
		outcomes:      make(map[string]domain.Outcome),
		subscriptions: make(map[int64]domain.Subscription),
	}
}

// --- QueryStore -------------------------------------------------------------

func (m *Memory) CreateQuery(_ context.Context, q *domain.Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.queries[q.ID]; exists {
		return fmt.Errorf("query %s already exists", q.ID)
	}
	m.queries[q.ID] = *q
	return nil
}

func (m *Memory) GetQuery(_ context.Context, id string) (*domain.Query, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.queries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (m *Memory) SaveOutcome(_ context.Context, o *domain.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.outcomes[o.QueryID]; exists {
		return fmt.Errorf("outcome for query %s already exists", o.QueryID)
	}
	m.outcomes[o.QueryID] = *o
	return nil
}

func (m *Memory) GetOutcome(_ context.Context, queryID string) (*domain.Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.outcomes[queryID]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *Memory) CreateFeedback(_ context.Context, f *domain.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, *f)
	return nil
}

// --- SubscriptionStore ------------------------------------------------------

func (m *Memory) Create(_ context.Context, sub *domain.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[sub.ID] = cloneSubscription(*sub)
	return nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (*domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subscriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneSubscription(sub)
	return &out, nil
}

func (m *Memory) Update(_ context.Context, sub *domain.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.subscriptions[sub.ID]
	if !ok {
		return ErrNotFound
	}
	existing.URL = sub.URL
	existing.Events = append([]domain.EventType(nil), sub.Events...)
	existing.IsActive = sub.IsActive
	existing.UpdatedAt = time.Now().UTC()
	m.subscriptions[sub.ID] = existing
	return nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[id]; !ok {
		return ErrNotFound
	}
	delete(m.subscriptions, id)
	return nil
}

func (m *Memory) List(_ context.Context, filter SubscriptionFilter, page Page) ([]domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []domain.Subscription
	for _, sub := range m.subscriptions {
		if filter.IsActive != nil && sub.IsActive != *filter.IsActive {
			continue
		}
		all = append(all, cloneSubscription(sub))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	return paginate(all, page), nil
}

func (m *Memory) ListActiveForEvent(_ context.Context, t domain.EventType) ([]domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []domain.Subscription
	for _, sub := range m.subscriptions {
		if sub.IsActive && (&sub).Subscribed(t) {
			result = append(result, cloneSubscription(sub))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) RecordDelivery(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subscriptions[id]
	if !ok {
		return nil // subscription gone, bookkeeping is best-effort
	}
	sub.DeliveryCount++
	sub.LastDeliveryAt = &at
	m.subscriptions[id] = sub
	return nil
}

func (m *Memory) RecordFailure(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subscriptions[id]
	if !ok {
		return nil
	}
	sub.FailureCount++
	sub.LastFailureAt = &at
	m.subscriptions[id] = sub
	return nil
}

// --- DeliveryStore ----------------------------------------------------------

func (m *Memory) CreateAttempt(_ context.Context, a *domain.DeliveryAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, cloneAttempt(*a))
	return nil
}

func (m *Memory) UpdateAttempt(_ context.Context, a *domain.DeliveryAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.attempts {
		if m.attempts[i].ID == a.ID {
			if m.attempts[i].Status.Terminal() {
				return fmt.Errorf("attempt %d already terminal", a.ID)
			}
			m.attempts[i] = cloneAttempt(*a)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListBySubscription(_ context.Context, subscriptionID int64, page Page) ([]domain.DeliveryAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []domain.DeliveryAttempt
	for _, a := range m.attempts {
		if a.SubscriptionID == subscriptionID {
			result = append(result, cloneAttempt(a))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].AttemptNumber > result[j].AttemptNumber
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return paginate(result, page), nil
}

func paginate[T any](items []T, page Page) []T {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if page.Offset >= len(items) {
		return nil
	}
	end := page.Offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}

func cloneSubscription(sub domain.Subscription) domain.Subscription {
	sub.Events = append([]domain.EventType(nil), sub.Events...)
	return sub
}

func cloneAttempt(a domain.DeliveryAttempt) domain.DeliveryAttempt {
	a.Payload = append([]byte(nil), a.Payload...)
	return a
}
