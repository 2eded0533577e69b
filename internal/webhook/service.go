package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"deskmind.app/support/common/id"
	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/store"
)

const secretBytes = 32

// ValidationError marks bad registration input so the transport layer
// can map it to a 4xx instead of a 500.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Service is the subscription management surface: registration,
// updates, listing, the delivery audit trail and synchronous test
// deliveries.
type Service struct {
	subs      store.SubscriptionStore
	log       store.DeliveryStore
	deliverer *Deliverer
}

func NewService(subs store.SubscriptionStore, deliveryLog store.DeliveryStore, deliverer *Deliverer) *Service {
	return &Service{subs: subs, log: deliveryLog, deliverer: deliverer}
}

// Register creates an active subscription with a generated secret. Bad
// URLs and unknown event types are rejected here, never at delivery
// time.
func (s *Service) Register(ctx context.Context, rawURL string, events []domain.EventType) (*domain.Subscription, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	if err := validateEvents(events); err != nil {
		return nil, err
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate webhook secret: %w", err)
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:        id.New(),
		URL:       rawURL,
		Events:    append([]domain.EventType(nil), events...),
		Secret:    secret,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	slog.InfoContext(ctx, "webhook subscription registered",
		"subscription_id", sub.ID,
		"url", sub.URL,
		"events", len(sub.Events))

	return sub, nil
}

// UpdateParams carries the fields an update may change; nil means keep
// the current value.
type UpdateParams struct {
	URL      *string
	Events   []domain.EventType
	IsActive *bool
}

func (s *Service) Update(ctx context.Context, subscriptionID int64, params UpdateParams) (*domain.Subscription, error) {
	sub, err := s.subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if params.URL != nil {
		if err := validateURL(*params.URL); err != nil {
			return nil, err
		}
		sub.URL = *params.URL
	}
	if params.Events != nil {
		if err := validateEvents(params.Events); err != nil {
			return nil, err
		}
		sub.Events = append([]domain.EventType(nil), params.Events...)
	}
	if params.IsActive != nil {
		sub.IsActive = *params.IsActive
	}

	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("update subscription %d: %w", subscriptionID, err)
	}
	return sub, nil
}

func (s *Service) Delete(ctx context.Context, subscriptionID int64) error {
	if err := s.subs.Delete(ctx, subscriptionID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "webhook subscription deleted", "subscription_id", subscriptionID)
	return nil
}

func (s *Service) Get(ctx context.Context, subscriptionID int64) (*domain.Subscription, error) {
	return s.subs.GetByID(ctx, subscriptionID)
}

func (s *Service) List(ctx context.Context, isActive *bool, page store.Page) ([]domain.Subscription, error) {
	return s.subs.List(ctx, store.SubscriptionFilter{IsActive: isActive}, page)
}

// Deliveries returns the attempt audit trail for a subscription,
// newest-first.
func (s *Service) Deliveries(ctx context.Context, subscriptionID int64, page store.Page) ([]domain.DeliveryAttempt, error) {
	if _, err := s.subs.GetByID(ctx, subscriptionID); err != nil {
		return nil, err
	}
	return s.log.ListBySubscription(ctx, subscriptionID, page)
}

// TestResult reports what a synchronous test delivery did.
type TestResult struct {
	Success    bool
	HTTPStatus *int
	Latency    time.Duration
	Error      string
}

// Test sends one webhook.test delivery to the subscription and waits
// for it. Exactly one attempt, no retries; the attempt is logged like
// any other so it shows up in Deliveries.
func (s *Service) Test(ctx context.Context, subscriptionID int64) (*TestResult, error) {
	sub, err := s.subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	event := domain.Event{
		ID:        id.New(),
		Type:      domain.EventWebhookTest,
		Data:      TestEventData(sub.ID, now),
		CreatedAt: now,
	}
	payload, ts, err := BuildPayload(event, sub.ID, now)
	if err != nil {
		return nil, err
	}

	rec := &domain.DeliveryAttempt{
		ID:             id.New(),
		SubscriptionID: sub.ID,
		EventID:        event.ID,
		EventType:      event.Type,
		Payload:        payload,
		Status:         domain.DeliveryPending,
		AttemptNumber:  1,
		CreatedAt:      now,
	}
	if err := s.log.CreateAttempt(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to record test attempt", "error", err)
	}

	result := s.deliverer.Deliver(ctx, sub.URL, payload, sub.Secret, sub.ID, ts)

	completed := time.Now().UTC()
	rec.CompletedAt = &completed
	rec.Error = errString(result.Err)

	out := &TestResult{Latency: result.Latency, Error: rec.Error}
	if result.StatusCode != 0 {
		status := result.StatusCode
		rec.HTTPStatus = &status
		out.HTTPStatus = &status
	}
	if classifyOutcome(result.StatusCode, result.Err) == outcomeSuccess {
		rec.Status = domain.DeliverySuccess
		out.Success = true
	} else {
		rec.Status = domain.DeliveryFailed
	}

	if err := s.log.UpdateAttempt(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to settle test attempt", "error", err)
	}
	return out, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Reason: "not a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "url", Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "url", Reason: "host required"}
	}
	return nil
}

func validateEvents(events []domain.EventType) error {
	if len(events) == 0 {
		return &ValidationError{Field: "events", Reason: "at least one event type required"}
	}
	for _, t := range events {
		if !domain.ValidEventType(t) {
			return &ValidationError{Field: "events", Reason: fmt.Sprintf("unknown event type %q", t)}
		}
	}
	return nil
}

func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
