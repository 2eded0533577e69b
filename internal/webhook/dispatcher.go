package webhook

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"deskmind.app/support/common/id"
	"deskmind.app/support/common/logger"
	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/store"
)

// Job is one scheduled delivery: an event bound to a subscription with
// its payload frozen at scheduling time.
type Job struct {
	Event        domain.Event
	Subscription domain.Subscription
	Payload      []byte
	Timestamp    string
}

// Scheduler accepts delivery jobs. The in-process Dispatcher implements
// it directly; queue mode hands jobs to Redis instead.
type Scheduler interface {
	Schedule(ctx context.Context, job Job)
}

// Dispatcher runs deliveries on a bounded pool of goroutines. Retries
// for one job run sequentially inside a single goroutine; different
// jobs run concurrently up to the pool bound, so one slow endpoint
// never delays the others.
type Dispatcher struct {
	subs      store.SubscriptionStore
	log       store.DeliveryStore
	deliverer *Deliverer

	maxAttempts int
	backoffBase time.Duration

	sem chan struct{}
	wg  sync.WaitGroup
}

type DispatcherConfig struct {
	MaxAttempts   int
	BackoffBase   time.Duration
	MaxConcurrent int
}

func NewDispatcher(subs store.SubscriptionStore, deliveryLog store.DeliveryStore, deliverer *Deliverer, cfg DispatcherConfig) *Dispatcher {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 64
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	return &Dispatcher{
		subs:        subs,
		log:         deliveryLog,
		deliverer:   deliverer,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		sem:         make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Schedule hands the job to the pool and returns immediately. The job
// is detached from the caller's cancellation so an HTTP request
// finishing does not abort deliveries it triggered; log and trace
// values carry over.
func (d *Dispatcher) Schedule(ctx context.Context, job Job) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.sem <- struct{}{}
		defer func() { <-d.sem }()
		d.run(ctx, job)
	}()
}

// Drain blocks until every scheduled job has finished. Used for
// graceful shutdown and by tests that need deliveries settled.
func (d *Dispatcher) Drain() {
	d.wg.Wait()
}

// Run executes the full retry loop for one job. Exported for the queue
// worker, which consumes jobs from Redis and runs them inline.
func (d *Dispatcher) Run(ctx context.Context, job Job) {
	d.run(ctx, job)
}

func (d *Dispatcher) run(ctx context.Context, job Job) {
	eventType := string(job.Event.Type)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:        &job.Event.ID,
		SubscriptionID: &job.Subscription.ID,
		EventType:      &eventType,
		Component:      "webhook",
	})

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		// Re-check the subscription before every attempt, not just the
		// first: deleting or deactivating a subscription cancels any
		// retry that has not started yet.
		sub, err := d.subs.GetByID(ctx, job.Subscription.ID)
		if errors.Is(err, store.ErrNotFound) {
			slog.InfoContext(ctx, "subscription deleted, dropping delivery", "attempt", attempt)
			return
		}
		if err != nil {
			slog.WarnContext(ctx, "subscription lookup failed, dropping delivery", "attempt", attempt, "error", err)
			return
		}
		if !sub.IsActive {
			slog.InfoContext(ctx, "subscription inactive, dropping delivery", "attempt", attempt)
			return
		}

		result := d.attempt(ctx, job, sub, attempt)

		switch classifyOutcome(result.StatusCode, result.Err) {
		case outcomeSuccess:
			d.recordDelivery(ctx, sub.ID)
			slog.InfoContext(ctx, "delivery succeeded",
				"attempt", attempt,
				"status", result.StatusCode,
				"latency_ms", result.Latency.Milliseconds())
			return
		case outcomeFailed:
			d.recordFailure(ctx, sub.ID)
			slog.WarnContext(ctx, "delivery failed permanently",
				"attempt", attempt,
				"status", result.StatusCode)
			return
		case outcomeRetryable:
			if attempt == d.maxAttempts {
				d.recordFailure(ctx, sub.ID)
				slog.WarnContext(ctx, "delivery failed, retries exhausted",
					"attempts", attempt,
					"status", result.StatusCode,
					"error", errString(result.Err))
				return
			}
			delay := d.backoff(attempt)
			slog.InfoContext(ctx, "delivery attempt failed, retrying",
				"attempt", attempt,
				"status", result.StatusCode,
				"error", errString(result.Err),
				"retry_in", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}
}

// attempt logs one pending record, performs the HTTP call and settles
// the record. Bookkeeping failures are logged and do not affect the
// delivery outcome.
func (d *Dispatcher) attempt(ctx context.Context, job Job, sub *domain.Subscription, attemptNumber int) Result {
	rec := &domain.DeliveryAttempt{
		ID:             id.New(),
		SubscriptionID: sub.ID,
		EventID:        job.Event.ID,
		EventType:      job.Event.Type,
		Payload:        job.Payload,
		Status:         domain.DeliveryPending,
		AttemptNumber:  attemptNumber,
		CreatedAt:      time.Now().UTC(),
	}
	if err := d.log.CreateAttempt(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to record delivery attempt", "error", err)
	}

	result := d.deliverer.Deliver(ctx, sub.URL, job.Payload, sub.Secret, sub.ID, job.Timestamp)

	completed := time.Now().UTC()
	rec.CompletedAt = &completed
	if result.StatusCode != 0 {
		status := result.StatusCode
		rec.HTTPStatus = &status
	}
	rec.Error = errString(result.Err)

	switch classifyOutcome(result.StatusCode, result.Err) {
	case outcomeSuccess:
		rec.Status = domain.DeliverySuccess
	case outcomeFailed:
		rec.Status = domain.DeliveryFailed
	case outcomeRetryable:
		rec.Status = domain.DeliveryFailed
		if attemptNumber < d.maxAttempts {
			next := completed.Add(d.backoff(attemptNumber))
			rec.NextAttemptAt = &next
		}
	}

	if err := d.log.UpdateAttempt(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to settle delivery attempt", "error", err)
	}
	return result
}

// backoff returns the delay before attempt n+1: base, 2*base, 4*base.
func (d *Dispatcher) backoff(attempt int) time.Duration {
	return d.backoffBase * (1 << (attempt - 1))
}

// Statistics updates tolerate the subscription vanishing mid-flight;
// the attempt record is the durable audit trail.

func (d *Dispatcher) recordDelivery(ctx context.Context, subID int64) {
	if err := d.subs.RecordDelivery(ctx, subID, time.Now().UTC()); err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.WarnContext(ctx, "failed to update delivery statistics", "error", err)
	}
}

func (d *Dispatcher) recordFailure(ctx context.Context, subID int64) {
	if err := d.subs.RecordFailure(ctx, subID, time.Now().UTC()); err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.WarnContext(ctx, "failed to update failure statistics", "error", err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
