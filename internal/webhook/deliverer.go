package webhook

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Outcome classification for a single delivery attempt.
type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetryable
	outcomeFailed
)

func classifyOutcome(status int, err error) outcomeKind {
	if err != nil {
		// Timeout or connection error.
		return outcomeRetryable
	}
	switch {
	case status >= 200 && status < 300:
		return outcomeSuccess
	case status >= 400 && status < 500:
		// Client errors are not transient; retrying cannot help.
		return outcomeFailed
	default:
		return outcomeRetryable
	}
}

// Result records what one HTTP attempt did.
type Result struct {
	StatusCode int // 0 when the request never completed
	Latency    time.Duration
	Err        error
}

// Deliverer performs the HTTP POST for one attempt. The per-attempt
// timeout is enforced through the request context so an unreachable
// endpoint cannot hold a worker longer than configured.
type Deliverer struct {
	client  *http.Client
	timeout time.Duration
}

func NewDeliverer(timeout time.Duration) *Deliverer {
	return &Deliverer{
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Deliver POSTs the signed payload to url. The timestamp is the one
// captured in the payload at scheduling time so header and body agree
// on every retry.
func (d *Deliverer) Deliver(ctx context.Context, url string, payload []byte, secret string, subscriptionID int64, timestamp string) Result {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{Latency: time.Since(start), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", Sign(secret, payload))
	req.Header.Set("X-Webhook-Timestamp", timestamp)
	req.Header.Set("X-Webhook-ID", strconv.FormatInt(subscriptionID, 10))

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{Latency: time.Since(start), Err: err}
	}
	defer resp.Body.Close()

	// Response body is ignored beyond draining for connection reuse.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return Result{StatusCode: resp.StatusCode, Latency: time.Since(start)}
}
