package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"deskmind.app/support/common/id"
	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/store"
	"deskmind.app/support/internal/webhook"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

type SubmitFeedbackRequest struct {
	QueryID string
	UserID  string
	Rating  int
	Text    string
}

type FeedbackService interface {
	Submit(ctx context.Context, req SubmitFeedbackRequest) (*domain.Feedback, error)
}

type feedbackService struct {
	queries store.QueryStore
	events  EventPublisher
}

func NewFeedbackService(queries store.QueryStore, events EventPublisher) FeedbackService {
	return &feedbackService{queries: queries, events: events}
}

func (s *feedbackService) Submit(ctx context.Context, req SubmitFeedbackRequest) (*domain.Feedback, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := s.queries.GetQuery(ctx, req.QueryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrQueryNotFound
		}
		return nil, fmt.Errorf("fetch query %s: %w", req.QueryID, err)
	}

	// The outcome tells us which category the feedback belongs to.
	// Missing outcome means the query never finished processing; the
	// feedback is still worth keeping.
	category := domain.CategoryGeneral
	if outcome, err := s.queries.GetOutcome(ctx, req.QueryID); err == nil {
		category = outcome.Category
	}

	f := &domain.Feedback{
		ID:        id.New(),
		QueryID:   req.QueryID,
		UserID:    req.UserID,
		Rating:    req.Rating,
		Text:      strings.TrimSpace(req.Text),
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.queries.CreateFeedback(ctx, f); err != nil {
		return nil, fmt.Errorf("persist feedback: %w", err)
	}

	if err := s.events.Publish(ctx, domain.Event{
		Type: domain.EventFeedbackReceived,
		Data: webhook.FeedbackReceivedData(f),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish feedback event", "error", err)
	}

	return f, nil
}
