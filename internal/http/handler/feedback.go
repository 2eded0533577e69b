package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"deskmind.app/support/internal/http/dto"
	"deskmind.app/support/internal/service"
)

type FeedbackHandler struct {
	feedbackService service.FeedbackService
}

func NewFeedbackHandler(feedbackService service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feedback, err := h.feedbackService.Submit(ctx, service.SubmitFeedbackRequest{
		QueryID: req.QueryID,
		UserID:  req.UserID,
		Rating:  req.Rating,
		Text:    req.Text,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQueryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "query not found"})
		case errors.Is(err, service.ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to record feedback", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record feedback"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToFeedbackResponse(feedback))
}
