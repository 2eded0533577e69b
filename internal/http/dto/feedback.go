package dto

import (
	"time"

	"deskmind.app/support/internal/domain"
)

type SubmitFeedbackRequest struct {
	QueryID string `json:"query_id" binding:"required"`
	UserID  string `json:"user_id" binding:"required,min=1,max=255"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Text    string `json:"text" binding:"max=10000"`
}

type FeedbackResponse struct {
	ID        int64     `json:"id,string"`
	QueryID   string    `json:"query_id"`
	Rating    int       `json:"rating"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

func ToFeedbackResponse(f *domain.Feedback) *FeedbackResponse {
	return &FeedbackResponse{
		ID:        f.ID,
		QueryID:   f.QueryID,
		Rating:    f.Rating,
		Category:  string(f.Category),
		CreatedAt: f.CreatedAt,
	}
}
