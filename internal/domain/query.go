package domain

import "time"

// Category is the support domain a query belongs to. Routing and
// priority weighting both key off it.
type Category string

const (
	CategoryTechnical Category = "Technical"
	CategoryBilling   Category = "Billing"
	CategoryAccount   Category = "Account"
	CategoryGeneral   Category = "General"
)

// ParseCategory normalizes a raw classifier label to a known category.
// Unknown labels map to General so routing never fails closed.
func ParseCategory(raw string) Category {
	switch Category(raw) {
	case CategoryTechnical, CategoryBilling, CategoryAccount, CategoryGeneral:
		return Category(raw)
	default:
		return CategoryGeneral
	}
}

// Sentiment is the emotional tone detected in a query.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
	SentimentAngry    Sentiment = "Angry"
)

// ParseSentiment normalizes a raw sentiment label, defaulting to Neutral.
func ParseSentiment(raw string) Sentiment {
	switch Sentiment(raw) {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentAngry:
		return Sentiment(raw)
	default:
		return SentimentNeutral
	}
}

// QueryContext carries caller-supplied flags that influence priority
// and escalation but are not derived from the query text.
type QueryContext struct {
	IsRepeat     bool
	IsVIP        bool
	AttemptCount int
}

// Query is one inbound support request. Immutable once created; owned
// by the pipeline invocation that processes it.
type Query struct {
	ID          string
	Text        string
	SubmitterID string
	Context     QueryContext
	CreatedAt   time.Time
}

// Classification is the classifier port's verdict for a query.
type Classification struct {
	Category   Category
	Confidence float64
}

// SentimentResult is the sentiment port's verdict for a query.
type SentimentResult struct {
	Label     Sentiment
	Intensity float64
}

// Snippet is one ranked knowledge-base match.
type Snippet struct {
	Title    string
	Content  string
	Category string
	Score    float64
}

// Outcome is the terminal record of a processed query. Built once at
// the end of pipeline execution, persisted, then frozen.
type Outcome struct {
	QueryID          string
	Category         Category
	Confidence       float64
	Sentiment        Sentiment
	Intensity        float64
	Priority         int
	ResponseText     string
	Escalated        bool
	EscalationReason string
	Snippets         []Snippet
	ResolutionTime   time.Duration
	CreatedAt        time.Time
}

// Feedback is a post-resolution rating submitted for a query.
type Feedback struct {
	ID        int64
	QueryID   string
	UserID    string
	Rating    int
	Text      string
	Category  Category
	CreatedAt time.Time
}
