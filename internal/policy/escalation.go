package policy

import (
	"strings"

	"deskmind.app/support/internal/domain"
)

// Escalation reasons, named by trigger. When several triggers fire at
// once the reported reason follows this priority order:
// keyword > angry > attempt-count > score.
const (
	ReasonKeyword  = "keyword"
	ReasonAngry    = "angry"
	ReasonAttempts = "attempt-count"
	ReasonScore    = "score"
)

// DefaultEscalationKeywords is the product-approved trigger list.
// Matching is case-insensitive substring; deliberately narrow so that
// ordinary technical vocabulary ("crash", "error") never escalates.
func DefaultEscalationKeywords() []string {
	return []string{
		"lawsuit",
		"legal",
		"attorney",
		"lawyer",
		"sue",
		"refund immediately",
		"manager",
		"supervisor",
		"unacceptable",
		"ridiculous",
		"demand refund",
		"escalate this",
	}
}

// EscalationPolicy decides whether a query needs human hand-off.
// Pure; safe for concurrent use.
type EscalationPolicy struct {
	keywords      []string
	scoreFloor    int
	attemptsFloor int
}

func NewEscalationPolicy(keywords []string) *EscalationPolicy {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &EscalationPolicy{
		keywords:      lowered,
		scoreFloor:    8,
		attemptsFloor: 3,
	}
}

// Evaluate returns whether the query escalates and the reason for the
// first matching trigger. The trigger order is fixed for determinism:
// the same inputs always produce the same reason.
func (p *EscalationPolicy) Evaluate(score int, sentiment domain.Sentiment, text string, qctx domain.QueryContext) (bool, string) {
	lower := strings.ToLower(text)
	for _, kw := range p.keywords {
		if strings.Contains(lower, kw) {
			return true, ReasonKeyword
		}
	}

	if sentiment == domain.SentimentAngry {
		return true, ReasonAngry
	}

	if qctx.AttemptCount >= p.attemptsFloor {
		return true, ReasonAttempts
	}

	if score >= p.scoreFloor {
		return true, ReasonScore
	}

	return false, ""
}
