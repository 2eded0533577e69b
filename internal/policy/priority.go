package policy

import "deskmind.app/support/internal/domain"

// Weights holds the priority scoring constants. These are product
// policy, loaded from configuration; DefaultWeights carries the values
// signed off for the support domain.
type Weights struct {
	Base          int
	Sentiment     map[domain.Sentiment]int
	Category      map[domain.Category]int
	RepeatBonus   int
	VIPBonus      int
}

// DefaultWeights returns the standard scoring table.
//
// Scale: 1-3 low, 4-6 medium, 7-8 high, 9-10 critical.
func DefaultWeights() Weights {
	return Weights{
		Base: 5,
		Sentiment: map[domain.Sentiment]int{
			domain.SentimentAngry:    4,
			domain.SentimentNegative: 3,
			domain.SentimentNeutral:  0,
			domain.SentimentPositive: -1,
		},
		Category: map[domain.Category]int{
			domain.CategoryTechnical: 1,
			domain.CategoryBilling:   1,
		},
		RepeatBonus: 2,
		VIPBonus:    2,
	}
}

// Scorer computes priority scores from classification, sentiment and
// caller context. Pure; safe for concurrent use.
type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score returns the priority in [1,10] for the given inputs. The
// weighted sum is clamped, so no input combination can escape the
// range.
func (s *Scorer) Score(category domain.Category, sentiment domain.Sentiment, qctx domain.QueryContext) int {
	score := s.weights.Base
	score += s.weights.Sentiment[sentiment]
	score += s.weights.Category[category]

	if qctx.IsRepeat {
		score += s.weights.RepeatBonus
	}
	if qctx.IsVIP {
		score += s.weights.VIPBonus
	}

	return clamp(score, 1, 10)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
