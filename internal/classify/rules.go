package classify

import (
	"context"
	"strings"

	"deskmind.app/support/internal/domain"
)

// Keyword-driven fallbacks for when no LLM provider is configured.
// Deterministic, so local development and tests behave the same run
// to run.

var categoryKeywords = map[domain.Category][]string{
	domain.CategoryTechnical: {
		"error", "bug", "crash", "broken", "not working", "fails", "failed",
		"api", "integration", "timeout", "slow", "500", "exception",
	},
	domain.CategoryBilling: {
		"invoice", "charge", "charged", "refund", "payment", "billing",
		"subscription", "price", "pricing", "credit card", "receipt",
	},
	domain.CategoryAccount: {
		"login", "log in", "password", "account", "sign in", "signin",
		"locked", "profile", "permission", "delete my", "export my",
	},
}

var angryMarkers = []string{
	"furious", "outraged", "worst", "terrible", "garbage", "useless",
	"unacceptable", "ridiculous", "sue", "lawyer", "scam",
}

var negativeMarkers = []string{
	"frustrated", "disappointed", "annoyed", "unhappy", "upset",
	"still broken", "again", "not happy", "waste",
}

var positiveMarkers = []string{
	"thank", "thanks", "great", "love", "awesome", "appreciate", "perfect",
}

// RuleClassifier matches category keywords against the lowered query
// text. First category with the most hits wins; no hits means general
// with zero confidence.
type RuleClassifier struct{}

func (RuleClassifier) Classify(_ context.Context, text string) (domain.Classification, error) {
	lowered := strings.ToLower(text)

	best := domain.CategoryGeneral
	bestHits := 0
	for _, cat := range []domain.Category{domain.CategoryTechnical, domain.CategoryBilling, domain.CategoryAccount} {
		hits := 0
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(lowered, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = cat
			bestHits = hits
		}
	}

	confidence := 0.0
	if bestHits > 0 {
		// Cap heuristic confidence well below what the LLM reports for
		// unambiguous queries.
		confidence = 0.5 + 0.1*float64(min(bestHits, 3))
	}
	return domain.Classification{Category: best, Confidence: confidence}, nil
}

// RuleSentiment detects tone from marker words and shouting.
type RuleSentiment struct{}

func (RuleSentiment) Analyze(_ context.Context, text string) (domain.SentimentResult, error) {
	lowered := strings.ToLower(text)

	for _, m := range angryMarkers {
		if strings.Contains(lowered, m) {
			return domain.SentimentResult{Label: domain.SentimentAngry, Intensity: 0.9}, nil
		}
	}
	if isShouting(text) {
		return domain.SentimentResult{Label: domain.SentimentAngry, Intensity: 0.8}, nil
	}
	for _, m := range negativeMarkers {
		if strings.Contains(lowered, m) {
			return domain.SentimentResult{Label: domain.SentimentNegative, Intensity: 0.7}, nil
		}
	}
	for _, m := range positiveMarkers {
		if strings.Contains(lowered, m) {
			return domain.SentimentResult{Label: domain.SentimentPositive, Intensity: 0.7}, nil
		}
	}
	return domain.SentimentResult{Label: domain.SentimentNeutral, Intensity: 0.5}, nil
}

// isShouting reports whether the message is mostly upper-case letters.
func isShouting(text string) bool {
	upper, letters := 0, 0
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z':
			upper++
			letters++
		case r >= 'a' && r <= 'z':
			letters++
		}
	}
	return letters >= 12 && float64(upper)/float64(letters) > 0.7
}
