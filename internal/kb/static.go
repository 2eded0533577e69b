package kb

import (
	"context"
	"sort"
	"strings"

	"deskmind.app/support/internal/domain"
)

type article struct {
	Title    string
	Content  string
	Category domain.Category
}

var builtinArticles = []article{
	{
		Title:    "Resolving API timeout errors",
		Content:  "Timeouts usually trace back to missing retry configuration or an undersized connection pool. Set a client timeout of at least 30 seconds and enable keep-alive.",
		Category: domain.CategoryTechnical,
	},
	{
		Title:    "Troubleshooting integration failures",
		Content:  "Check the webhook signing secret first; a rotated secret silently fails verification. Then confirm the endpoint returns 2xx within ten seconds.",
		Category: domain.CategoryTechnical,
	},
	{
		Title:    "Recovering from application crashes",
		Content:  "Collect the crash log from the diagnostics page and attach it to your ticket. Most crashes on startup come from stale cached credentials.",
		Category: domain.CategoryTechnical,
	},
	{
		Title:    "Understanding your invoice",
		Content:  "Invoices are issued on the first of the month and cover the previous billing period. Usage overages appear as separate line items.",
		Category: domain.CategoryBilling,
	},
	{
		Title:    "Requesting a refund",
		Content:  "Refunds for annual plans are prorated within 30 days of renewal. Submit the request from the billing page; processing takes 5-7 business days.",
		Category: domain.CategoryBilling,
	},
	{
		Title:    "Updating payment methods",
		Content:  "Add the new card before removing the old one so the subscription never lapses. Failed charges retry automatically for 7 days.",
		Category: domain.CategoryBilling,
	},
	{
		Title:    "Resetting your password",
		Content:  "Use the reset link on the sign-in page. The link expires after one hour; request a new one if it has gone stale.",
		Category: domain.CategoryAccount,
	},
	{
		Title:    "Unlocking a locked account",
		Content:  "Accounts lock after five failed sign-in attempts and unlock automatically after 15 minutes. Contact support to unlock sooner.",
		Category: domain.CategoryAccount,
	},
	{
		Title:    "Exporting your data",
		Content:  "Request a full export from account settings. Exports arrive by email as a zip archive, usually within an hour.",
		Category: domain.CategoryAccount,
	},
	{
		Title:    "Contacting support",
		Content:  "Include your account email and any error messages when opening a ticket. Screenshots shorten resolution time considerably.",
		Category: domain.CategoryGeneral,
	},
}

// StaticLookup scores the built-in articles by term overlap. Used when
// no Typesense node is configured, and in tests.
type StaticLookup struct {
	articles []article
}

func NewStaticLookup() *StaticLookup {
	return &StaticLookup{articles: builtinArticles}
}

func (l *StaticLookup) Lookup(_ context.Context, text string, category domain.Category) ([]domain.Snippet, error) {
	terms := queryTerms(text)
	if len(terms) == 0 {
		return nil, nil
	}

	var snippets []domain.Snippet
	for _, a := range l.articles {
		if a.Category != category {
			continue
		}
		score := overlapScore(terms, a.Title+" "+a.Content)
		if score < ScoreThreshold {
			continue
		}
		snippets = append(snippets, domain.Snippet{
			Title:    a.Title,
			Content:  a.Content,
			Category: string(a.Category),
			Score:    score,
		})
	}

	sort.SliceStable(snippets, func(i, j int) bool { return snippets[i].Score > snippets[j].Score })
	if len(snippets) > MaxSnippets {
		snippets = snippets[:MaxSnippets]
	}
	return snippets, nil
}

func queryTerms(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	terms := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,!?:;\"'()")
		if len(f) >= 4 {
			terms = append(terms, f)
		}
	}
	return terms
}

// overlapScore is the fraction of query terms found in the article,
// weighted up so a couple of strong matches clear the threshold.
func overlapScore(terms []string, body string) float64 {
	body = strings.ToLower(body)
	matched := 0
	for _, t := range terms {
		if strings.Contains(body, t) {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	score := float64(matched) / float64(len(terms)) * 2
	if score > 1 {
		score = 1
	}
	return score
}
