package pipeline_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/pipeline"
	"deskmind.app/support/internal/policy"
)

var _ = Describe("Pipeline", func() {
	var (
		ctx        context.Context
		classifier *pipeline.MockClassifier
		sentiment  *pipeline.MockSentimentAnalyzer
		kb         *pipeline.MockKnowledgeBase
		general    *pipeline.MockResponder
		router     *pipeline.Router
	)

	newQuery := func(text string) *domain.Query {
		return &domain.Query{
			ID:          "q-1",
			Text:        text,
			SubmitterID: "u-1",
			CreatedAt:   time.Now().UTC().Add(-time.Second),
		}
	}

	build := func() *pipeline.Pipeline {
		return pipeline.New(classifier, sentiment, kb, router,
			policy.NewScorer(policy.DefaultWeights()),
			policy.NewEscalationPolicy(policy.DefaultEscalationKeywords()))
	}

	BeforeEach(func() {
		ctx = context.Background()

		classifier = &pipeline.MockClassifier{
			ClassifyFunc: func(_ context.Context, _ string) (domain.Classification, error) {
				return domain.Classification{Category: domain.CategoryTechnical, Confidence: 0.9}, nil
			},
		}
		sentiment = &pipeline.MockSentimentAnalyzer{
			AnalyzeFunc: func(_ context.Context, _ string) (domain.SentimentResult, error) {
				return domain.SentimentResult{Label: domain.SentimentNeutral, Intensity: 0.2}, nil
			},
		}
		kb = &pipeline.MockKnowledgeBase{
			LookupFunc: func(_ context.Context, _ string, _ domain.Category) ([]domain.Snippet, error) {
				return nil, nil
			},
		}
		general = &pipeline.MockResponder{
			RespondFunc: func(_ context.Context, _ *domain.Query, _ domain.Category, _ []domain.Snippet) (string, error) {
				return "general answer", nil
			},
		}
		router = pipeline.NewRouter(general)
	})

	Describe("Process", func() {
		Context("when every stage succeeds", func() {
			It("should produce a complete outcome", func() {
				kb.LookupFunc = func(_ context.Context, _ string, _ domain.Category) ([]domain.Snippet, error) {
					return []domain.Snippet{{Title: "Resetting sync", Content: "...", Score: 0.8}}, nil
				}
				tech := &pipeline.MockResponder{
					RespondFunc: func(_ context.Context, _ *domain.Query, _ domain.Category, snippets []domain.Snippet) (string, error) {
						Expect(snippets).To(HaveLen(1))
						return "try resetting the sync agent", nil
					},
				}
				router.Register(domain.CategoryTechnical, tech)

				outcome, err := build().Process(ctx, newQuery("sync keeps failing"))

				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.QueryID).To(Equal("q-1"))
				Expect(outcome.Category).To(Equal(domain.CategoryTechnical))
				Expect(outcome.Confidence).To(BeNumerically("~", 0.9, 0.001))
				Expect(outcome.Sentiment).To(Equal(domain.SentimentNeutral))
				Expect(outcome.Priority).To(Equal(6)) // base 5 + technical 1
				Expect(outcome.Escalated).To(BeFalse())
				Expect(outcome.ResponseText).To(Equal("try resetting the sync agent"))
				Expect(outcome.Snippets).To(HaveLen(1))
				Expect(outcome.ResolutionTime).To(BeNumerically(">", 0))
			})
		})

		Context("when the classifier fails", func() {
			It("should fall back to general with zero confidence and still answer", func() {
				classifier.ClassifyFunc = func(_ context.Context, _ string) (domain.Classification, error) {
					return domain.Classification{}, errors.New("model unavailable")
				}

				outcome, err := build().Process(ctx, newQuery("how do I export data?"))

				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.Category).To(Equal(domain.CategoryGeneral))
				Expect(outcome.Confidence).To(BeZero())
				Expect(outcome.ResponseText).To(Equal("general answer"))
			})
		})

		Context("when sentiment analysis fails", func() {
			It("should assume neutral", func() {
				sentiment.AnalyzeFunc = func(_ context.Context, _ string) (domain.SentimentResult, error) {
					return domain.SentimentResult{}, errors.New("model unavailable")
				}

				outcome, err := build().Process(ctx, newQuery("where is my invoice?"))

				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.Sentiment).To(Equal(domain.SentimentNeutral))
				Expect(outcome.Intensity).To(BeZero())
				Expect(outcome.Escalated).To(BeFalse())
			})
		})

		Context("when the knowledge base fails", func() {
			It("should answer without snippets", func() {
				kb.LookupFunc = func(_ context.Context, _ string, _ domain.Category) ([]domain.Snippet, error) {
					return nil, errors.New("search down")
				}

				outcome, err := build().Process(ctx, newQuery("sync keeps failing"))

				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.Snippets).To(BeEmpty())
				Expect(outcome.ResponseText).To(Equal("general answer"))
			})
		})

		Context("when the responder fails", func() {
			It("should use the fallback response", func() {
				general.RespondFunc = func(_ context.Context, _ *domain.Query, _ domain.Category, _ []domain.Snippet) (string, error) {
					return "", errors.New("completion failed")
				}

				outcome, err := build().Process(ctx, newQuery("sync keeps failing"))

				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.ResponseText).To(ContainSubstring("a support agent will follow up"))
			})
		})

		Context("when a category has no registered responder", func() {
			It("should route to the general responder", func() {
				classifier.ClassifyFunc = func(_ context.Context, _ string) (domain.Classification, error) {
					return domain.Classification{Category: domain.CategoryBilling, Confidence: 0.7}, nil
				}

				outcome, err := build().Process(ctx, newQuery("why was I charged twice?"))

				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.Category).To(Equal(domain.CategoryBilling))
				Expect(outcome.ResponseText).To(Equal("general answer"))
			})
		})

		Context("when the query escalates", func() {
			It("should skip lookup and response generation", func() {
				sentiment.AnalyzeFunc = func(_ context.Context, _ string) (domain.SentimentResult, error) {
					return domain.SentimentResult{Label: domain.SentimentAngry, Intensity: 0.9}, nil
				}
				kb.LookupFunc = func(_ context.Context, _ string, _ domain.Category) ([]domain.Snippet, error) {
					Fail("knowledge base must not be consulted for escalated queries")
					return nil, nil
				}
				general.RespondFunc = func(_ context.Context, _ *domain.Query, _ domain.Category, _ []domain.Snippet) (string, error) {
					Fail("responder must not run for escalated queries")
					return "", nil
				}

				outcome, err := build().Process(ctx, newQuery("EVERYTHING IS BROKEN"))

				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.Escalated).To(BeTrue())
				Expect(outcome.EscalationReason).To(Equal(policy.ReasonAngry))
				Expect(outcome.Snippets).To(BeEmpty())
				Expect(outcome.ResponseText).To(ContainSubstring("sincerely apologize"))
			})

			It("should tune the message to negative sentiment", func() {
				sentiment.AnalyzeFunc = func(_ context.Context, _ string) (domain.SentimentResult, error) {
					return domain.SentimentResult{Label: domain.SentimentNegative, Intensity: 0.6}, nil
				}

				outcome, err := build().Process(ctx, newQuery("I want to escalate this issue"))

				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.Escalated).To(BeTrue())
				Expect(outcome.EscalationReason).To(Equal(policy.ReasonKeyword))
				Expect(outcome.ResponseText).To(ContainSubstring("this has been frustrating"))
			})

			It("should use the generic message for calm escalations", func() {
				outcome, err := build().Process(ctx, newQuery("please escalate this to someone"))

				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.Escalated).To(BeTrue())
				Expect(outcome.ResponseText).To(ContainSubstring("escalated to our support team"))
			})
		})

		Context("when the context is cancelled", func() {
			It("should return the context error", func() {
				cancelled, cancel := context.WithCancel(ctx)
				cancel()

				outcome, err := build().Process(cancelled, newQuery("anything"))

				Expect(err).To(MatchError(context.Canceled))
				Expect(outcome).To(BeNil())
			})
		})
	})
})
