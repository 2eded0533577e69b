package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/service"
	"deskmind.app/support/internal/store"
)

var _ = Describe("FeedbackService", func() {
	var (
		ctx       context.Context
		mem       *store.Memory
		publisher *capturePublisher
		queryID   string
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem = store.NewMemory()
		publisher = &capturePublisher{}

		queries := service.NewQueryService(mem, stubPipeline(domain.CategoryBilling, domain.SentimentNeutral), &capturePublisher{})
		result, err := queries.Submit(ctx, service.SubmitQueryRequest{Text: "double charge?", UserID: "u-1"})
		Expect(err).NotTo(HaveOccurred())
		queryID = result.Query.ID
	})

	Describe("Submit", func() {
		Context("when the feedback is valid", func() {
			It("should persist it with the outcome's category and emit feedback.received", func() {
				svc := service.NewFeedbackService(mem, publisher)

				f, err := svc.Submit(ctx, service.SubmitFeedbackRequest{
					QueryID: queryID,
					UserID:  "u-1",
					Rating:  4,
					Text:    "quick answer, thanks",
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(f.ID).NotTo(BeZero())
				Expect(f.Category).To(Equal(domain.CategoryBilling))
				Expect(f.Rating).To(Equal(4))

				types := publisher.Types()
				Expect(types).To(Equal([]domain.EventType{domain.EventFeedbackReceived}))

				events := publisher.Events()
				Expect(events[0].Data["query_id"]).To(Equal(queryID))
				Expect(events[0].Data["rating"]).To(Equal(4))
			})
		})

		Context("when the rating is out of range", func() {
			It("should reject zero and six", func() {
				svc := service.NewFeedbackService(mem, publisher)

				for _, rating := range []int{0, 6, -1} {
					_, err := svc.Submit(ctx, service.SubmitFeedbackRequest{
						QueryID: queryID,
						UserID:  "u-1",
						Rating:  rating,
					})
					Expect(err).To(MatchError(service.ErrInvalidRating))
				}
				Expect(publisher.Events()).To(BeEmpty())
			})
		})

		Context("when the query does not exist", func() {
			It("should return ErrQueryNotFound", func() {
				svc := service.NewFeedbackService(mem, publisher)

				_, err := svc.Submit(ctx, service.SubmitFeedbackRequest{
					QueryID: "missing",
					UserID:  "u-1",
					Rating:  3,
				})

				Expect(err).To(MatchError(service.ErrQueryNotFound))
			})
		})

		Context("when the query has no outcome yet", func() {
			It("should default the category to general", func() {
				q := &domain.Query{ID: "q-pending", Text: "still processing", SubmitterID: "u-2"}
				Expect(mem.CreateQuery(ctx, q)).To(Succeed())

				svc := service.NewFeedbackService(mem, publisher)
				f, err := svc.Submit(ctx, service.SubmitFeedbackRequest{
					QueryID: "q-pending",
					UserID:  "u-2",
					Rating:  2,
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(f.Category).To(Equal(domain.CategoryGeneral))
			})
		})

		Context("when persistence fails", func() {
			It("should propagate the error and emit nothing", func() {
				broken := &mockQueryStore{
					getQueryFn: func(_ context.Context, id string) (*domain.Query, error) {
						return &domain.Query{ID: id}, nil
					},
					getOutcomeFn: func(_ context.Context, _ string) (*domain.Outcome, error) {
						return nil, store.ErrNotFound
					},
					createFeedbackFn: func(_ context.Context, _ *domain.Feedback) error {
						return errors.New("disk full")
					},
				}
				svc := service.NewFeedbackService(broken, publisher)

				_, err := svc.Submit(ctx, service.SubmitFeedbackRequest{
					QueryID: "q-1",
					UserID:  "u-1",
					Rating:  5,
				})

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("persist feedback"))
				Expect(publisher.Events()).To(BeEmpty())
			})
		})
	})
})
