package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/service"
	"deskmind.app/support/internal/store"
	"deskmind.app/support/internal/webhook"
)

var _ = Describe("QueryService", func() {
	var (
		ctx       context.Context
		mem       *store.Memory
		publisher *capturePublisher
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem = store.NewMemory()
		publisher = &capturePublisher{}
	})

	Describe("Submit", func() {
		Context("when the query resolves", func() {
			It("should persist the query and outcome and emit created and resolved", func() {
				svc := service.NewQueryService(mem, stubPipeline(domain.CategoryTechnical, domain.SentimentNeutral), publisher)

				result, err := svc.Submit(ctx, service.SubmitQueryRequest{
					Text:   "the sync agent keeps dying",
					UserID: "u-1",
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Query.ID).NotTo(BeEmpty())
				Expect(result.Outcome.Escalated).To(BeFalse())
				Expect(result.Outcome.ResponseText).To(Equal("stub answer"))

				stored, err := mem.GetQuery(ctx, result.Query.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(stored.Text).To(Equal("the sync agent keeps dying"))

				outcome, err := mem.GetOutcome(ctx, result.Query.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.Category).To(Equal(domain.CategoryTechnical))

				Expect(publisher.Types()).To(Equal([]domain.EventType{
					domain.EventQueryCreated,
					domain.EventQueryResolved,
				}))
			})

			It("should trim surrounding whitespace", func() {
				svc := service.NewQueryService(mem, stubPipeline(domain.CategoryGeneral, domain.SentimentNeutral), publisher)

				result, err := svc.Submit(ctx, service.SubmitQueryRequest{Text: "  hello  ", UserID: "u-1"})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Query.Text).To(Equal("hello"))
			})
		})

		Context("when the query escalates", func() {
			It("should emit created and escalated, never resolved", func() {
				svc := service.NewQueryService(mem, stubPipeline(domain.CategoryBilling, domain.SentimentAngry), publisher)

				result, err := svc.Submit(ctx, service.SubmitQueryRequest{
					Text:   "I was charged twice and nobody answers",
					UserID: "u-2",
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome.Escalated).To(BeTrue())

				Expect(publisher.Types()).To(Equal([]domain.EventType{
					domain.EventQueryCreated,
					domain.EventQueryEscalated,
				}))

				events := publisher.Events()
				Expect(events[1].Data).To(HaveKey("escalation_reason"))
			})
		})

		Context("when the text is empty", func() {
			It("should reject without touching the store", func() {
				svc := service.NewQueryService(mem, stubPipeline(domain.CategoryGeneral, domain.SentimentNeutral), publisher)

				_, err := svc.Submit(ctx, service.SubmitQueryRequest{Text: "   ", UserID: "u-1"})

				Expect(err).To(MatchError(service.ErrEmptyQuery))
				Expect(publisher.Events()).To(BeEmpty())
			})
		})

		Context("when persistence fails", func() {
			It("should surface a query persistence error", func() {
				broken := &mockQueryStore{
					createQueryFn: func(_ context.Context, _ *domain.Query) error {
						return errors.New("connection refused")
					},
				}
				svc := service.NewQueryService(broken, stubPipeline(domain.CategoryGeneral, domain.SentimentNeutral), publisher)

				_, err := svc.Submit(ctx, service.SubmitQueryRequest{Text: "hello", UserID: "u-1"})

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("persist query"))
				Expect(publisher.Events()).To(BeEmpty())
			})

			It("should surface an outcome persistence error", func() {
				broken := &mockQueryStore{
					saveOutcomeFn: func(_ context.Context, _ *domain.Outcome) error {
						return errors.New("connection refused")
					},
				}
				svc := service.NewQueryService(broken, stubPipeline(domain.CategoryGeneral, domain.SentimentNeutral), publisher)

				_, err := svc.Submit(ctx, service.SubmitQueryRequest{Text: "hello", UserID: "u-1"})

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("persist outcome"))
				Expect(publisher.Events()).To(BeEmpty())
			})
		})

		Context("when event publishing fails", func() {
			It("should still return the result", func() {
				publisher.err = errors.New("redis down")
				svc := service.NewQueryService(mem, stubPipeline(domain.CategoryGeneral, domain.SentimentNeutral), publisher)

				result, err := svc.Submit(ctx, service.SubmitQueryRequest{Text: "hello", UserID: "u-1"})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).NotTo(BeNil())
			})
		})
	})

	Describe("Get", func() {
		It("should return the query with its outcome", func() {
			svc := service.NewQueryService(mem, stubPipeline(domain.CategoryAccount, domain.SentimentNeutral), publisher)
			submitted, err := svc.Submit(ctx, service.SubmitQueryRequest{Text: "locked out", UserID: "u-3"})
			Expect(err).NotTo(HaveOccurred())

			result, err := svc.Get(ctx, submitted.Query.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Query.ID).To(Equal(submitted.Query.ID))
			Expect(result.Outcome).NotTo(BeNil())
			Expect(result.Outcome.Category).To(Equal(domain.CategoryAccount))
		})

		It("should return ErrQueryNotFound for unknown IDs", func() {
			svc := service.NewQueryService(mem, stubPipeline(domain.CategoryGeneral, domain.SentimentNeutral), publisher)

			_, err := svc.Get(ctx, "nope")

			Expect(err).To(MatchError(service.ErrQueryNotFound))
		})
	})

	Describe("end to end with the webhook subsystem", func() {
		It("should deliver only the subscribed event types", func() {
			var (
				mu       sync.Mutex
				received []string
			)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				received = append(received, r.Header.Get("X-Webhook-ID"))
				mu.Unlock()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			deliverer := webhook.NewDeliverer(time.Second)
			dispatcher := webhook.NewDispatcher(mem, mem, deliverer, webhook.DispatcherConfig{
				MaxAttempts: 3,
				BackoffBase: 10 * time.Millisecond,
			})
			bus := webhook.NewEventBus(mem, dispatcher)
			webhooks := webhook.NewService(mem, mem, deliverer)

			sub, err := webhooks.Register(ctx, server.URL, []domain.EventType{domain.EventQueryCreated})
			Expect(err).NotTo(HaveOccurred())

			svc := service.NewQueryService(mem, stubPipeline(domain.CategoryGeneral, domain.SentimentNeutral), bus)
			_, err = svc.Submit(ctx, service.SubmitQueryRequest{Text: "hello there", UserID: "u-4"})
			Expect(err).NotTo(HaveOccurred())

			dispatcher.Drain()

			// query.created matched; query.resolved had no subscriber.
			mu.Lock()
			defer mu.Unlock()
			Expect(received).To(HaveLen(1))

			attempts, err := webhooks.Deliveries(ctx, sub.ID, store.Page{})
			Expect(err).NotTo(HaveOccurred())
			Expect(attempts).To(HaveLen(1))
			Expect(attempts[0].EventType).To(Equal(domain.EventQueryCreated))
			Expect(attempts[0].Status).To(Equal(domain.DeliverySuccess))
		})
	})
})
