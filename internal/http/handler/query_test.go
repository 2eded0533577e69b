package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/http/handler"
	"deskmind.app/support/internal/service"
)

type mockQueryService struct {
	submitFn func(ctx context.Context, req service.SubmitQueryRequest) (*service.QueryResult, error)
	getFn    func(ctx context.Context, queryID string) (*service.QueryResult, error)
}

func (m *mockQueryService) Submit(ctx context.Context, req service.SubmitQueryRequest) (*service.QueryResult, error) {
	return m.submitFn(ctx, req)
}

func (m *mockQueryService) Get(ctx context.Context, queryID string) (*service.QueryResult, error) {
	return m.getFn(ctx, queryID)
}

var _ = Describe("QueryHandler", func() {
	var (
		router *gin.Engine
		svc    *mockQueryService
	)

	sampleResult := func() *service.QueryResult {
		return &service.QueryResult{
			Query: &domain.Query{ID: "q-1", Text: "sync fails", SubmitterID: "u-1", CreatedAt: time.Now().UTC()},
			Outcome: &domain.Outcome{
				QueryID:      "q-1",
				Category:     domain.CategoryTechnical,
				Confidence:   0.9,
				Sentiment:    domain.SentimentNeutral,
				Priority:     6,
				ResponseText: "restart the agent",
			},
		}
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockQueryService{}
		h := handler.NewQueryHandler(svc)
		router.POST("/queries", h.Submit)
		router.GET("/queries/:query_id", h.Get)
	})

	Describe("Submit", func() {
		It("returns 201 with the processed outcome", func() {
			var captured service.SubmitQueryRequest
			svc.submitFn = func(_ context.Context, req service.SubmitQueryRequest) (*service.QueryResult, error) {
				captured = req
				return sampleResult(), nil
			}

			body, _ := json.Marshal(map[string]any{
				"text":    "sync fails",
				"user_id": "u-1",
				"context": map[string]any{"is_vip": true, "attempt_count": 2},
			})
			req := httptest.NewRequest(http.MethodPost, "/queries", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(captured.IsVIP).To(BeTrue())
			Expect(captured.AttemptCount).To(Equal(2))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["query_id"]).To(Equal("q-1"))
			Expect(resp["category"]).To(Equal("technical"))
			Expect(resp["priority"]).To(BeNumerically("==", 6))
			Expect(resp["response"]).To(Equal("restart the agent"))
		})

		It("returns 400 when the body fails validation", func() {
			req := httptest.NewRequest(http.MethodPost, "/queries", bytes.NewBufferString(`{"text":""}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when the service rejects empty text", func() {
			svc.submitFn = func(_ context.Context, _ service.SubmitQueryRequest) (*service.QueryResult, error) {
				return nil, service.ErrEmptyQuery
			}

			body, _ := json.Marshal(map[string]any{"text": "   ", "user_id": "u-1"})
			req := httptest.NewRequest(http.MethodPost, "/queries", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 on processing failure", func() {
			svc.submitFn = func(_ context.Context, _ service.SubmitQueryRequest) (*service.QueryResult, error) {
				return nil, errors.New("persist outcome: connection refused")
			}

			body, _ := json.Marshal(map[string]any{"text": "hello", "user_id": "u-1"})
			req := httptest.NewRequest(http.MethodPost, "/queries", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Get", func() {
		It("returns 200 with the stored result", func() {
			svc.getFn = func(_ context.Context, queryID string) (*service.QueryResult, error) {
				Expect(queryID).To(Equal("q-1"))
				return sampleResult(), nil
			}

			req := httptest.NewRequest(http.MethodGet, "/queries/q-1", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("returns 404 for an unknown query", func() {
			svc.getFn = func(_ context.Context, _ string) (*service.QueryResult, error) {
				return nil, service.ErrQueryNotFound
			}

			req := httptest.NewRequest(http.MethodGet, "/queries/missing", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
