package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"deskmind.app/support/internal/http/handler"
	"deskmind.app/support/internal/store"
	"deskmind.app/support/internal/webhook"
)

var _ = Describe("WebhookHandler", func() {
	var (
		router *gin.Engine
		mem    *store.Memory
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		mem = store.NewMemory()
		svc := webhook.NewService(mem, mem, webhook.NewDeliverer(time.Second))
		h := handler.NewWebhookHandler(svc)

		router = gin.New()
		router.POST("/webhooks", h.Register)
		router.GET("/webhooks", h.List)
		router.GET("/webhooks/:webhook_id", h.Get)
		router.PATCH("/webhooks/:webhook_id", h.Update)
		router.DELETE("/webhooks/:webhook_id", h.Delete)
		router.GET("/webhooks/:webhook_id/deliveries", h.Deliveries)
		router.POST("/webhooks/:webhook_id/test", h.Test)
	})

	register := func(url string, events ...string) map[string]any {
		body, _ := json.Marshal(map[string]any{"url": url, "events": events})
		req := httptest.NewRequest(http.MethodPost, "/webhooks", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		return resp
	}

	Describe("Register", func() {
		It("returns 201 with the secret included once", func() {
			resp := register("https://example.com/hooks", "query.created")

			Expect(resp["secret"]).To(HaveLen(64))
			Expect(resp["is_active"]).To(BeTrue())
			Expect(resp["events"]).To(ConsistOf("query.created"))

			// Fetching the same webhook must not reveal the secret again.
			req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/webhooks/%v", resp["id"]), nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var fetched map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &fetched)).To(Succeed())
			Expect(fetched).NotTo(HaveKey("secret"))
		})

		It("returns 400 for an unknown event type", func() {
			body, _ := json.Marshal(map[string]any{
				"url":    "https://example.com/hooks",
				"events": []string{"query.deleted"},
			})
			req := httptest.NewRequest(http.MethodPost, "/webhooks", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when events are missing", func() {
			body, _ := json.Marshal(map[string]any{"url": "https://example.com/hooks"})
			req := httptest.NewRequest(http.MethodPost, "/webhooks", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("List", func() {
		It("filters by is_active", func() {
			register("https://example.com/a", "query.created")
			resp := register("https://example.com/b", "query.created")

			body, _ := json.Marshal(map[string]any{"is_active": false})
			req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/webhooks/%v", resp["id"]), bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))

			req = httptest.NewRequest(http.MethodGet, "/webhooks?is_active=true", nil)
			w = httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var listResp struct {
				Webhooks []map[string]any `json:"webhooks"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &listResp)).To(Succeed())
			Expect(listResp.Webhooks).To(HaveLen(1))
		})

		It("rejects a non-boolean is_active", func() {
			req := httptest.NewRequest(http.MethodGet, "/webhooks?is_active=maybe", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Update", func() {
		It("applies partial updates", func() {
			resp := register("https://example.com/old", "query.created")

			body, _ := json.Marshal(map[string]any{"url": "https://example.com/new"})
			req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/webhooks/%v", resp["id"]), bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var updated map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &updated)).To(Succeed())
			Expect(updated["url"]).To(Equal("https://example.com/new"))
			Expect(updated["events"]).To(ConsistOf("query.created"))
			Expect(updated).NotTo(HaveKey("secret"))
		})

		It("returns 404 for an unknown webhook", func() {
			body, _ := json.Marshal(map[string]any{"is_active": false})
			req := httptest.NewRequest(http.MethodPatch, "/webhooks/12345", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Delete", func() {
		It("returns 204 and removes the webhook", func() {
			resp := register("https://example.com/h", "query.created")

			req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/webhooks/%v", resp["id"]), nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusNoContent))

			req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/webhooks/%v", resp["id"]), nil)
			w = httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a malformed id", func() {
			req := httptest.NewRequest(http.MethodDelete, "/webhooks/not-a-number", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Test", func() {
		It("performs a synchronous test delivery", func() {
			endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer endpoint.Close()

			resp := register(endpoint.URL, "query.created")

			req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/webhooks/%v/test", resp["id"]), nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var testResp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &testResp)).To(Succeed())
			Expect(testResp["success"]).To(BeTrue())
			Expect(testResp["http_status"]).To(BeNumerically("==", 200))

			// The test shows up in the delivery log.
			req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/webhooks/%v/deliveries", resp["id"]), nil)
			w = httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var deliveries struct {
				Deliveries []map[string]any `json:"deliveries"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &deliveries)).To(Succeed())
			Expect(deliveries.Deliveries).To(HaveLen(1))
			Expect(deliveries.Deliveries[0]["event_type"]).To(Equal("webhook.test"))
		})
	})
})
