package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"deskmind.app/support/internal/http/dto"
	"deskmind.app/support/internal/store"
	"deskmind.app/support/internal/webhook"
)

const maxPageSize = 100

type WebhookHandler struct {
	webhooks *webhook.Service
}

func NewWebhookHandler(webhooks *webhook.Service) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

func (h *WebhookHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.webhooks.Register(ctx, req.URL, dto.ToEventTypes(req.Events))
	if err != nil {
		var verr *webhook.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to register webhook", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register webhook"})
		return
	}

	// The only response that carries the secret.
	c.JSON(http.StatusCreated, dto.ToWebhookResponse(sub, true))
}

func (h *WebhookHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var isActive *bool
	if raw, ok := c.GetQuery("is_active"); ok {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active must be a boolean"})
			return
		}
		isActive = &parsed
	}

	subs, err := h.webhooks.List(ctx, isActive, pageFromQuery(c))
	if err != nil {
		slog.ErrorContext(ctx, "failed to list webhooks", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list webhooks"})
		return
	}

	out := make([]*dto.WebhookResponse, len(subs))
	for i := range subs {
		out[i] = dto.ToWebhookResponse(&subs[i], false)
	}
	c.JSON(http.StatusOK, gin.H{"webhooks": out})
}

func (h *WebhookHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := subscriptionID(c)
	if !ok {
		return
	}
	sub, err := h.webhooks.Get(ctx, id)
	if err != nil {
		h.renderError(c, err, "failed to fetch webhook")
		return
	}
	c.JSON(http.StatusOK, dto.ToWebhookResponse(sub, false))
}

func (h *WebhookHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	var req dto.UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := webhook.UpdateParams{
		URL:      req.URL,
		IsActive: req.IsActive,
	}
	if req.Events != nil {
		params.Events = dto.ToEventTypes(req.Events)
	}

	sub, err := h.webhooks.Update(ctx, id, params)
	if err != nil {
		var verr *webhook.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		h.renderError(c, err, "failed to update webhook")
		return
	}
	c.JSON(http.StatusOK, dto.ToWebhookResponse(sub, false))
}

func (h *WebhookHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := subscriptionID(c)
	if !ok {
		return
	}
	if err := h.webhooks.Delete(ctx, id); err != nil {
		h.renderError(c, err, "failed to delete webhook")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WebhookHandler) Deliveries(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := subscriptionID(c)
	if !ok {
		return
	}
	attempts, err := h.webhooks.Deliveries(ctx, id, pageFromQuery(c))
	if err != nil {
		h.renderError(c, err, "failed to list deliveries")
		return
	}

	out := make([]dto.DeliveryResponse, len(attempts))
	for i, a := range attempts {
		out[i] = dto.ToDeliveryResponse(a)
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": out})
}

func (h *WebhookHandler) Test(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := subscriptionID(c)
	if !ok {
		return
	}
	result, err := h.webhooks.Test(ctx, id)
	if err != nil {
		h.renderError(c, err, "failed to test webhook")
		return
	}
	c.JSON(http.StatusOK, dto.ToTestWebhookResponse(result))
}

func (h *WebhookHandler) renderError(c *gin.Context, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "webhook not found"})
		return
	}
	slog.ErrorContext(c.Request.Context(), msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func subscriptionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("webhook_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook id"})
		return 0, false
	}
	return id, true
}

func pageFromQuery(c *gin.Context) store.Page {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > maxPageSize {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return store.Page{Limit: limit, Offset: offset}
}
