package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"deskmind.app/support/internal/http/dto"
	"deskmind.app/support/internal/service"
)

type QueryHandler struct {
	queryService service.QueryService
}

func NewQueryHandler(queryService service.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

func (h *QueryHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SubmitQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sreq := service.SubmitQueryRequest{
		Text:   req.Text,
		UserID: req.UserID,
	}
	if req.Context != nil {
		sreq.IsRepeat = req.Context.IsRepeat
		sreq.IsVIP = req.Context.IsVIP
		sreq.AttemptCount = req.Context.AttemptCount
	}

	result, err := h.queryService.Submit(ctx, sreq)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query text is empty"})
			return
		}
		slog.ErrorContext(ctx, "query processing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process query"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToQueryResponse(result))
}

func (h *QueryHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.queryService.Get(ctx, c.Param("query_id"))
	if err != nil {
		if errors.Is(err, service.ErrQueryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "query not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to fetch query", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch query"})
		return
	}

	c.JSON(http.StatusOK, dto.ToQueryResponse(result))
}
