package router

import (
	"github.com/gin-gonic/gin"

	"deskmind.app/support/internal/http/handler"
)

func FeedbackRouter(rg *gin.RouterGroup, h *handler.FeedbackHandler) {
	rg.POST("", h.Submit)
}
