package router

import (
	"github.com/gin-gonic/gin"

	"deskmind.app/support/internal/http/handler"
)

func WebhookRouter(rg *gin.RouterGroup, h *handler.WebhookHandler) {
	rg.POST("", h.Register)
	rg.GET("", h.List)
	rg.GET("/:webhook_id", h.Get)
	rg.PATCH("/:webhook_id", h.Update)
	rg.DELETE("/:webhook_id", h.Delete)
	rg.GET("/:webhook_id/deliveries", h.Deliveries)
	rg.POST("/:webhook_id/test", h.Test)
}
