package router

import (
	"github.com/gin-gonic/gin"

	"deskmind.app/support/internal/http/handler"
)

func QueryRouter(rg *gin.RouterGroup, h *handler.QueryHandler) {
	rg.POST("", h.Submit)
	rg.GET("/:query_id", h.Get)
}
