package router

import (
	"github.com/gin-gonic/gin"

	"deskmind.app/support/internal/http/handler"
	"deskmind.app/support/internal/service"
	"deskmind.app/support/internal/webhook"
)

func SetupRoutes(router *gin.Engine, queries service.QueryService, feedback service.FeedbackService, webhooks *webhook.Service) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		queryHandler := handler.NewQueryHandler(queries)
		QueryRouter(v1.Group("/queries"), queryHandler)

		feedbackHandler := handler.NewFeedbackHandler(feedback)
		FeedbackRouter(v1.Group("/feedback"), feedbackHandler)

		webhookHandler := handler.NewWebhookHandler(webhooks)
		WebhookRouter(v1.Group("/webhooks"), webhookHandler)
	}
}
