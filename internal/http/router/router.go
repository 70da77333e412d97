package router

import (
	"github.com/gin-gonic/gin"

	"github.com/robbykap/github-dashboard/internal/http/handler"
	"github.com/robbykap/github-dashboard/internal/session"
)

type Services struct {
	Registry  *session.Registry
	Summaries handler.SummaryService
	Files     handler.FileLister
}

func SetupRoutes(router *gin.Engine, services Services) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		sessionHandler := handler.NewSessionHandler(services.Registry)
		SessionRouter(v1.Group("/sessions"), sessionHandler)

		summaryHandler := handler.NewSummaryHandler(services.Summaries, services.Files)
		SummaryRouter(v1, summaryHandler)
	}
}
