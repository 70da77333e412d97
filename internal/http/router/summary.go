package router

import (
	"github.com/gin-gonic/gin"

	"github.com/robbykap/github-dashboard/internal/http/handler"
)

func SummaryRouter(router *gin.RouterGroup, handler *handler.SummaryHandler) {
	router.POST("/summarize", handler.Summarize)
	router.POST("/prioritize", handler.Prioritize)
}
