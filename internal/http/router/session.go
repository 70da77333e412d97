package router

import (
	"github.com/gin-gonic/gin"

	"github.com/robbykap/github-dashboard/internal/http/handler"
)

func SessionRouter(router *gin.RouterGroup, handler *handler.SessionHandler) {
	router.POST("", handler.Create)
	router.POST("/:id/messages", handler.SendMessage)
	router.POST("/:id/submit", handler.Submit)
	router.POST("/:id/revise", handler.Revise)
	router.DELETE("/:id", handler.Delete)
}
