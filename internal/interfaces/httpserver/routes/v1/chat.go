package v1

import (
	"github.com/gin-gonic/gin"

	"chatdeck/services/inbox-sync/internal/interfaces/httpserver/handlers"
)

// RegisterChatRoutes registers the conversation sync routes.
func RegisterChatRoutes(router gin.IRoutes, handler *handlers.ChatHandler) {
	// Conversation endpoints
	router.GET("/conversations/:id", handler.GetConversation)
	router.POST("/conversations/:id/messages", handler.SendMessage)
	router.POST("/conversations/:id/cancel", handler.CancelStream)

	// Capability and poller control endpoints
	router.GET("/capability", handler.GetCapability)
	router.POST("/visibility", handler.SetVisibility)
}
