package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/savorly/backend/internal/middleware"
	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/types"
)

type ChatHandler struct {
	chatService *service.ChatService
	authService *service.AuthService
}

func NewChatHandler(chat *service.ChatService, auth *service.AuthService) *ChatHandler {
	return &ChatHandler{chatService: chat, authService: auth}
}

func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	chat := router.Group("/chat", middleware.AuthMiddleware(h.authService))
	chat.POST("", h.Send)
	chat.GET("/:session", h.History)
}

func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.chatService.Send(c.Request.Context(), req.SessionID, userID, req.Message)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	messages, err := h.chatService.History(c.Request.Context(), c.Param("session"), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": c.Param("session"), "messages": messages})
}
