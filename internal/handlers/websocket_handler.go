package handlers

import (
	"fundrouter/internal/services"

	"github.com/gin-gonic/gin"
)

// WebSocketHandler upgrades GET /ws/events connections and hands them to
// the push service.
type WebSocketHandler struct {
	push *services.PushService
}

func NewWebSocketHandler(push *services.PushService) *WebSocketHandler {
	return &WebSocketHandler{push: push}
}

func (h *WebSocketHandler) EventsHandler(c *gin.Context) {
	h.push.HandleConnection(c.Writer, c.Request)
}
