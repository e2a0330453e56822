package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"notify-gateway/internal/websocket"
)

type WSHandler struct {
	hub *websocket.Hub
}

func NewWSHandler(hub *websocket.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleWebSocket godoc
// @Summary WebSocket connection
// @Description Establish a WebSocket connection for real-time notifications. The client must send {"type":"auth","token":"..."} within the auth deadline or the connection is closed.
// @Tags websocket
// @Success 101 "Switching Protocols - WebSocket connection established"
// @Failure 400 {object} map[string]interface{} "Bad request - upgrade failed"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	slog.Debug("websocket connection request", "remote", c.ClientIP())
	h.hub.ServeWS(c.Writer, c.Request)
}
