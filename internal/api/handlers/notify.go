package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"notify-gateway/internal/notification"
	"notify-gateway/internal/websocket"
	"notify-gateway/pkg/response"
)

type NotifyHandler struct {
	dispatcher websocket.Dispatcher
	hub        *websocket.Hub
}

func NewNotifyHandler(dispatcher websocket.Dispatcher, hub *websocket.Hub) *NotifyHandler {
	return &NotifyHandler{
		dispatcher: dispatcher,
		hub:        hub,
	}
}

type notifyRequest struct {
	UserID  string          `json:"userId" binding:"required"`
	Type    string          `json:"type" binding:"required"`
	Message string          `json:"message" binding:"required"`
	Data    json.RawMessage `json:"data"`
}

type broadcastRequest struct {
	// UserIDs lists the recipients; empty means every connected user.
	UserIDs []string        `json:"userIds"`
	Type    string          `json:"type" binding:"required"`
	Message string          `json:"message" binding:"required"`
	Data    json.RawMessage `json:"data"`
}

// Notify godoc
// @Summary Send a notification to a user
// @Description Queue a notification for delivery to all of the user's live connections. Delivery is fire-and-forget; an offline user is not an error.
// @Tags internal
// @Accept json
// @Produce json
// @Param request body notifyRequest true "Notification"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Security BearerAuth
// @Router /internal/notify [post]
func (h *NotifyHandler) Notify(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.JSON(c, http.StatusBadRequest, response.CodeParamInvalid, nil)
		return
	}

	if !notification.Type(req.Type).IsValid() {
		response.JSON(c, http.StatusBadRequest, response.CodeUnknownType, gin.H{"type": req.Type})
		return
	}

	n := notification.New(notification.Type(req.Type), req.UserID, req.Message, req.Data)
	h.dispatcher.Notify(c.Request.Context(), n)

	response.JSON(c, http.StatusAccepted, response.CodeAccepted, nil)
}

// Broadcast godoc
// @Summary Broadcast a notification to a set of users
// @Description Queue a notification for delivery to each listed user, or to every connected user when userIds is empty.
// @Tags internal
// @Accept json
// @Produce json
// @Param request body broadcastRequest true "Notification"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Security BearerAuth
// @Router /internal/broadcast [post]
func (h *NotifyHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.JSON(c, http.StatusBadRequest, response.CodeParamInvalid, nil)
		return
	}

	if !notification.Type(req.Type).IsValid() {
		response.JSON(c, http.StatusBadRequest, response.CodeUnknownType, gin.H{"type": req.Type})
		return
	}

	n := notification.New(notification.Type(req.Type), "", req.Message, req.Data)
	if len(req.UserIDs) > 0 {
		h.dispatcher.Broadcast(c.Request.Context(), req.UserIDs, n)
	} else {
		h.dispatcher.BroadcastAll(c.Request.Context(), n)
	}

	response.JSON(c, http.StatusAccepted, response.CodeAccepted, nil)
}

// Online godoc
// @Summary List users connected to this instance
// @Tags internal
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Security BearerAuth
// @Router /internal/online [get]
func (h *NotifyHandler) Online(c *gin.Context) {
	users := h.hub.OnlineUsers()
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}
