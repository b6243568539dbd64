package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hallway-chat/hallway/internal/config"
	"github.com/hallway-chat/hallway/internal/log"
	"github.com/hallway-chat/hallway/internal/service"
)

// HTTPHandler serves point-in-time snapshots of messages, users, and
// rooms. It never mutates session state.
type HTTPHandler struct {
	engine service.SessionEngine
	chat   config.ChatConfig
}

func NewHTTPHandler(engine service.SessionEngine, chat config.ChatConfig) *HTTPHandler {
	return &HTTPHandler{
		engine: engine,
		chat:   chat,
	}
}

func (h *HTTPHandler) GetMessages(c *gin.Context) {
	room := c.DefaultQuery("room", h.chat.DefaultRoom)

	messages, err := h.engine.Messages(c.Request.Context(), room)
	if err != nil {
		h.unavailable(c, err, "messages snapshot failed")
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *HTTPHandler) GetUsers(c *gin.Context) {
	users, err := h.engine.Users(c.Request.Context())
	if err != nil {
		h.unavailable(c, err, "users snapshot failed")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *HTTPHandler) GetRooms(c *gin.Context) {
	rooms, err := h.engine.Rooms(c.Request.Context())
	if err != nil {
		h.unavailable(c, err, "rooms snapshot failed")
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *HTTPHandler) unavailable(c *gin.Context, err error, msg string) {
	l := log.Ctx(c.Request.Context())
	l.Warn().Err(err).Msg(msg)
	c.Status(http.StatusServiceUnavailable)
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/messages", h.GetMessages)
	r.GET("/api/users", h.GetUsers)
	r.GET("/api/rooms", h.GetRooms)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hallway chat server is running")
	})
}
