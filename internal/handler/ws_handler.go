package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hallway-chat/hallway/internal/config"
	"github.com/hallway-chat/hallway/internal/domain"
	"github.com/hallway-chat/hallway/internal/hub"
	"github.com/hallway-chat/hallway/internal/log"
	"github.com/hallway-chat/hallway/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades connections and decodes inbound events at the
// boundary before they reach the session engine. Malformed or
// incomplete events are dropped, never answered: the session must
// survive client and network inconsistency.
type WSHandler struct {
	hub    *hub.Hub
	engine service.SessionEngine
	wsCfg  config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, engine service.SessionEngine, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:    h,
		engine: engine,
		wsCfg:  wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.dispatchEvent, h.engine.HandleDisconnect)
}

// dispatchEvent decodes one inbound frame and routes it to the engine.
func (h *WSHandler) dispatchEvent(connID string, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.drop(connID, "undecodable frame")
		return
	}

	switch env.Type {
	case domain.EventJoin:
		var ev domain.JoinEvent
		if json.Unmarshal(data, &ev) != nil || ev.Username == "" {
			h.drop(connID, env.Type)
			return
		}
		h.engine.HandleJoin(connID, ev)

	case domain.EventSendMessage:
		var ev domain.SendMessageEvent
		if json.Unmarshal(data, &ev) != nil {
			h.drop(connID, env.Type)
			return
		}
		h.engine.HandleSendMessage(connID, ev)

	case domain.EventTyping:
		var ev domain.TypingEvent
		if json.Unmarshal(data, &ev) != nil {
			h.drop(connID, env.Type)
			return
		}
		h.engine.HandleTyping(connID, ev)

	case domain.EventPrivateMessage:
		var ev domain.PrivateMessageEvent
		if json.Unmarshal(data, &ev) != nil || ev.ToUsername == "" {
			h.drop(connID, env.Type)
			return
		}
		h.engine.HandlePrivateMessage(connID, ev)

	case domain.EventJoinRoom:
		var ev domain.JoinRoomEvent
		if json.Unmarshal(data, &ev) != nil || ev.Room == "" {
			h.drop(connID, env.Type)
			return
		}
		h.engine.HandleJoinRoom(connID, ev)

	case domain.EventReadMessage:
		var ev domain.ReadMessageEvent
		if json.Unmarshal(data, &ev) != nil || ev.MessageID == "" {
			h.drop(connID, env.Type)
			return
		}
		h.engine.HandleReadMessage(connID, ev)

	case domain.EventReaction:
		var ev domain.ReactionEvent
		if json.Unmarshal(data, &ev) != nil || ev.MessageID == "" {
			h.drop(connID, env.Type)
			return
		}
		h.engine.HandleReaction(connID, ev)

	case domain.EventSearchMessages:
		var ev domain.SearchMessagesEvent
		if json.Unmarshal(data, &ev) != nil {
			h.drop(connID, env.Type)
			return
		}
		h.engine.HandleSearchMessages(connID, ev)

	case domain.EventLoadMore:
		var ev domain.LoadMoreEvent
		if json.Unmarshal(data, &ev) != nil {
			h.drop(connID, env.Type)
			return
		}
		h.engine.HandleLoadMore(connID, ev)

	default:
		h.drop(connID, env.Type)
	}
}

func (h *WSHandler) drop(connID, what string) {
	l := log.L()
	l.Debug().Str(log.FieldConnID, connID).Str("event", what).Msg("dropped inbound event")
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}
