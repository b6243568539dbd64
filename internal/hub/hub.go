package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hallway-chat/hallway/internal/config"
	"github.com/hallway-chat/hallway/internal/log"
)

// Hub is the transport adapter: it tracks connected clients and their
// room memberships and fans out encoded events to one connection, to a
// room, or to every connection. Delivery is fire-and-forget; a client
// with a full send buffer is dropped, never retried.
type Hub struct {
	clients    map[string]*Client            // connID -> client
	rooms      map[string]map[string]*Client // room -> connID -> client
	register   chan *Client
	unregister chan *Client
	emit       chan *emission
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

// emission is one outbound dispatch instruction. Exactly one of the
// targets applies: All, a ConnID, or a Room (with optional Exclude).
type emission struct {
	All     bool
	ConnID  string
	Room    string
	Exclude string
	Data    []byte
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		emit:       make(chan *emission, 256),
		config:     cfg,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldConnID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for room, members := range h.rooms {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.rooms, room)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldConnID, client.ID).Msg("client unregistered")

		case msg := <-h.emit:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *emission) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch {
	case msg.All:
		for _, client := range h.clients {
			h.send(client, msg.Data)
		}
	case msg.ConnID != "":
		if client, ok := h.clients[msg.ConnID]; ok {
			h.send(client, msg.Data)
		}
	default:
		for connID, client := range h.rooms[msg.Room] {
			if connID == msg.Exclude {
				continue
			}
			h.send(client, msg.Data)
		}
	}
}

func (h *Hub) send(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		go h.removeClient(client)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join adds a connection to a room's delivery set.
func (h *Hub) Join(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][connID] = client
	l := log.L()
	l.Info().Str(log.FieldConnID, connID).Str(log.FieldRoom, room).Msg("client joined room")
}

// ToConn sends an event to a single connection.
func (h *Hub) ToConn(connID string, event interface{}) {
	h.enqueue(&emission{ConnID: connID}, event)
}

// ToRoom sends an event to every member of a room, optionally excluding
// one connection id.
func (h *Hub) ToRoom(room string, event interface{}, exclude string) {
	h.enqueue(&emission{Room: room, Exclude: exclude}, event)
}

// ToAll sends an event to every connected client.
func (h *Hub) ToAll(event interface{}) {
	h.enqueue(&emission{All: true}, event)
}

func (h *Hub) enqueue(msg *emission, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Msg("failed to encode outbound event")
		return
	}
	msg.Data = data
	h.emit <- msg
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
