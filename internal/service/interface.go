package service

import (
	"context"

	"github.com/hallway-chat/hallway/internal/domain"
)

// Dispatcher is the transport fan-out the engine emits through. The hub
// implements it; tests substitute a recorder.
type Dispatcher interface {
	// Join adds a connection to a room's delivery set.
	Join(connID, room string)
	// ToConn sends an event to a single connection.
	ToConn(connID string, event interface{})
	// ToRoom sends an event to every member of a room, optionally
	// excluding one connection id.
	ToRoom(room string, event interface{}, exclude string)
	// ToAll sends an event to every connected client.
	ToAll(event interface{})
}

// SessionEngine orchestrates session state in response to inbound
// events. Handle methods enqueue work onto the engine's single
// goroutine and return immediately; events from one connection are
// applied in the order they were handed over. Out-of-precondition
// events are absorbed silently.
type SessionEngine interface {
	HandleJoin(connID string, ev domain.JoinEvent)
	HandleSendMessage(connID string, ev domain.SendMessageEvent)
	HandleTyping(connID string, ev domain.TypingEvent)
	HandlePrivateMessage(connID string, ev domain.PrivateMessageEvent)
	HandleJoinRoom(connID string, ev domain.JoinRoomEvent)
	HandleReadMessage(connID string, ev domain.ReadMessageEvent)
	HandleReaction(connID string, ev domain.ReactionEvent)
	HandleSearchMessages(connID string, ev domain.SearchMessagesEvent)
	HandleLoadMore(connID string, ev domain.LoadMoreEvent)
	HandleDisconnect(connID string)

	// Point-in-time snapshots for the read-only query surface.
	Messages(ctx context.Context, room string) ([]*domain.Message, error)
	Users(ctx context.Context) ([]domain.UserEntry, error)
	Rooms(ctx context.Context) ([]string, error)

	// Run processes enqueued events until ctx is cancelled.
	Run(ctx context.Context)
}
