package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hallway-chat/hallway/internal/audit"
	"github.com/hallway-chat/hallway/internal/config"
	"github.com/hallway-chat/hallway/internal/domain"
	"github.com/hallway-chat/hallway/internal/id"
	"github.com/hallway-chat/hallway/internal/state"
)

// previewLimit caps the message text echoed in new-message notifications.
const previewLimit = 20

type sessionEngine struct {
	st    *state.State
	hub   Dispatcher
	ids   *id.Generator
	cfg   config.ChatConfig
	tasks chan func()
}

// NewEngine builds the session engine around an explicitly constructed
// State. The default room is registered up front so it appears in the
// room list before anyone joins it.
func NewEngine(st *state.State, d Dispatcher, ids *id.Generator, cfg config.ChatConfig) SessionEngine {
	st.Rooms.Ensure(cfg.DefaultRoom)
	return &sessionEngine{
		st:    st,
		hub:   d,
		ids:   ids,
		cfg:   cfg,
		tasks: make(chan func(), 256),
	}
}

// Run applies enqueued events one at a time. This is the only goroutine
// that touches State, which is what lets the state structures go
// without locks.
func (e *sessionEngine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-e.tasks:
			fn()
		}
	}
}

func (e *sessionEngine) dispatch(fn func()) {
	e.tasks <- fn
}

// Inbound event handlers. Each enqueues the actual mutation so that the
// read pumps never block mid-state-change.

func (e *sessionEngine) HandleJoin(connID string, ev domain.JoinEvent) {
	e.dispatch(func() { e.join(connID, ev) })
}

func (e *sessionEngine) HandleSendMessage(connID string, ev domain.SendMessageEvent) {
	e.dispatch(func() { e.sendMessage(connID, ev) })
}

func (e *sessionEngine) HandleTyping(connID string, ev domain.TypingEvent) {
	e.dispatch(func() { e.typing(connID, ev) })
}

func (e *sessionEngine) HandlePrivateMessage(connID string, ev domain.PrivateMessageEvent) {
	e.dispatch(func() { e.privateMessage(connID, ev) })
}

func (e *sessionEngine) HandleJoinRoom(connID string, ev domain.JoinRoomEvent) {
	e.dispatch(func() { e.joinRoom(connID, ev) })
}

func (e *sessionEngine) HandleReadMessage(connID string, ev domain.ReadMessageEvent) {
	e.dispatch(func() { e.readMessage(connID, ev) })
}

func (e *sessionEngine) HandleReaction(connID string, ev domain.ReactionEvent) {
	e.dispatch(func() { e.reaction(connID, ev) })
}

func (e *sessionEngine) HandleSearchMessages(connID string, ev domain.SearchMessagesEvent) {
	e.dispatch(func() { e.searchMessages(connID, ev) })
}

func (e *sessionEngine) HandleLoadMore(connID string, ev domain.LoadMoreEvent) {
	e.dispatch(func() { e.loadMore(connID, ev) })
}

func (e *sessionEngine) HandleDisconnect(connID string) {
	e.dispatch(func() { e.disconnect(connID) })
}

// join registers a connection under a display name. First join wins: a
// connection that already joined keeps its original name and room, and
// later attempts are dropped without any emission.
func (e *sessionEngine) join(connID string, ev domain.JoinEvent) {
	room := e.roomOrDefault(ev.Room)
	if !e.st.Users.Register(connID, ev.Username, room) {
		return
	}
	e.st.Rooms.Ensure(room)
	e.st.Messages.EnsureLog(room)
	e.hub.Join(connID, room)

	e.hub.ToConn(connID, &domain.ReceiveMessages{
		Type:     domain.EventReceiveMessages,
		Messages: e.st.Messages.All(room),
	})
	e.hub.ToAll(&domain.UserList{Type: domain.EventUserList, Users: e.st.Users.Snapshot()})
	e.hub.ToAll(&domain.RoomList{Type: domain.EventRoomList, Rooms: e.st.Rooms.List()})
	e.hub.ToRoom(room, domain.NewNotification(e.ids.Next(), fmt.Sprintf("%s joined %s", ev.Username, room)), "")

	audit.Log(audit.ActionJoin, connID, ev.Username, "user joined")
}

// sendMessage appends a message to the room log and fans it out. Rooms
// named private_<connID> deliver to that one connection plus a sender
// echo instead of broadcasting.
func (e *sessionEngine) sendMessage(connID string, ev domain.SendMessageEvent) {
	user, ok := e.st.Users.Find(connID)
	if !ok {
		return
	}
	room := e.roomOrDefault(ev.Room)

	msg := domain.NewMessage(e.ids.Next(), user.Username, connID, ev.Content, ev.File)
	e.st.Messages.Append(room, msg)

	recv := &domain.ReceiveMessage{Type: domain.EventReceiveMessage, Message: msg}
	if target, isPrivate := strings.CutPrefix(room, domain.PrivateRoomPrefix); isPrivate {
		e.hub.ToConn(target, recv)
		e.hub.ToConn(connID, recv)
	} else {
		e.hub.ToRoom(room, recv, "")
	}

	e.hub.ToConn(connID, &domain.Ack{Type: domain.EventAck, ID: msg.ID})

	// Nobody is ever a member of a private_* room, so these two are
	// naturally silent for direct messages.
	e.hub.ToRoom(room, domain.NewNotification(e.ids.Next(), notificationPreview(msg)), connID)
	e.hub.ToRoom(room, &domain.PlaySound{Type: domain.EventPlaySound}, connID)

	audit.Log(audit.ActionSendMessage, connID, user.Username, "message sent")
}

func (e *sessionEngine) typing(connID string, ev domain.TypingEvent) {
	user, ok := e.st.Users.Find(connID)
	if !ok {
		return
	}
	room := e.roomOrDefault(ev.Room)
	e.st.Typing.SetTyping(room, user.Username, ev.IsTyping)
	e.hub.ToRoom(room, &domain.TypingUsers{
		Type:  domain.EventTypingUsers,
		Names: e.st.Typing.Current(room),
	}, "")
}

// privateMessage resolves the recipient by display name (first match in
// registration order) and re-enters the send path on the synthetic
// private room for that connection.
func (e *sessionEngine) privateMessage(connID string, ev domain.PrivateMessageEvent) {
	if _, ok := e.st.Users.Find(connID); !ok {
		return
	}
	targetID, _, ok := e.st.Users.FindByName(ev.ToUsername)
	if !ok {
		return
	}
	e.sendMessage(connID, domain.SendMessageEvent{
		Content: ev.Content,
		Room:    domain.PrivateRoomPrefix + targetID,
		File:    ev.File,
	})
	audit.Log(audit.ActionPrivateMessage, connID, ev.ToUsername, "private message sent")
}

func (e *sessionEngine) joinRoom(connID string, ev domain.JoinRoomEvent) {
	user, ok := e.st.Users.Find(connID)
	if !ok {
		return
	}
	e.st.Rooms.Ensure(ev.Room)
	e.st.Users.AddRoom(connID, ev.Room)
	e.st.Messages.EnsureLog(ev.Room)
	e.hub.Join(connID, ev.Room)

	e.hub.ToConn(connID, &domain.ReceiveMessages{
		Type:     domain.EventReceiveMessages,
		Messages: e.st.Messages.All(ev.Room),
	})
	e.hub.ToAll(&domain.RoomList{Type: domain.EventRoomList, Rooms: e.st.Rooms.List()})
	e.hub.ToRoom(ev.Room, domain.NewNotification(e.ids.Next(), fmt.Sprintf("%s joined %s", user.Username, ev.Room)), "")

	audit.Log(audit.ActionJoinRoom, connID, user.Username, "user joined room")
}

func (e *sessionEngine) readMessage(connID string, ev domain.ReadMessageEvent) {
	msg, ok := e.st.Messages.Find(ev.Room, ev.MessageID)
	if !ok {
		return
	}
	msg.MarkRead(connID)
	e.hub.ToRoom(ev.Room, &domain.ReadReceipt{
		Type:      domain.EventReadReceipt,
		MessageID: msg.ID,
		ReadBy:    msg.ReadBy,
	}, "")
}

func (e *sessionEngine) reaction(connID string, ev domain.ReactionEvent) {
	user, ok := e.st.Users.Find(connID)
	if !ok {
		return
	}
	msg, ok := e.st.Messages.Find(ev.Room, ev.MessageID)
	if !ok {
		return
	}
	msg.SetReaction(user.Username, ev.Reaction)
	e.hub.ToRoom(ev.Room, &domain.ReactionUpdate{
		Type:      domain.EventReaction,
		MessageID: msg.ID,
		Username:  user.Username,
		Reaction:  ev.Reaction,
	}, "")
}

func (e *sessionEngine) searchMessages(connID string, ev domain.SearchMessagesEvent) {
	e.hub.ToConn(connID, &domain.SearchResults{
		Type:     domain.EventSearchResults,
		Messages: e.st.Messages.Search(ev.Room, ev.Query),
	})
}

func (e *sessionEngine) loadMore(connID string, ev domain.LoadMoreEvent) {
	e.hub.ToConn(connID, &domain.ReceiveMessages{
		Type:     domain.EventReceiveMessages,
		Messages: e.st.Messages.Page(ev.Room, ev.Offset),
	})
}

// disconnect is terminal: the roster entry goes away, typing markers
// are cleared everywhere, and every room the user belonged to hears
// about the departure.
func (e *sessionEngine) disconnect(connID string) {
	user, ok := e.st.Users.Remove(connID)
	if !ok {
		return
	}

	for _, room := range user.Rooms {
		e.hub.ToRoom(room, domain.NewNotification(e.ids.Next(), fmt.Sprintf("%s left %s", user.Username, room)), "")
		e.hub.ToRoom(room, &domain.UserLeft{
			Type:     domain.EventUserLeft,
			Username: user.Username,
			ID:       connID,
		}, "")
	}

	e.st.Typing.ClearUser(user.Username)
	e.hub.ToAll(&domain.UserList{Type: domain.EventUserList, Users: e.st.Users.Snapshot()})
	e.hub.ToAll(&domain.TypingUsers{
		Type:  domain.EventTypingUsers,
		Names: e.st.Typing.Current(e.cfg.DefaultRoom),
	})

	audit.Log(audit.ActionDisconnect, connID, user.Username, "user disconnected")
}

// Snapshot queries run on the engine goroutine like any other event, so
// they observe a consistent point-in-time view.

func (e *sessionEngine) Messages(ctx context.Context, room string) ([]*domain.Message, error) {
	return query(ctx, e, func() []*domain.Message {
		return e.st.Messages.All(room)
	})
}

func (e *sessionEngine) Users(ctx context.Context) ([]domain.UserEntry, error) {
	return query(ctx, e, func() []domain.UserEntry {
		return e.st.Users.Snapshot()
	})
}

func (e *sessionEngine) Rooms(ctx context.Context) ([]string, error) {
	return query(ctx, e, func() []string {
		return e.st.Rooms.List()
	})
}

func query[T any](ctx context.Context, e *sessionEngine, fn func() T) (T, error) {
	out := make(chan T, 1)

	select {
	case e.tasks <- func() { out <- fn() }:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	select {
	case v := <-out:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (e *sessionEngine) roomOrDefault(room string) string {
	if room == "" {
		return e.cfg.DefaultRoom
	}
	return room
}

// notificationPreview renders "sender: content" with the content
// truncated to previewLimit runes.
func notificationPreview(msg *domain.Message) string {
	content := []rune(msg.Content)
	if len(content) > previewLimit {
		return fmt.Sprintf("%s: %s...", msg.Sender, string(content[:previewLimit]))
	}
	return fmt.Sprintf("%s: %s", msg.Sender, msg.Content)
}
