package domain

import "encoding/json"

// WebSocket event types from client.
const (
	EventJoin           = "join"
	EventSendMessage    = "sendMessage"
	EventTyping         = "typing"
	EventPrivateMessage = "privateMessage"
	EventJoinRoom       = "joinRoom"
	EventReadMessage    = "readMessage"
	EventReaction       = "reaction"
	EventSearchMessages = "searchMessages"
	EventLoadMore       = "loadMore"
)

// WebSocket event types to client.
const (
	EventReceiveMessage  = "receiveMessage"
	EventReceiveMessages = "receiveMessages"
	EventUserList        = "userList"
	EventRoomList        = "roomList"
	EventNotification    = "notification"
	EventPlaySound       = "playSound"
	EventTypingUsers     = "typingUsers"
	EventReadReceipt     = "readReceipt"
	EventSearchResults   = "searchResults"
	EventAck             = "ack"
	EventUserLeft        = "userLeft"
)

// Envelope carries the type discriminator of every inbound event.
type Envelope struct {
	Type string `json:"type"`
}

// Client -> Server events

type JoinEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Room     string `json:"room"`
}

type SendMessageEvent struct {
	Type    string          `json:"type"`
	Content string          `json:"content"`
	Room    string          `json:"room"`
	File    json.RawMessage `json:"file,omitempty"`
}

type TypingEvent struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	IsTyping bool   `json:"isTyping"`
}

type PrivateMessageEvent struct {
	Type       string          `json:"type"`
	ToUsername string          `json:"toUsername"`
	Content    string          `json:"content"`
	File       json.RawMessage `json:"file,omitempty"`
}

type JoinRoomEvent struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type ReadMessageEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	Room      string `json:"room"`
}

type ReactionEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	Room      string `json:"room"`
	Reaction  string `json:"reaction"`
}

type SearchMessagesEvent struct {
	Type  string `json:"type"`
	Query string `json:"query"`
	Room  string `json:"room"`
}

type LoadMoreEvent struct {
	Type   string `json:"type"`
	Room   string `json:"room"`
	Offset int    `json:"offset"`
}

// Server -> Client events

type ReceiveMessage struct {
	Type    string   `json:"type"`
	Message *Message `json:"message"`
}

type ReceiveMessages struct {
	Type     string     `json:"type"`
	Messages []*Message `json:"messages"`
}

// UserView is the wire representation of a registered user.
type UserView struct {
	Username string   `json:"username"`
	Rooms    []string `json:"rooms"`
	Online   bool     `json:"online"`
}

// UserEntry pairs a connection id with its user, preserving
// registration order in the roster broadcast.
type UserEntry struct {
	ID   string   `json:"id"`
	User UserView `json:"user"`
}

type UserList struct {
	Type  string      `json:"type"`
	Users []UserEntry `json:"users"`
}

type RoomList struct {
	Type  string   `json:"type"`
	Rooms []string `json:"rooms"`
}

type Notification struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

type PlaySound struct {
	Type string `json:"type"`
}

type TypingUsers struct {
	Type  string   `json:"type"`
	Names []string `json:"names"`
}

type ReadReceipt struct {
	Type      string   `json:"type"`
	MessageID string   `json:"messageId"`
	ReadBy    []string `json:"readBy"`
}

// ReactionUpdate announces one user's (latest) reaction to a message.
type ReactionUpdate struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	Username  string `json:"username"`
	Reaction  string `json:"reaction"`
}

type SearchResults struct {
	Type     string     `json:"type"`
	Messages []*Message `json:"messages"`
}

type Ack struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type UserLeft struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	ID       string `json:"id"`
}

func NewNotification(id, text string) *Notification {
	return &Notification{
		Type:    EventNotification,
		Message: text,
		ID:      id,
	}
}
