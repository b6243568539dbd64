package domain

import (
	"encoding/json"
	"time"
)

// PrivateRoomPrefix marks synthetic rooms used for one-to-one delivery.
// A room named "private_<connectionId>" addresses a single connection and
// is never surfaced in the room list.
const PrivateRoomPrefix = "private_"

// Message is a chat message stored in a room's log. It is mutated in
// place by read receipts and reactions, so callers share one reference.
type Message struct {
	ID        string            `json:"id"`
	Sender    string            `json:"sender"`
	SenderID  string            `json:"senderId"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	File      json.RawMessage   `json:"file"`
	ReadBy    []string          `json:"readBy"`
	Reactions map[string]string `json:"reactions"`
}

// NewMessage builds a message record. The sender's connection id is
// always the first entry of the read-by set.
func NewMessage(id, sender, senderID, content string, file json.RawMessage) *Message {
	return &Message{
		ID:        id,
		Sender:    sender,
		SenderID:  senderID,
		Content:   content,
		Timestamp: time.Now().UTC(),
		File:      file,
		ReadBy:    []string{senderID},
		Reactions: make(map[string]string),
	}
}

// MarkRead adds a connection id to the read-by set. The set only grows;
// marking twice is a no-op.
func (m *Message) MarkRead(connID string) {
	for _, id := range m.ReadBy {
		if id == connID {
			return
		}
	}
	m.ReadBy = append(m.ReadBy, connID)
}

// SetReaction records a user's reaction, replacing any prior reaction by
// the same display name. At most one reaction per user per message.
func (m *Message) SetReaction(username, reaction string) {
	m.Reactions[username] = reaction
}
