package audit

import "github.com/hallway-chat/hallway/internal/log"

// Audit actions for the session engine.
const (
	ActionJoin           = "session.join"
	ActionJoinRoom       = "session.join_room"
	ActionSendMessage    = "session.send_message"
	ActionPrivateMessage = "session.private_message"
	ActionDisconnect     = "session.disconnect"
)

const fieldAction = "action"

// Log emits a structured audit entry for a session lifecycle action.
func Log(action, connID, username, msg string) {
	l := log.L()
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(fieldAction, action).
		Str(log.FieldConnID, connID).
		Str(log.FieldUsername, username).
		Msg(msg)
}
