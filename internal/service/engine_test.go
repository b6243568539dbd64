package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hallway-chat/hallway/internal/config"
	"github.com/hallway-chat/hallway/internal/domain"
	"github.com/hallway-chat/hallway/internal/id"
	"github.com/hallway-chat/hallway/internal/state"
)

type recordedEmission struct {
	kind    string // "join", "conn", "room", "all"
	target  string
	exclude string
	event   interface{}
}

// fakeDispatcher records emissions instead of writing to sockets.
type fakeDispatcher struct {
	emissions []recordedEmission
}

func (f *fakeDispatcher) Join(connID, room string) {
	f.emissions = append(f.emissions, recordedEmission{kind: "join", target: connID + "->" + room})
}

func (f *fakeDispatcher) ToConn(connID string, event interface{}) {
	f.emissions = append(f.emissions, recordedEmission{kind: "conn", target: connID, event: event})
}

func (f *fakeDispatcher) ToRoom(room string, event interface{}, exclude string) {
	f.emissions = append(f.emissions, recordedEmission{kind: "room", target: room, exclude: exclude, event: event})
}

func (f *fakeDispatcher) ToAll(event interface{}) {
	f.emissions = append(f.emissions, recordedEmission{kind: "all", event: event})
}

func (f *fakeDispatcher) reset() {
	f.emissions = nil
}

func (f *fakeDispatcher) toConn(connID string) []interface{} {
	var events []interface{}
	for _, em := range f.emissions {
		if em.kind == "conn" && em.target == connID {
			events = append(events, em.event)
		}
	}
	return events
}

func (f *fakeDispatcher) toRoom(room string) []recordedEmission {
	var out []recordedEmission
	for _, em := range f.emissions {
		if em.kind == "room" && em.target == room {
			out = append(out, em)
		}
	}
	return out
}

func (f *fakeDispatcher) toAll() []interface{} {
	var events []interface{}
	for _, em := range f.emissions {
		if em.kind == "all" {
			events = append(events, em.event)
		}
	}
	return events
}

func newTestEngine(t *testing.T) (*sessionEngine, *fakeDispatcher, *state.State) {
	t.Helper()
	st := state.New(200, 20)
	fake := &fakeDispatcher{}
	e := NewEngine(st, fake, id.NewGenerator(), config.ChatConfig{
		DefaultRoom:  "general",
		HistoryLimit: 200,
		PageSize:     20,
	}).(*sessionEngine)
	return e, fake, st
}

func TestJoinEmitsHistoryRosterAndRoomList(t *testing.T) {
	e, fake, st := newTestEngine(t)

	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})

	u, ok := st.Users.Find("conn-a")
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)

	events := fake.toConn("conn-a")
	require.Len(t, events, 1)
	history, ok := events[0].(*domain.ReceiveMessages)
	require.True(t, ok)
	assert.Empty(t, history.Messages)

	all := fake.toAll()
	require.Len(t, all, 2)
	roster, ok := all[0].(*domain.UserList)
	require.True(t, ok)
	require.Len(t, roster.Users, 1)
	assert.Equal(t, "conn-a", roster.Users[0].ID)
	rooms, ok := all[1].(*domain.RoomList)
	require.True(t, ok)
	assert.Equal(t, []string{"general"}, rooms.Rooms)

	roomEvents := fake.toRoom("general")
	require.Len(t, roomEvents, 1)
	note, ok := roomEvents[0].event.(*domain.Notification)
	require.True(t, ok)
	assert.Equal(t, "alice joined general", note.Message)
	assert.NotEmpty(t, note.ID)
}

func TestJoinWithoutRoomUsesDefault(t *testing.T) {
	e, _, st := newTestEngine(t)

	e.join("conn-a", domain.JoinEvent{Username: "alice"})

	u, ok := st.Users.Find("conn-a")
	require.True(t, ok)
	assert.Equal(t, []string{"general"}, u.Rooms)
}

func TestJoinFirstWriterWins(t *testing.T) {
	e, fake, st := newTestEngine(t)

	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	fake.reset()

	e.join("conn-a", domain.JoinEvent{Username: "impostor", Room: "random"})

	u, _ := st.Users.Find("conn-a")
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, []string{"general"}, u.Rooms)
	assert.Empty(t, fake.emissions, "second join must not emit anything")
}

func TestSendMessageBroadcastAckAndNotifications(t *testing.T) {
	e, fake, st := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	e.join("conn-b", domain.JoinEvent{Username: "bob", Room: "general"})
	fake.reset()

	e.sendMessage("conn-a", domain.SendMessageEvent{Content: "hi", Room: "general"})

	roomEvents := fake.toRoom("general")
	require.Len(t, roomEvents, 3)

	recv, ok := roomEvents[0].event.(*domain.ReceiveMessage)
	require.True(t, ok)
	assert.Equal(t, "alice", recv.Message.Sender)
	assert.Equal(t, "conn-a", recv.Message.SenderID)
	assert.Equal(t, "hi", recv.Message.Content)
	assert.Equal(t, []string{"conn-a"}, recv.Message.ReadBy)
	assert.Empty(t, roomEvents[0].exclude, "delivery reaches every room member")

	note, ok := roomEvents[1].event.(*domain.Notification)
	require.True(t, ok)
	assert.Equal(t, "alice: hi", note.Message)
	assert.Equal(t, "conn-a", roomEvents[1].exclude, "sender gets no preview notification")

	_, ok = roomEvents[2].event.(*domain.PlaySound)
	require.True(t, ok)
	assert.Equal(t, "conn-a", roomEvents[2].exclude, "sender gets no sound cue")

	acks := fake.toConn("conn-a")
	require.Len(t, acks, 1)
	ack, ok := acks[0].(*domain.Ack)
	require.True(t, ok)
	assert.Equal(t, recv.Message.ID, ack.ID)

	assert.Equal(t, 1, st.Messages.Len("general"))
}

func TestSendMessageTruncatesNotificationPreview(t *testing.T) {
	e, fake, _ := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	fake.reset()

	e.sendMessage("conn-a", domain.SendMessageEvent{Content: "this message is far longer than twenty characters"})

	roomEvents := fake.toRoom("general")
	require.Len(t, roomEvents, 3)
	note := roomEvents[1].event.(*domain.Notification)
	assert.Equal(t, "alice: this message is far ...", note.Message)
}

func TestSendMessageFromUnjoinedConnectionIsDropped(t *testing.T) {
	e, fake, st := newTestEngine(t)

	e.sendMessage("conn-x", domain.SendMessageEvent{Content: "hi", Room: "general"})

	assert.Empty(t, fake.emissions)
	assert.Equal(t, 0, st.Messages.Len("general"))
}

func TestReadMessageUpdatesReceiptForWholeRoom(t *testing.T) {
	e, fake, st := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	e.join("conn-b", domain.JoinEvent{Username: "bob", Room: "general"})
	e.sendMessage("conn-a", domain.SendMessageEvent{Content: "hi", Room: "general"})

	msg := st.Messages.All("general")[0]
	fake.reset()

	e.readMessage("conn-b", domain.ReadMessageEvent{MessageID: msg.ID, Room: "general"})

	assert.Equal(t, []string{"conn-a", "conn-b"}, msg.ReadBy)

	roomEvents := fake.toRoom("general")
	require.Len(t, roomEvents, 1)
	receipt, ok := roomEvents[0].event.(*domain.ReadReceipt)
	require.True(t, ok)
	assert.Equal(t, msg.ID, receipt.MessageID)
	assert.Equal(t, []string{"conn-a", "conn-b"}, receipt.ReadBy)
}

func TestReadMessageUnknownIdIsDropped(t *testing.T) {
	e, fake, _ := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	fake.reset()

	e.readMessage("conn-a", domain.ReadMessageEvent{MessageID: "missing", Room: "general"})

	assert.Empty(t, fake.emissions)
}

func TestPrivateMessageReachesOnlySenderAndRecipient(t *testing.T) {
	e, fake, _ := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	e.join("conn-b", domain.JoinEvent{Username: "bob", Room: "general"})
	e.join("conn-c", domain.JoinEvent{Username: "carol", Room: "general"})
	fake.reset()

	e.privateMessage("conn-a", domain.PrivateMessageEvent{ToUsername: "bob", Content: "psst"})

	// Direct delivery to recipient and sender echo, plus the ack.
	bobEvents := fake.toConn("conn-b")
	require.Len(t, bobEvents, 1)
	recv := bobEvents[0].(*domain.ReceiveMessage)
	assert.Equal(t, "psst", recv.Message.Content)

	aliceEvents := fake.toConn("conn-a")
	require.Len(t, aliceEvents, 2)
	echo, ok := aliceEvents[0].(*domain.ReceiveMessage)
	require.True(t, ok)
	assert.Equal(t, recv.Message.ID, echo.Message.ID)
	_, ok = aliceEvents[1].(*domain.Ack)
	require.True(t, ok)

	// Nothing reaches carol or the shared room.
	assert.Empty(t, fake.toConn("conn-c"))
	assert.Empty(t, fake.toRoom("general"))
}

func TestPrivateMessageToUnknownNameIsDropped(t *testing.T) {
	e, fake, _ := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	fake.reset()

	e.privateMessage("conn-a", domain.PrivateMessageEvent{ToUsername: "nobody", Content: "psst"})

	assert.Empty(t, fake.emissions)
}

func TestPrivateMessageResolvesFirstMatchingName(t *testing.T) {
	e, fake, _ := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	e.join("conn-b", domain.JoinEvent{Username: "bob", Room: "general"})
	e.join("conn-c", domain.JoinEvent{Username: "bob", Room: "general"})
	fake.reset()

	e.privateMessage("conn-a", domain.PrivateMessageEvent{ToUsername: "bob", Content: "psst"})

	assert.Len(t, fake.toConn("conn-b"), 1)
	assert.Empty(t, fake.toConn("conn-c"))
}

func TestTypingBroadcastsCurrentSet(t *testing.T) {
	e, fake, _ := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	e.join("conn-b", domain.JoinEvent{Username: "bob", Room: "general"})
	fake.reset()

	e.typing("conn-a", domain.TypingEvent{Room: "general", IsTyping: true})
	e.typing("conn-b", domain.TypingEvent{Room: "general", IsTyping: true})
	e.typing("conn-a", domain.TypingEvent{Room: "general", IsTyping: false})

	roomEvents := fake.toRoom("general")
	require.Len(t, roomEvents, 3)
	last := roomEvents[2].event.(*domain.TypingUsers)
	assert.Equal(t, []string{"bob"}, last.Names)
}

func TestTypingFromUnjoinedConnectionIsDropped(t *testing.T) {
	e, fake, _ := newTestEngine(t)

	e.typing("conn-x", domain.TypingEvent{Room: "general", IsTyping: true})

	assert.Empty(t, fake.emissions)
}

func TestJoinRoomAddsMembershipAndAnnounces(t *testing.T) {
	e, fake, st := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	fake.reset()

	e.joinRoom("conn-a", domain.JoinRoomEvent{Room: "random"})

	u, _ := st.Users.Find("conn-a")
	assert.Equal(t, []string{"general", "random"}, u.Rooms)

	events := fake.toConn("conn-a")
	require.Len(t, events, 1)
	_, ok := events[0].(*domain.ReceiveMessages)
	require.True(t, ok)

	all := fake.toAll()
	require.Len(t, all, 1)
	rooms := all[0].(*domain.RoomList)
	assert.Equal(t, []string{"general", "random"}, rooms.Rooms)

	roomEvents := fake.toRoom("random")
	require.Len(t, roomEvents, 1)
	note := roomEvents[0].event.(*domain.Notification)
	assert.Equal(t, "alice joined random", note.Message)
}

func TestReactionReplacesPriorReaction(t *testing.T) {
	e, fake, st := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	e.join("conn-b", domain.JoinEvent{Username: "bob", Room: "general"})
	e.sendMessage("conn-a", domain.SendMessageEvent{Content: "hi", Room: "general"})
	msg := st.Messages.All("general")[0]
	fake.reset()

	e.reaction("conn-b", domain.ReactionEvent{MessageID: msg.ID, Room: "general", Reaction: "👍"})
	e.reaction("conn-b", domain.ReactionEvent{MessageID: msg.ID, Room: "general", Reaction: "❤️"})

	require.Len(t, msg.Reactions, 1)
	assert.Equal(t, "❤️", msg.Reactions["bob"])

	roomEvents := fake.toRoom("general")
	require.Len(t, roomEvents, 2)
	update := roomEvents[1].event.(*domain.ReactionUpdate)
	assert.Equal(t, "bob", update.Username)
	assert.Equal(t, "❤️", update.Reaction)
}

func TestReactionFromUnjoinedConnectionIsDropped(t *testing.T) {
	e, fake, st := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	e.sendMessage("conn-a", domain.SendMessageEvent{Content: "hi", Room: "general"})
	msg := st.Messages.All("general")[0]
	fake.reset()

	e.reaction("conn-x", domain.ReactionEvent{MessageID: msg.ID, Room: "general", Reaction: "👍"})

	assert.Empty(t, fake.emissions)
	assert.Empty(t, msg.Reactions)
}

func TestSearchMessagesAnswersCaller(t *testing.T) {
	e, fake, _ := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	e.sendMessage("conn-a", domain.SendMessageEvent{Content: "Deploy done", Room: "general"})
	e.sendMessage("conn-a", domain.SendMessageEvent{Content: "lunch?", Room: "general"})
	fake.reset()

	e.searchMessages("conn-a", domain.SearchMessagesEvent{Query: "deploy", Room: "general"})

	events := fake.toConn("conn-a")
	require.Len(t, events, 1)
	results := events[0].(*domain.SearchResults)
	require.Len(t, results.Messages, 1)
	assert.Equal(t, "Deploy done", results.Messages[0].Content)
}

func TestLoadMoreReturnsBackwardWindow(t *testing.T) {
	e, fake, st := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	for i := 0; i < 50; i++ {
		e.sendMessage("conn-a", domain.SendMessageEvent{Content: fmt.Sprintf("message %d", i), Room: "general"})
	}
	require.Equal(t, 50, st.Messages.Len("general"))
	fake.reset()

	e.loadMore("conn-a", domain.LoadMoreEvent{Room: "general", Offset: 0})

	events := fake.toConn("conn-a")
	require.Len(t, events, 1)
	page := events[0].(*domain.ReceiveMessages)
	require.Len(t, page.Messages, 20)
	assert.Equal(t, "message 30", page.Messages[0].Content)
	assert.Equal(t, "message 49", page.Messages[19].Content)
}

func TestDisconnectCleansUpAndAnnounces(t *testing.T) {
	e, fake, st := newTestEngine(t)
	e.join("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	e.join("conn-b", domain.JoinEvent{Username: "bob", Room: "general"})
	e.joinRoom("conn-b", domain.JoinRoomEvent{Room: "random"})
	e.typing("conn-b", domain.TypingEvent{Room: "general", IsTyping: true})
	e.typing("conn-b", domain.TypingEvent{Room: "random", IsTyping: true})
	fake.reset()

	e.disconnect("conn-b")

	_, ok := st.Users.Find("conn-b")
	assert.False(t, ok)
	assert.Empty(t, st.Typing.Current("general"))
	assert.Empty(t, st.Typing.Current("random"))

	// Each joined room hears a leave notification and a userLeft event.
	for _, room := range []string{"general", "random"} {
		roomEvents := fake.toRoom(room)
		require.Len(t, roomEvents, 2, "room %s", room)
		note := roomEvents[0].event.(*domain.Notification)
		assert.Equal(t, fmt.Sprintf("bob left %s", room), note.Message)
		left := roomEvents[1].event.(*domain.UserLeft)
		assert.Equal(t, "bob", left.Username)
		assert.Equal(t, "conn-b", left.ID)
	}

	all := fake.toAll()
	require.Len(t, all, 2)
	roster := all[0].(*domain.UserList)
	require.Len(t, roster.Users, 1)
	assert.Equal(t, "conn-a", roster.Users[0].ID)
	typing := all[1].(*domain.TypingUsers)
	assert.Empty(t, typing.Names)
}

func TestDisconnectOfUnjoinedConnectionIsDropped(t *testing.T) {
	e, fake, _ := newTestEngine(t)

	e.disconnect("conn-x")

	assert.Empty(t, fake.emissions)
}

func TestRunAppliesEventsInOrderAndServesQueries(t *testing.T) {
	e, _, _ := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	e.HandleJoin("conn-a", domain.JoinEvent{Username: "alice", Room: "general"})
	e.HandleSendMessage("conn-a", domain.SendMessageEvent{Content: "hi", Room: "general"})

	qctx, qcancel := context.WithTimeout(context.Background(), time.Second)
	defer qcancel()

	users, err := e.Users(qctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].User.Username)

	messages, err := e.Messages(qctx, "general")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hi", messages[0].Content)

	rooms, err := e.Rooms(qctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"general"}, rooms)
}

func TestQueriesFailOnceContextIsDone(t *testing.T) {
	e, _, _ := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Engine loop is not running; the cancelled context must unblock.
	_, err := e.Users(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
