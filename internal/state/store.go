package state

import (
	"strings"

	"github.com/hallway-chat/hallway/internal/domain"
)

// Store holds one bounded append-only message log per room. Logs are
// created implicitly on first use; once a log exceeds the limit the
// oldest messages are evicted, independent of read or reaction state.
type Store struct {
	limit    int
	pageSize int
	logs     map[string][]*domain.Message
}

func NewStore(limit, pageSize int) *Store {
	return &Store{
		limit:    limit,
		pageSize: pageSize,
		logs:     make(map[string][]*domain.Message),
	}
}

// EnsureLog creates an empty log for a room if none exists.
func (s *Store) EnsureLog(room string) {
	if _, ok := s.logs[room]; !ok {
		s.logs[room] = []*domain.Message{}
	}
}

// Append adds a message to a room's log, evicting from the front until
// the log is back within the limit.
func (s *Store) Append(room string, msg *domain.Message) {
	log := append(s.logs[room], msg)
	for len(log) > s.limit {
		log = log[1:]
	}
	s.logs[room] = log
}

// Find returns the message with the given id, if it is still in the log.
func (s *Store) Find(room, messageID string) (*domain.Message, bool) {
	for _, msg := range s.logs[room] {
		if msg.ID == messageID {
			return msg, true
		}
	}
	return nil, false
}

// All returns the full log for a room, oldest first.
func (s *Store) All(room string) []*domain.Message {
	log := s.logs[room]
	out := make([]*domain.Message, len(log))
	copy(out, log)
	return out
}

// Page returns one page counting backward from the newest message: the
// window [len-offset-pageSize, len-offset) clamped to the log bounds.
// New arrivals shift the window between calls; this mirrors a "load
// older" affordance, not a stable cursor.
func (s *Store) Page(room string, offset int) []*domain.Message {
	log := s.logs[room]
	n := len(log)

	lo := n - offset - s.pageSize
	hi := n - offset
	if lo < 0 {
		lo = 0
	}
	if hi < 0 {
		hi = 0
	}
	if hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}

	out := make([]*domain.Message, hi-lo)
	copy(out, log[lo:hi])
	return out
}

// Search returns messages whose content contains the query,
// case-insensitively, preserving log order.
func (s *Store) Search(room, query string) []*domain.Message {
	q := strings.ToLower(query)
	out := []*domain.Message{}
	for _, msg := range s.logs[room] {
		if strings.Contains(strings.ToLower(msg.Content), q) {
			out = append(out, msg)
		}
	}
	return out
}

// Len returns the current length of a room's log.
func (s *Store) Len(room string) int {
	return len(s.logs[room])
}
