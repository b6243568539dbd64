// Package state holds the in-memory session data: known rooms, the
// connection roster, per-room message logs, and typing presence. All of
// it lives for the life of the process and is mutated only by the
// session engine's single goroutine, so none of the structures carry
// locks of their own.
package state

// State is the explicitly constructed session context shared by the
// engine and the snapshot queries.
type State struct {
	Rooms    *Directory
	Users    *Registry
	Messages *Store
	Typing   *Presence
}

// New builds an empty State. historyLimit caps each room's message log;
// pageSize is the window size for backward pagination.
func New(historyLimit, pageSize int) *State {
	return &State{
		Rooms:    NewDirectory(),
		Users:    NewRegistry(),
		Messages: NewStore(historyLimit, pageSize),
		Typing:   NewPresence(),
	}
}
