package state

import "github.com/hallway-chat/hallway/internal/domain"

// Registry maps connection ids to users. Registration is first-writer-
// wins per connection: once a connection has joined, later join attempts
// are ignored.
type Registry struct {
	order []string
	users map[string]*domain.User
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]*domain.User),
	}
}

// Register adds a user for a connection. Returns false without touching
// state if the connection is already registered.
func (r *Registry) Register(connID, username, room string) bool {
	if _, ok := r.users[connID]; ok {
		return false
	}
	r.users[connID] = domain.NewUser(username, room)
	r.order = append(r.order, connID)
	return true
}

// AddRoom adds a room to a registered user's membership set. No-op for
// unknown connections.
func (r *Registry) AddRoom(connID, room string) {
	if u, ok := r.users[connID]; ok {
		u.AddRoom(room)
	}
}

// Find looks up the user for a connection id.
func (r *Registry) Find(connID string) (*domain.User, bool) {
	u, ok := r.users[connID]
	return u, ok
}

// FindByName returns the first registered user with the given display
// name, in registration order. Display names are not unique; callers
// accept the first match.
func (r *Registry) FindByName(username string) (string, *domain.User, bool) {
	for _, connID := range r.order {
		if u := r.users[connID]; u.Username == username {
			return connID, u, true
		}
	}
	return "", nil, false
}

// Remove deletes a connection's user and returns it.
func (r *Registry) Remove(connID string) (*domain.User, bool) {
	u, ok := r.users[connID]
	if !ok {
		return nil, false
	}
	delete(r.users, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return u, true
}

// Snapshot returns the full roster as ordered (id, user) pairs.
func (r *Registry) Snapshot() []domain.UserEntry {
	entries := make([]domain.UserEntry, 0, len(r.order))
	for _, connID := range r.order {
		entries = append(entries, domain.UserEntry{
			ID:   connID,
			User: r.users[connID].View(),
		})
	}
	return entries
}
