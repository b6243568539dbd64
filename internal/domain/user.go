package domain

// User is the registry record for one connection: a self-declared
// display name, the rooms the connection has joined (insertion order),
// and an online flag. Display names are not unique across connections.
type User struct {
	Username string
	Rooms    []string
	Online   bool
}

// NewUser creates a user who has joined a single initial room.
func NewUser(username, room string) *User {
	return &User{
		Username: username,
		Rooms:    []string{room},
		Online:   true,
	}
}

// AddRoom appends a room to the membership set if not already present.
func (u *User) AddRoom(room string) {
	if u.InRoom(room) {
		return
	}
	u.Rooms = append(u.Rooms, room)
}

// InRoom reports whether the user has joined the given room.
func (u *User) InRoom(room string) bool {
	for _, r := range u.Rooms {
		if r == room {
			return true
		}
	}
	return false
}

// View returns the wire representation of the user.
func (u *User) View() UserView {
	rooms := make([]string, len(u.Rooms))
	copy(rooms, u.Rooms)
	return UserView{
		Username: u.Username,
		Rooms:    rooms,
		Online:   u.Online,
	}
}
