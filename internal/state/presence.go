package state

import "sort"

// Presence tracks which display names are currently typing in each
// room. Entries have no time-based expiry; a name leaves the set on an
// explicit stop signal or when the connection's disconnect is observed.
type Presence struct {
	typing map[string]map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{
		typing: make(map[string]map[string]struct{}),
	}
}

// SetTyping adds or removes a display name from a room's typing set.
func (p *Presence) SetTyping(room, username string, isTyping bool) {
	set, ok := p.typing[room]
	if !ok {
		set = make(map[string]struct{})
		p.typing[room] = set
	}

	if isTyping {
		set[username] = struct{}{}
	} else {
		delete(set, username)
	}
}

// Current returns the display names currently typing in a room, sorted
// for stable emission.
func (p *Presence) Current(room string) []string {
	names := make([]string, 0, len(p.typing[room]))
	for name := range p.typing[room] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearUser removes a display name from every room's typing set.
func (p *Presence) ClearUser(username string) {
	for _, set := range p.typing {
		delete(set, username)
	}
}
