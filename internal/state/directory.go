package state

import (
	"strings"

	"github.com/hallway-chat/hallway/internal/domain"
)

// Directory tracks the set of known room names in registration order.
// Rooms are created implicitly on first reference and never deleted.
type Directory struct {
	order []string
	known map[string]struct{}
}

func NewDirectory() *Directory {
	return &Directory{
		known: make(map[string]struct{}),
	}
}

// Ensure idempotently registers a room name.
func (d *Directory) Ensure(name string) {
	if _, ok := d.known[name]; ok {
		return
	}
	d.known[name] = struct{}{}
	d.order = append(d.order, name)
}

// Has reports whether a room name is registered.
func (d *Directory) Has(name string) bool {
	_, ok := d.known[name]
	return ok
}

// List returns all known room names in registration order. Private
// channels are an addressing mechanism, not rooms, and are never listed.
func (d *Directory) List() []string {
	names := make([]string, 0, len(d.order))
	for _, name := range d.order {
		if strings.HasPrefix(name, domain.PrivateRoomPrefix) {
			continue
		}
		names = append(names, name)
	}
	return names
}
