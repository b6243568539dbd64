package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces ULID identifiers for messages and notifications.
// ULIDs are timestamp-prefixed and lexicographically sortable, so ids
// generated later always compare greater; monotonic entropy keeps that
// ordering even for ids minted within the same millisecond.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Next returns a new unique id.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	id, err := ulid.New(ulid.Timestamp(now), g.entropy)
	if err != nil {
		// Monotonic entropy overflowed within this millisecond; fall
		// back to fresh randomness for this one id.
		id = ulid.MustNew(ulid.Timestamp(now), rand.Reader)
	}
	return id.String()
}
