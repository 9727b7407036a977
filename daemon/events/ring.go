package events

import (
	"sync"

	goevents "github.com/docker/go-events"
)

// DefaultRingLimit is the journal backlog kept for the debug endpoint.
const DefaultRingLimit = 256

// Ring is a sink retaining the most recent journal messages. It is the one
// piece of journal state read from outside the event loop (by the debug
// HTTP endpoint), so it carries its own lock.
type Ring struct {
	mu    sync.Mutex
	limit int
	msgs  []Message
}

// NewRing returns a ring keeping up to limit messages; non-positive limit
// falls back to DefaultRingLimit.
func NewRing(limit int) *Ring {
	if limit <= 0 {
		limit = DefaultRingLimit
	}
	return &Ring{limit: limit}
}

// Write implements goevents.Sink.
func (r *Ring) Write(event goevents.Event) error {
	m, ok := event.(Message)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	if len(r.msgs) > r.limit {
		r.msgs = append(r.msgs[:0], r.msgs[len(r.msgs)-r.limit:]...)
	}
	return nil
}

// Close implements goevents.Sink.
func (r *Ring) Close() error {
	return nil
}

// Snapshot returns the retained messages, oldest first.
func (r *Ring) Snapshot() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}
