package reactor

import "github.com/loomstate/reactor/internal/evlog"

// EventChannel is an append-only broadcast log tracked in the dependency
// graph: every Send notifies watchers unconditionally (unlike Queue, which
// only notifies on the empty→non-empty transition), because consumers
// maintain independent cursor positions rather than draining a shared
// buffer.
type EventChannel[T any] struct {
	log *evlog.Log[T]
	key *StateKey
}

// NewEventChannel constructs an empty event channel.
func NewEventChannel[T any](cx *StateContext) *EventChannel[T] {
	return &EventChannel[T]{log: evlog.New[T](), key: NewStateKey(cx)}
}

// Send appends value and notifies every current watcher.
func (e *EventChannel[T]) Send(value T, cx *StateContext) {
	e.log.Push(value)
	e.key.Notify(cx)
}

// SendAll appends every value from values and notifies once.
func (e *EventChannel[T]) SendAll(values []T, cx *StateContext) {
	e.log.PushAll(values)
	e.key.Notify(cx)
}

// Close releases the channel's source key immediately rather than waiting
// for GC. Any cursors still outstanding against this channel's log must be
// released first (ReleaseCursor panics on an unknown cursor, same as the
// log's own invariant).
func (e *EventChannel[T]) Close() {
	e.key.Close()
}
