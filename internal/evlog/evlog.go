// Package evlog implements the shared append-only log with
// reference-counted cursors that backs EventChannel: the data structure
// that lets many independent consumers each observe the same stream of
// values from whatever point they joined, while pruning values from the
// head once no live cursor still needs them.
package evlog

// Cursor is a consumer's position in a Log, expressed as a monotonically
// increasing "age" rather than a raw slice index (ages survive head
// pruning; indices don't).
type Cursor struct {
	age uint64
}

// Log is a FIFO of values with a parallel reference-count array one longer
// than the value slice: refCounts[i] counts cursors currently positioned at
// index i (i.e. that have consumed values[:i] but not values[i]), and the
// trailing slot refCounts[len(values)] counts cursors sitting at the
// current end of the log.
//
// Go has no destructors, so unlike the Rust original's borrow-scoped
// reader (whose Drop commits the cursor's advance), Read commits the
// advance immediately and returns a plain slice snapshot. This is the one
// place the port trades the original's scoped-borrow ergonomics for Go's
// explicit-commit idiom; behavior (what gets delivered, when pruning
// happens) is unchanged.
type Log[T any] struct {
	values    []T
	refCounts []int
	ageBase   uint64
}

// New returns an empty log.
func New[T any]() *Log[T] {
	return &Log[T]{refCounts: []int{0}}
}

func (l *Log[T]) endAge() uint64 {
	return l.ageBase + uint64(len(l.values))
}

func (l *Log[T]) ageToIndex(age uint64) int {
	return int(age - l.ageBase)
}

func (l *Log[T]) indexToAge(index int) uint64 {
	return l.ageBase + uint64(index)
}

func (l *Log[T]) incRef(index int) {
	if l.refCounts[index] == int(^uint(0)>>1) {
		panic("evlog: refcount saturated")
	}
	l.refCounts[index]++
}

func (l *Log[T]) decRef(index int) {
	if l.refCounts[index] <= 0 {
		panic("evlog: refcount underflow")
	}
	l.refCounts[index]--
	for len(l.refCounts) > 0 && l.refCounts[0] == 0 {
		if len(l.values) == 0 {
			break
		}
		l.values = l.values[1:]
		l.refCounts = l.refCounts[1:]
		l.ageBase++
	}
}

// CreateCursor returns a cursor positioned at the current end of the log:
// it will only observe values Push-ed after this call (P6).
func (l *Log[T]) CreateCursor() Cursor {
	l.incRef(len(l.values))
	return Cursor{age: l.endAge()}
}

// ReleaseCursor must be called exactly once per cursor, when the consumer
// is done with it. Calling it twice for the same cursor, or with a cursor
// this log never issued, is a programmer error and panics (refcount
// underflow).
func (l *Log[T]) ReleaseCursor(c Cursor) {
	l.decRef(l.ageToIndex(c.age))
}

// Push appends a value and notifies nothing by itself (the caller, i.e.
// EventChannel.Send, is responsible for the state-graph notify). Per the
// original's "no live observer" optimization: if the log is currently
// empty and the trailing slot (end-of-log cursors) has zero references,
// the push is silently dropped — nothing could ever read it.
func (l *Log[T]) Push(v T) {
	if len(l.values) == 0 && l.refCounts[0] == 0 {
		return
	}
	l.values = append(l.values, v)
	l.refCounts = append(l.refCounts, 0)
}

// PushAll appends every value from vs, applying the same empty-log
// optimization as Push for each one (so a SendAll onto a channel with no
// live cursors is entirely free).
func (l *Log[T]) PushAll(vs []T) {
	for _, v := range vs {
		l.Push(v)
	}
}

// Read drains every value newly available to cursor (i.e. values[old
// position:]) as a fresh slice, advances the cursor in place, and commits
// the refcount transfer (incrementing the new position, decrementing the
// old, pruning the head as far as possible). The returned slice is owned
// by the caller and safe to retain.
func (l *Log[T]) Read(c *Cursor) []T {
	oldIndex := l.ageToIndex(c.age)
	newIndex := len(l.values)
	var out []T
	if newIndex > oldIndex {
		out = make([]T, newIndex-oldIndex)
		copy(out, l.values[oldIndex:newIndex])
	}
	c.age = l.indexToAge(newIndex)
	l.incRef(newIndex)
	l.decRef(oldIndex)
	return out
}
