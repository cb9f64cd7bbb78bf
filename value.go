package reactor

// Value holds a single payload of type T plus the source key that ties it
// into the dependency graph.
type Value[T any] struct {
	value T
	key   *StateKey
}

// NewValue constructs a Value seeded with v.
func NewValue[T any](v T, cx *StateContext) *Value[T] {
	return &Value[T]{value: v, key: NewStateKey(cx)}
}

// Get records a dependency on this value and returns it. Invariant: any
// evaluation that called Get must be re-evaluated by a subsequent Set or
// GetMut, before it observes anything else (P1).
func (v *Value[T]) Get(cx *StateContext) T {
	v.key.Watch(cx)
	return v.value
}

// GetMut returns an exclusive reference to the payload for in-place
// mutation. It notifies eagerly — before the caller has actually mutated
// anything — because the caller is about to, and the alternative (deferring
// the notify to scope end) would need to track whether a mutation actually
// happened. This is the conservative behavior spec.md §9 calls out as an
// open choice; DESIGN.md records the decision.
func (v *Value[T]) GetMut(cx *StateContext) *T {
	v.key.Notify(cx)
	v.key.Watch(cx)
	return &v.value
}

// Set replaces the payload, notifying dependents first (so the old value is
// still visible to anything currently mid-wake, mirroring GetMut).
func (v *Value[T]) Set(value T, cx *StateContext) {
	v.key.Notify(cx)
	v.value = value
}

// Close releases the value's source key immediately rather than waiting
// for GC. Only needed when a Value is being discarded before the state
// struct that owns it (e.g. removed from a map of dynamically created
// entities).
func (v *Value[T]) Close() {
	v.key.Close()
}
