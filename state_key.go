package reactor

import (
	"runtime"
	"sync/atomic"

	"github.com/loomstate/reactor/internal/graph"
)

// keyState is the data a StateKey's deferred-removal cleanup needs. It is
// allocated separately from StateKey itself so the cleanup registered via
// runtime.AddCleanup never has to reference the StateKey it was created
// for (doing so would keep it reachable and the cleanup would never run).
type keyState struct {
	x        graph.SourceKey
	removals *removalList
	released atomic.Bool
}

func (ks *keyState) release() {
	if ks.released.CompareAndSwap(false, true) {
		ks.removals.push(ks.x)
	}
}

// StateKey is the identity of a reactive input: a source node in the
// dependency graph, owned by whatever state primitive (Value, Queue,
// EventChannel) embeds it.
//
// Source removal cannot happen synchronously when a StateKey stops being
// used — Go has no destructors, and the eventual garbage-collection of a
// StateKey can run on an arbitrary goroutine that must not assume the
// owning container's mutex is free. So, mirroring the Rust original's
// Drop-triggered deferred removal, a StateKey registers a
// runtime.AddCleanup callback that enqueues its removal the same way an
// explicit Close would; the owning stateGraph drains that queue at the
// start of every evaluation. Call Close explicitly wherever the lifetime
// is known (e.g. a dynamically removed map entry) rather than relying on
// GC timing.
type StateKey struct {
	ks      *keyState
	cleanup runtime.Cleanup
}

// NewStateKey allocates a new source in the graph behind cx.
func NewStateKey(cx *StateContext) *StateKey {
	x := cx.sg.g.InsertSource()
	ks := &keyState{x: x, removals: cx.sg.removals}
	k := &StateKey{ks: ks}
	k.cleanup = runtime.AddCleanup(k, (*keyState).release, ks)
	return k
}

// Watch records that the evaluation currently running under cx depends on
// this key. Idempotent: calling it more than once in the same evaluation
// produces exactly one edge (P9).
func (k *StateKey) Watch(cx *StateContext) {
	cx.sg.setSource(k.ks.x)
}

// Notify wakes every target currently depending on this key. Multiple
// notifies of the same key within one Update still wake each target only
// once (P3): taking a waker empties its slot.
func (k *StateKey) Notify(cx *StateContext) {
	cx.sg.wake(k.ks.x)
}

// Close releases the source immediately instead of waiting for GC to
// notice the StateKey is unreachable. Safe to call more than once.
func (k *StateKey) Close() {
	k.cleanup.Stop()
	k.ks.release()
}
