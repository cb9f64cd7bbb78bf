package reactor

import (
	"sync"

	"github.com/loomstate/reactor/internal/action"
)

// wakeSignal is a single-fire broadcaster: the host-runtime "waker"
// variant of Action (spec.md §9). Multiple Action instances may reference
// the same wakeSignal (one stored as the graph waker, one handed to the
// timer service for a notify_at deadline); firing it twice is safe because
// closing the channel is guarded by sync.Once.
type wakeSignal struct {
	once sync.Once
	ch   chan struct{}
}

func newWakeSignal() *wakeSignal {
	return &wakeSignal{ch: make(chan struct{})}
}

func (w *wakeSignal) fire() {
	w.once.Do(func() { close(w.ch) })
}

func (w *wakeSignal) action() action.Action {
	return action.Func(w.fire)
}
