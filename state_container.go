package reactor

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/loomstate/reactor/internal/action"
	"github.com/loomstate/reactor/internal/evlog"
	"github.com/loomstate/reactor/timer"
)

// StateContainer holds a user-defined state struct behind a mutex together
// with the dependency graph (§4.5). Raw state and graph are always
// accessed together, under the same lock.
type StateContainer[S any] struct {
	mu  sync.Mutex
	raw *S
	g   *stateGraph
}

// Option configures a StateContainer at construction.
type Option func(*containerOptions)

type containerOptions struct {
	timerSvc *timer.Service
}

// WithTimerService overrides the process-wide default timer service —
// mainly useful in tests that want an isolated timer instance.
func WithTimerService(s *timer.Service) Option {
	return func(o *containerOptions) { o.timerSvc = s }
}

// New constructs a container, running init with a context to materialize
// the initial state.
func New[S any](init func(*StateContext) S, opts ...Option) *StateContainer[S] {
	var o containerOptions
	for _, opt := range opts {
		opt(&o)
	}
	g := newStateGraph(o.timerSvc)
	cx := g.context()
	st := init(cx)
	return &StateContainer[S]{raw: &st, g: g}
}

// GraphStats reports the current number of live sources, targets, and edges
// in the container's dependency graph, for bridge/debugserver's
// introspection endpoint.
func GraphStats[S any](c *StateContainer[S]) (sources, targets, edges int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.g.g.Stats()
}

// Update locks the container, runs f against the raw state and a fresh
// context, and unlocks. Update never registers dependencies — it clears
// the pending deadline and applies deferred source removals, but leaves
// the source-set accumulator untouched, since nothing reads it here.
func Update[S any, T any](c *StateContainer[S], f func(*S, *StateContext) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	cx := c.g.context()
	return f(c.raw, cx)
}

// PollOnce evaluates f repeatedly, blocking between evaluations, until f
// reports ready or ctx is done. Each evaluation clears the previous
// target's dependencies before running f, so only the sources touched by
// the most recent evaluation are watched.
func PollOnce[S any, T any](ctx context.Context, c *StateContainer[S], f func(*S, *StateContext) (T, bool)) (T, error) {
	var ps pollState
	defer func() {
		c.mu.Lock()
		ps.releaseLocked(c.g)
		c.mu.Unlock()
	}()
	for {
		v, ready, ws := pollOnceStep(c, &ps, f)
		if ready {
			return v, nil
		}
		select {
		case <-ws.ch:
			continue
		case <-ctx.Done():
			var zero T
			return zero, fmt.Errorf("%w: %w", ErrPollCanceled, ctx.Err())
		}
	}
}

func pollOnceStep[S any, T any](c *StateContainer[S], ps *pollState, f func(*S, *StateContext) (T, bool)) (T, bool, *wakeSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps.releaseLocked(c.g)
	c.g.sourceSet.Clear()
	cx := c.g.context()
	v, ready := f(c.raw, cx)
	if ready {
		return v, true, nil
	}
	ws := newWakeSignal()
	ps.commitLocked(c.g, ws.action)
	return v, false, ws
}

// PollResult is the tri-state result a PollStream evaluator returns: more
// work pending, a value ready now, or the sequence is finished.
type PollResult int

const (
	Pending PollResult = iota
	Ready
	Done
)

// PollStream evaluates f repeatedly, yielding each Ready value, blocking
// while Pending, and ending the sequence on Done or context cancellation.
// Breaking out of the consuming range loop tears the scope down the same
// way ctx cancellation does (target removed, timer canceled).
func PollStream[S any, T any](ctx context.Context, c *StateContainer[S], f func(*S, *StateContext) (T, PollResult)) iter.Seq[T] {
	return func(yield func(T) bool) {
		var ps pollState
		defer func() {
			c.mu.Lock()
			ps.releaseLocked(c.g)
			c.mu.Unlock()
		}()
		for {
			v, res, ws := pollStreamStep(c, &ps, f)
			switch res {
			case Ready:
				if !yield(v) {
					return
				}
			case Done:
				return
			default:
				select {
				case <-ws.ch:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func pollStreamStep[S any, T any](c *StateContainer[S], ps *pollState, f func(*S, *StateContext) (T, PollResult)) (T, PollResult, *wakeSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps.releaseLocked(c.g)
	c.g.sourceSet.Clear()
	cx := c.g.context()
	v, res := f(c.raw, cx)
	if res != Pending {
		return v, res, nil
	}
	ws := newWakeSignal()
	ps.commitLocked(c.g, ws.action)
	return v, res, ws
}

// subscribeState is the age-tagged dirty/waker bookkeeping behind
// Subscribe, guarded by its own mutex (never the container's), matching
// spec.md §4.5 and the "age-tagged subscription wakes" design note: a wake
// only sets dirty if it still matches the evaluation it was armed for,
// so a stale wake from a superseded evaluation can neither cause spurious
// re-work nor be lost.
type subscribeState struct {
	mu    sync.Mutex
	age   uint64
	dirty bool
	wake  chan struct{}
}

func (ws *subscribeState) onWake(age uint64) {
	ws.mu.Lock()
	if ws.age != age {
		ws.mu.Unlock()
		return
	}
	ws.dirty = true
	wake := ws.wake
	ws.wake = nil
	ws.mu.Unlock()
	if wake != nil {
		close(wake)
	}
}

// Subscribe returns an always-ready-first lazy sequence of f's value, one
// per observed change to the sources f touched during its last evaluation
// (a pure derivation: values are produced, not consumed, so nothing is
// dropped if the consumer stops pulling).
func Subscribe[S any, T any](ctx context.Context, c *StateContainer[S], f func(*S, *StateContext) T) iter.Seq[T] {
	return func(yield func(T) bool) {
		ws := &subscribeState{dirty: true}
		var ps pollState
		defer func() {
			c.mu.Lock()
			ps.releaseLocked(c.g)
			c.mu.Unlock()
		}()
		for {
			v, produced, waitCh := subscribeStep(c, &ps, ws, f)
			if produced {
				if !yield(v) {
					return
				}
				continue
			}
			select {
			case <-waitCh:
				continue
			case <-ctx.Done():
				return
			}
		}
	}
}

func subscribeStep[S any, T any](c *StateContainer[S], ps *pollState, ws *subscribeState, f func(*S, *StateContext) T) (T, bool, chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ws.mu.Lock()
	if !ws.dirty {
		myWake := make(chan struct{})
		ws.wake = myWake
		ws.mu.Unlock()
		var zero T
		return zero, false, myWake
	}
	ps.releaseLocked(c.g)
	c.g.sourceSet.Clear()
	ws.age++
	age := ws.age
	ws.dirty = false
	ws.mu.Unlock()

	cx := c.g.context()
	v := f(c.raw, cx)
	ps.commitLocked(c.g, func() action.Action {
		return action.Strong(ws, func(w *subscribeState) { w.onWake(age) })
	})
	return v, true, nil
}

// SubscribeEvent returns a lazy sequence draining a cursor created (via an
// Update) at the moment of subscription: events sent before this call are
// not delivered (P6); events sent after are, each exactly once, in
// insertion order (P5).
func SubscribeEvent[S any, T any](ctx context.Context, c *StateContainer[S], channel func(*S) *EventChannel[T]) iter.Seq[T] {
	return SubscribeEventWith[S, T, T](ctx, c, channel,
		func(*S, *StateContext) []T { return nil },
		func(v T) (T, bool) { return v, true },
	)
}

// SubscribeEventWith is SubscribeEvent generalized with an initializer (run
// inside the same Update that creates the cursor, for synthesizing a
// "current snapshot" first batch) and a filter/map applied to every log
// entry as it is drained.
func SubscribeEventWith[S any, T any, U any](
	ctx context.Context,
	c *StateContainer[S],
	channel func(*S) *EventChannel[T],
	initFn func(*S, *StateContext) []U,
	filterMap func(T) (U, bool),
) iter.Seq[U] {
	return func(yield func(U) bool) {
		var cursor evlog.Cursor
		var buf []U
		Update(c, func(st *S, cx *StateContext) struct{} {
			buf = initFn(st, cx)
			cursor = channel(st).log.CreateCursor()
			return struct{}{}
		})
		defer func() {
			c.mu.Lock()
			channel(c.raw).log.ReleaseCursor(cursor)
			c.mu.Unlock()
		}()

		var ps pollState
		defer func() {
			c.mu.Lock()
			ps.releaseLocked(c.g)
			c.mu.Unlock()
		}()

		for {
			if len(buf) > 0 {
				v := buf[0]
				buf = buf[1:]
				if !yield(v) {
					return
				}
				continue
			}
			ws := subscribeEventStep(c, &ps, &cursor, channel, filterMap, &buf)
			if len(buf) > 0 {
				continue
			}
			select {
			case <-ws.ch:
				continue
			case <-ctx.Done():
				return
			}
		}
	}
}

func subscribeEventStep[S any, T any, U any](
	c *StateContainer[S],
	ps *pollState,
	cursor *evlog.Cursor,
	channel func(*S) *EventChannel[T],
	filterMap func(T) (U, bool),
	buf *[]U,
) *wakeSignal {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps.releaseLocked(c.g)
	c.g.sourceSet.Clear()
	cx := c.g.context()

	ch := channel(c.raw)
	for _, v := range ch.log.Read(cursor) {
		if u, ok := filterMap(v); ok {
			*buf = append(*buf, u)
		}
	}
	if len(*buf) > 0 {
		return nil
	}
	ch.key.Watch(cx)
	ws := newWakeSignal()
	ps.commitLocked(c.g, ws.action)
	return ws
}
