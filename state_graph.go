package reactor

import (
	"sync"

	"github.com/loomstate/reactor/internal/action"
	"github.com/loomstate/reactor/internal/graph"
	"github.com/loomstate/reactor/internal/intset"
	"github.com/loomstate/reactor/timer"
)

// removalList is the deferred-removal side channel for dropped StateKeys.
// StateKey removal can be triggered by a GC cleanup running on an arbitrary
// goroutine at an arbitrary time, so it cannot assume the container's
// mutex is free (or even that the container is still reachable). It only
// ever appends here; the owning stateGraph drains it at the start of every
// evaluation, under its own lock.
type removalList struct {
	mu      sync.Mutex
	pending []graph.SourceKey
}

func (r *removalList) push(x graph.SourceKey) {
	r.mu.Lock()
	r.pending = append(r.pending, x)
	r.mu.Unlock()
}

func (r *removalList) drain() []graph.SourceKey {
	r.mu.Lock()
	out := r.pending
	r.pending = nil
	r.mu.Unlock()
	return out
}

// stateGraph owns the bipartite graph, the current evaluation's source-set
// accumulator, the per-target waker slots, and the pending-deadline field.
// It is always accessed while the owning StateContainer's mutex is held.
type stateGraph struct {
	g         *graph.Graph
	wakers    []action.Action // indexed by TargetKey; nil entry = empty slot
	wakeAt    *timer.Deadline
	sourceSet intset.Set
	removals  *removalList
	timerSvc  *timer.Service
}

func newStateGraph(timerSvc *timer.Service) *stateGraph {
	if timerSvc == nil {
		timerSvc = timer.Default
	}
	return &stateGraph{
		g:        graph.New(),
		removals: &removalList{},
		timerSvc: timerSvc,
	}
}

func (sg *stateGraph) setSource(x graph.SourceKey) {
	sg.sourceSet.Insert(int(x))
}

func (sg *stateGraph) setWaker(t graph.TargetKey, a action.Action) {
	idx := int(t)
	if idx >= len(sg.wakers) {
		next := make([]action.Action, idx+1)
		copy(next, sg.wakers)
		sg.wakers = next
	}
	sg.wakers[idx] = a
}

func (sg *stateGraph) takeWaker(t graph.TargetKey) action.Action {
	idx := int(t)
	if idx < 0 || idx >= len(sg.wakers) {
		return nil
	}
	a := sg.wakers[idx]
	sg.wakers[idx] = nil
	return a
}

// removeTarget detaches a target from the graph and clears its waker slot.
func (sg *stateGraph) removeTarget(t graph.TargetKey) {
	sg.g.RemoveTarget(t)
	sg.takeWaker(t)
}

func (sg *stateGraph) applyDeferredRemovals() {
	for _, x := range sg.removals.drain() {
		sg.g.RemoveSource(x)
	}
}

// wake fires, at most once each, the wakers of every target adjacent to
// source x. Taking a waker empties its slot, so repeated notifies of the
// same source within one update still wake each target only once (P3).
func (sg *stateGraph) wake(x graph.SourceKey) {
	for t := range sg.g.TargetsFromSource(x) {
		if a := sg.takeWaker(t); a != nil {
			a.Call()
		}
	}
}

// notifyAt merges a requested deadline into the pending one, keeping the
// earlier of the two (P7), regardless of call order or clock domain.
func (sg *stateGraph) notifyAt(d timer.Deadline) {
	if sg.wakeAt == nil {
		cp := d
		sg.wakeAt = &cp
		return
	}
	merged := timer.Min(*sg.wakeAt, d)
	sg.wakeAt = &merged
}

// context drains deferred source removals and resets the pending deadline,
// then returns a context usable for exactly one evaluation. It does not
// clear the source-set accumulator: callers that track dependencies (the
// polling adapters) must clear it themselves before invoking this, and
// Update — which never registers dependencies — intentionally leaves it
// alone.
func (sg *stateGraph) context() *StateContext {
	sg.applyDeferredRemovals()
	sg.wakeAt = nil
	return &StateContext{sg: sg}
}

// commitTarget registers a fresh target for the sources touched during the
// evaluation just run, arms its waker, and — if the evaluation requested a
// deadline via notify_at — spawns a timer task that fires the same
// logical wakeup. makeAction is called once per use (graph waker, timer
// waker) since each commitment needs its own Action value.
func (sg *stateGraph) commitTarget(makeAction func() action.Action) (graph.TargetKey, *timer.Task) {
	t := sg.g.InsertTarget()
	for _, x := range sg.sourceSet.Values() {
		sg.g.InsertEdge(graph.SourceKey(x), t)
	}
	sg.setWaker(t, makeAction())
	var task *timer.Task
	if sg.wakeAt != nil {
		task = sg.timerSvc.SpawnAt(makeAction(), *sg.wakeAt)
	}
	return t, task
}
