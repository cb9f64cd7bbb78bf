package reactor

import (
	"github.com/loomstate/reactor/internal/action"
	"github.com/loomstate/reactor/internal/graph"
	"github.com/loomstate/reactor/timer"
)

// pollState tracks the one outstanding target/timer registration a polling
// adapter scope owns between polls, implementing the state machine from
// spec.md §4.5: unregistered, registered (waker armed, optional timer), or
// torn down on scope drop. Every method must be called with the owning
// container's mutex held.
type pollState struct {
	key  *graph.TargetKey
	task *timer.Task
}

// releaseLocked removes any currently registered target and cancels any
// pending timer task. Safe to call when nothing is registered.
func (p *pollState) releaseLocked(sg *stateGraph) {
	if p.key != nil {
		sg.removeTarget(*p.key)
		p.key = nil
	}
	if p.task != nil {
		p.task.Cancel()
		p.task = nil
	}
}

// commitLocked registers a fresh target for the sources touched during the
// evaluation just run via sg, arming its waker (and, if the evaluation
// requested a deadline, a timer task) from wakerFactory.
func (p *pollState) commitLocked(sg *stateGraph, wakerFactory func() action.Action) {
	t, task := sg.commitTarget(wakerFactory)
	p.key = &t
	p.task = task
}
