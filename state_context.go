package reactor

import "github.com/loomstate/reactor/timer"

// StateContext is the per-evaluation handle passed to every user closure
// run by Update, PollOnce, PollStream, Subscribe, and the SubscribeEvent
// family. It must never be retained or used outside the closure it was
// passed to — the container unlocks immediately after the closure returns,
// and a StateContext used afterwards would race the next evaluation.
type StateContext struct {
	sg *stateGraph
}

// NotifyAt requests that, if the evaluation using this context ends up
// pending, the caller should also be woken at deadline even absent a
// notify. Calling it more than once within one evaluation keeps the
// earliest deadline regardless of call order (P7). During Update this has
// no observable effect: Update never registers dependencies or arms a
// wakeup, so there is nothing for the deadline to attach to.
func (cx *StateContext) NotifyAt(deadline timer.Deadline) {
	cx.sg.notifyAt(deadline)
}
