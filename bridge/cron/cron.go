// Package cron bridges robfig/cron/v3 schedule expressions into the shared
// timer.Deadline vocabulary, and into a background dispatcher that can drive
// a StateContainer's state on every tick — the cron-driven source spec.md
// never describes but SPEC_FULL.md §B.2 adds, grounded on
// modules/scheduler's cron.Cron usage in the teacher repo.
package cron

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/loomstate/reactor"
	"github.com/loomstate/reactor/timer"
)

// NextCronDeadline parses expr (standard five-field cron syntax) and returns
// the wall-clock timer.Deadline for its next occurrence strictly after
// after. Returned as AtWallClock since a cron schedule is calendar-relative,
// not monotonic: a system clock adjustment should be observed the same way
// the shared timer service observes any other wall-clock deadline.
func NextCronDeadline(expr string, after time.Time) (timer.Deadline, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return timer.Deadline{}, fmt.Errorf("reactor/bridge/cron: invalid cron expression %q: %w: %w", expr, reactor.ErrInvalidCronExpression, err)
	}
	return timer.AtWallClock(sched.Next(after)), nil
}

// CatchUpPolicy controls how many missed ticks Dispatcher.Add replays for a
// schedule whose previous occurrence already elapsed by the time it's
// registered (e.g. the process was down), mirroring the teacher
// scheduler's backfill strategies in miniature.
type CatchUpPolicy int

const (
	// CatchUpNone fires only the next future occurrence; anything missed
	// while unregistered is skipped.
	CatchUpNone CatchUpPolicy = iota
	// CatchUpLast fires once for the single most recent missed occurrence,
	// then resumes normal scheduling.
	CatchUpLast
)

// dispatcherParser accepts an optional leading seconds field, matching
// cron.WithSeconds' own parser — so a Dispatcher can drive sub-minute
// schedules (e.g. "*/10 * * * * *" every ten seconds), which the teacher's
// scheduler module supports for its own short-interval jobs.
var dispatcherParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Dispatcher wraps a cron.Cron, handing each entry's registered callback a
// time.Time rather than taking no arguments. For a regular tick that time
// is time.Now() when the callback runs, at or shortly after the scheduled
// occurrence, not the occurrence's exact schedule time; only the CatchUpLast
// replay in Add passes the computed schedule time of the missed occurrence.
type Dispatcher struct {
	mu      sync.Mutex
	c       *cron.Cron
	started bool
}

// NewDispatcher returns a dispatcher; the underlying cron.Cron is not
// started until Start is called.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{c: cron.New(cron.WithParser(dispatcherParser))}
}

// Add registers expr with fire, invoked with time.Now() every time the
// expression matches. If policy is CatchUpLast and the expression's
// previous occurrence (relative to time.Now()) has already passed, fire is
// invoked once immediately for that occurrence before the entry is
// registered for future ticks.
func (d *Dispatcher) Add(expr string, policy CatchUpPolicy, fire func(time.Time)) (cron.EntryID, error) {
	sched, err := dispatcherParser.Parse(expr)
	if err != nil {
		return 0, fmt.Errorf("reactor/bridge/cron: invalid cron expression %q: %w: %w", expr, reactor.ErrInvalidCronExpression, err)
	}

	if policy == CatchUpLast {
		if missed, ok := previousOccurrence(sched, time.Now()); ok {
			fire(missed)
		}
	}

	return d.c.AddFunc(expr, func() { fire(time.Now()) })
}

// previousOccurrence estimates the most recent time sched would have fired
// at or before now, by stepping forward from a lookback window. cron.Schedule
// only exposes Next, not Prev, so this walks forward from well before now
// until stepping again would overshoot it.
func previousOccurrence(sched cron.Schedule, now time.Time) (time.Time, bool) {
	const lookback = 366 * 24 * time.Hour
	t := sched.Next(now.Add(-lookback))
	if t.After(now) {
		return time.Time{}, false
	}
	var last time.Time
	for !t.After(now) {
		last = t
		t = sched.Next(t)
	}
	return last, true
}

// Remove cancels a previously added entry.
func (d *Dispatcher) Remove(id cron.EntryID) {
	d.c.Remove(id)
}

// Start begins dispatching. Safe to call more than once; only the first
// call starts the underlying cron.Cron.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	d.c.Start()
}

// Stop halts the dispatcher and waits for any in-flight fire calls to
// return.
func (d *Dispatcher) Stop() {
	<-d.c.Stop().Done()
}
