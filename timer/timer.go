// Package timer implements the shared wall-clock/monotonic timer service
// described in spec.md §4.6: a lazily-started, idle-shutting-down
// background goroutine servicing two deadline queues, used by the reactive
// adapters to arm a wakeup for notify_at deadlines and by Sleep/SpawnAt for
// standalone deadline waits.
package timer

import (
	"sync"
	"time"

	"github.com/loomstate/reactor/internal/action"
	"github.com/loomstate/reactor/internal/deadlineq"
)

// IdleWindow is how long the background goroutine waits with nothing to do
// before it stops; a future SpawnAt restarts it.
const IdleWindow = 4 * time.Second

// WallClockRecheckCap bounds how long a single wait can block when any
// wall-clock deadline is pending, so a system-clock jump is noticed within
// one second instead of sleeping through it.
const WallClockRecheckCap = 1 * time.Second

// Deadline is either a monotonic-clock instant, a wall-clock instant, or a
// relative duration (resolved to a monotonic instant when After is called).
type Deadline struct {
	at    time.Time
	wall  bool
}

// At builds a monotonic-clock deadline from an instant obtained via
// time.Now() (or arithmetic on one), matched against time.Now() each tick —
// immune to wall-clock adjustments.
func At(t time.Time) Deadline { return Deadline{at: t, wall: false} }

// AtWallClock builds a deadline matched against an absolute calendar time
// (e.g. "9am tomorrow"), matched against time.Now() but re-derived from the
// wall-clock queue so a system time change is observed within
// WallClockRecheckCap.
func AtWallClock(t time.Time) Deadline { return Deadline{at: t, wall: true} }

// After builds a monotonic deadline a duration from now.
func After(d time.Duration) Deadline { return Deadline{at: time.Now().Add(d), wall: false} }

// Ready reports whether the deadline has already passed.
func (d Deadline) Ready() bool { return !d.at.After(time.Now()) }

// Min returns whichever of a, b resolves first.
func Min(a, b Deadline) Deadline {
	if a.at.Before(b.at) {
		return a
	}
	return b
}

// Task is the cancellation handle returned by SpawnAt. Cancel is
// idempotent: cancelling an already-fired or already-cancelled task is a
// no-op (P8).
type Task struct {
	svc  *Service
	wall bool
	id   uint64
}

// Cancel removes the pending entry if it hasn't fired yet.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.svc.cancel(t.wall, t.id)
}

// Service is a timer service instance. Production code uses the package
// singleton (Default) via the package-level SpawnAt/Sleep helpers; tests
// may construct private instances to avoid cross-test interference.
type Service struct {
	mu        sync.Mutex
	cond      *sync.Cond
	monotonic *deadlineq.Queue
	wallclock *deadlineq.Queue
	running   bool
}

// New returns a fresh, not-yet-running timer service.
func New() *Service {
	s := &Service{
		monotonic: deadlineq.New(),
		wallclock: deadlineq.New(),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Default is the process-wide timer service used by the package-level
// SpawnAt/Sleep functions.
var Default = New()

// SpawnAt arms act to fire at deadline on the default service.
func SpawnAt(act action.Action, deadline Deadline) *Task {
	return Default.SpawnAt(act, deadline)
}

// Sleep blocks the calling goroutine until deadline on the default service.
// It takes no context and cannot be cancelled; reactor.Sleep is the
// context-aware variant. This mirrors the original's fire-and-forget
// sleep() for standalone use.
func Sleep(deadline Deadline) {
	Default.Sleep(deadline)
}

// SpawnAt arms act to fire at deadline, returning a handle that cancels it.
// A deadline already in the past resolves on the service's next loop
// iteration rather than being treated as an error.
func (s *Service) SpawnAt(act action.Action, deadline Deadline) *Task {
	s.mu.Lock()
	q := s.monotonic
	if deadline.wall {
		q = s.wallclock
	}
	id, becameEarliest := q.Insert(deadline.at, act)
	s.armLocked(becameEarliest)
	s.mu.Unlock()
	return &Task{svc: s, wall: deadline.wall, id: id}
}

// armLocked must be called with s.mu held. It starts the background
// goroutine if idle, or signals it if already running and the new entry
// moved the earliest deadline earlier.
func (s *Service) armLocked(becameEarliest bool) {
	if !s.running {
		s.running = true
		go s.run()
		return
	}
	if becameEarliest {
		s.cond.Broadcast()
	}
}

func (s *Service) cancel(wall bool, id uint64) {
	s.mu.Lock()
	q := s.monotonic
	if wall {
		q = s.wallclock
	}
	q.Remove(id)
	if s.monotonic.Empty() && s.wallclock.Empty() {
		s.cond.Broadcast()
	}
	s.mu.Unlock()
}

// Sleep blocks the calling goroutine until deadline is reached. A deadline
// already past returns immediately without touching the timer queues.
func (s *Service) Sleep(deadline Deadline) {
	if deadline.Ready() {
		return
	}
	done := make(chan struct{})
	var once sync.Once
	fire := func() { once.Do(func() { close(done) }) }
	task := s.SpawnAt(action.Func(fire), deadline)
	<-done
	task.Cancel()
}

// run is the background goroutine body: repeatedly pop and invoke whatever
// deadline has arrived, preferring monotonic over wall-clock when both are
// ready, and exits once both queues are empty and no action has fired for
// IdleWindow (counted from the last fired action, or from the goroutine's
// start if none has fired).
func (s *Service) run() {
	lastActivity := time.Now()
	for {
		s.mu.Lock()
		now := time.Now()
		if act, ok := s.monotonic.PopReady(now); ok {
			s.mu.Unlock()
			act.Call()
			lastActivity = time.Now()
			continue
		}
		if act, ok := s.wallclock.PopReady(now); ok {
			s.mu.Unlock()
			act.Call()
			lastActivity = time.Now()
			continue
		}

		wait := s.nextWaitLocked(now)
		if wait <= 0 {
			if time.Since(lastActivity) >= IdleWindow {
				s.running = false
				s.mu.Unlock()
				return
			}
			wait = IdleWindow
		}
		s.waitLocked(wait)
		s.mu.Unlock()
	}
}

// nextWaitLocked computes how long run() should block before rechecking,
// applying the wall-clock recheck cap, with s.mu held.
func (s *Service) nextWaitLocked(now time.Time) time.Duration {
	hasWait := false
	var wait time.Duration
	if at, ok := s.monotonic.PeekDeadline(); ok {
		wait = at.Sub(now)
		hasWait = true
	}
	if at, ok := s.wallclock.PeekDeadline(); ok {
		d := at.Sub(now)
		if d > WallClockRecheckCap {
			d = WallClockRecheckCap
		}
		if !hasWait || d < wait {
			wait = d
			hasWait = true
		}
	}
	if !hasWait {
		return 0
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

// waitLocked sleeps on the condition variable for at most d, releasing and
// reacquiring s.mu the way sync.Cond.Wait does. It wakes early if armLocked
// or cancel broadcasts (a new earlier deadline was armed, or a cancellation
// emptied both queues). A spurious extra wake from the timer firing just as
// the condition is independently signaled is harmless: run() simply
// recomputes its wait on the next loop iteration.
func (s *Service) waitLocked(d time.Duration) {
	timer := time.AfterFunc(d, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer timer.Stop()
	s.cond.Wait()
}
