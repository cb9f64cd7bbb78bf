package reactor

import (
	"context"
	"sync"

	"github.com/loomstate/reactor/internal/action"
	"github.com/loomstate/reactor/timer"
)

// Sleep blocks until deadline is reached or ctx is done, whichever comes
// first. Unlike timer.Service.Sleep (a fire-and-forget wait with no
// cancellation path), this is the standalone, context-aware wait SPEC_FULL.md
// §C.1 adds: a goroutine that needs to wait on a graph-external deadline
// without setting up a StateContainer at all.
func Sleep(ctx context.Context, deadline timer.Deadline) error {
	if deadline.Ready() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	var once sync.Once
	fire := func() { once.Do(func() { close(done) }) }
	task := timer.SpawnAt(action.Func(fire), deadline)
	defer task.Cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
