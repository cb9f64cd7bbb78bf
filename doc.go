// Package reactor implements a reactive state container for concurrent,
// event-driven Go programs: a shared piece of application state together
// with a dependency-tracking mechanism that automatically recomputes
// derived views and wakes waiting consumers whenever the inputs they
// touched have changed.
//
// The core is four tightly coupled pieces: a bipartite dependency graph
// (internal/graph) recording which waiters read which keys, state
// primitives (Value, Queue, EventChannel) that expose dependency-aware
// reads/writes atop that graph, reactive adapters (PollOnce, PollStream,
// Subscribe, SubscribeEvent) that turn the graph's pending/ready logic into
// iterator sequences and cancellable blocking calls, and a shared timer
// service (the timer package) integrating wall-clock and monotonic
// deadlines with the graph.
//
// A mutating operation calls Update, which locks the container, runs a
// caller closure against the raw state plus a *StateContext, and releases
// the lock. A waiter calls one of the polling adapters, which acquires the
// lock, clears stale dependency records, runs the caller closure against
// the context (recording fresh dependencies and optionally a deadline),
// then either returns a value or arms a wakeup and blocks.
package reactor
