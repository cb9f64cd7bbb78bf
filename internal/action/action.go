// Package action provides a type-erased one-shot callable abstracting over
// "wake a blocked goroutine" and "invoke an owned closure". It mirrors the
// four variants the reactive engine needs: a plain closure, a host-runtime
// wake signal, a strong-reference parameterized callback, and a
// weak-reference one that silently no-ops once its owner is gone.
package action

import "weak"

// Action is called at most once, from whichever goroutine is holding it
// when the wake fires (the container's updater, or the timer service's
// background goroutine). Implementations must not block and must not
// acquire the reactor's container lock synchronously.
type Action interface {
	Call()
}

type funcAction struct {
	f func()
}

func (a funcAction) Call() { a.f() }

// Func wraps a plain closure as an Action. Used both for the host-runtime
// wake signal (closing a channel) and for ad-hoc callbacks.
func Func(f func()) Action {
	return funcAction{f: f}
}

type strongAction[T any] struct {
	owner *T
	f     func(*T)
}

func (a strongAction[T]) Call() { a.f(a.owner) }

// Strong creates an action that keeps owner alive for as long as the action
// itself is reachable, invoking f against it when called.
func Strong[T any](owner *T, f func(*T)) Action {
	return strongAction[T]{owner: owner, f: f}
}

type weakAction[T any] struct {
	owner weak.Pointer[T]
	f     func(*T)
}

func (a weakAction[T]) Call() {
	if owner := a.owner.Value(); owner != nil {
		a.f(owner)
	}
}

// Weak creates an action that only invokes f if owner has not yet been
// garbage collected by the time the action fires. This gives race-free
// cancellation for callbacks registered against objects that may have been
// dropped between registration and wake: a stale wake against a reclaimed
// owner is simply a no-op instead of a use-after-free or a spurious
// wake of unrelated state.
func Weak[T any](owner *T, f func(*T)) Action {
	return weakAction[T]{owner: weak.Make(owner), f: f}
}
