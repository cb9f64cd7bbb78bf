package reactor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	v *Value[int]
}

func TestValue_PollOnceBlocksUntilPredicateIsTrue(t *testing.T) {
	c := New(func(cx *StateContext) *counterState {
		return &counterState{v: NewValue(0, cx)}
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		Update(c, func(s *counterState, cx *StateContext) struct{} {
			s.v.Set(42, cx)
			return struct{}{}
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := PollOnce(ctx, c, func(s *counterState, cx *StateContext) (int, bool) {
		v := s.v.Get(cx)
		return v, v != 0
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestValue_PollOnceReturnsCtxErrOnCancellation(t *testing.T) {
	c := New(func(cx *StateContext) *counterState {
		return &counterState{v: NewValue(0, cx)}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := PollOnce(ctx, c, func(s *counterState, cx *StateContext) (int, bool) {
		return s.v.Get(cx), false
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestValue_GetMutNotifiesEagerly(t *testing.T) {
	c := New(func(cx *StateContext) *counterState {
		return &counterState{v: NewValue(0, cx)}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ready := make(chan struct{})
	go func() {
		<-ready
		time.Sleep(20 * time.Millisecond)
		Update(c, func(s *counterState, cx *StateContext) struct{} {
			*s.v.GetMut(cx) = 7
			return struct{}{}
		})
	}()

	var once sync.Once
	got, err := PollOnce(ctx, c, func(s *counterState, cx *StateContext) (int, bool) {
		once.Do(func() { close(ready) })
		v := s.v.Get(cx)
		return v, v == 7
	})

	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

type queueState struct {
	q *Queue[string]
}

func TestQueue_PollOnceWakesOnEmptyToNonEmptyTransition(t *testing.T) {
	c := New(func(cx *StateContext) *queueState {
		return &queueState{q: NewQueue[string](cx)}
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		Update(c, func(s *queueState, cx *StateContext) struct{} {
			s.q.Push("hello", cx)
			return struct{}{}
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := PollOnce(ctx, c, func(s *queueState, cx *StateContext) (string, bool) {
		return s.q.Pop(cx)
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestQueueReader_FetchSwapsBacklogInOneShot(t *testing.T) {
	c := New(func(cx *StateContext) *queueState {
		return &queueState{q: NewQueue[string](cx)}
	})

	Update(c, func(s *queueState, cx *StateContext) struct{} {
		s.q.Push("a", cx)
		s.q.Push("b", cx)
		return struct{}{}
	})

	var reader *QueueReader[string]
	Update(c, func(s *queueState, cx *StateContext) struct{} {
		reader = NewQueueReader[string]()
		ok := reader.Fetch(s.q, cx)
		require.True(t, ok)
		return struct{}{}
	})

	assert.Equal(t, []string{"a", "b"}, reader.Drain())
	assert.Equal(t, 0, reader.Len())
}

type toggleState struct {
	v *Value[int]
}

func TestSubscribe_YieldsCurrentValueFirstThenEveryChange(t *testing.T) {
	c := New(func(cx *StateContext) *toggleState {
		return &toggleState{v: NewValue(0, cx)}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		Update(c, func(s *toggleState, cx *StateContext) struct{} {
			s.v.Set(1, cx)
			return struct{}{}
		})
		time.Sleep(10 * time.Millisecond)
		Update(c, func(s *toggleState, cx *StateContext) struct{} {
			s.v.Set(2, cx)
			return struct{}{}
		})
	}()

	var got []int
	for v := range Subscribe(ctx, c, func(s *toggleState, cx *StateContext) int {
		return s.v.Get(cx)
	}) {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}

	assert.Equal(t, []int{0, 1, 2}, got)
}

type eventState struct {
	ch *EventChannel[string]
}

func TestSubscribeEvent_DoesNotDeliverEventsSentBeforeSubscription(t *testing.T) {
	c := New(func(cx *StateContext) *eventState {
		return &eventState{ch: NewEventChannel[string](cx)}
	})

	Update(c, func(s *eventState, cx *StateContext) struct{} {
		s.ch.Send("before", cx)
		return struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		time.Sleep(20 * time.Millisecond)
		Update(c, func(s *eventState, cx *StateContext) struct{} {
			s.ch.Send("after", cx)
			return struct{}{}
		})
	}()

	var got string
	for v := range SubscribeEvent(ctx, c, func(s *eventState) *EventChannel[string] { return s.ch }) {
		got = v
		break
	}

	assert.Equal(t, "after", got)
}

func TestSubscribeEvent_DeliversMultipleSendsInOrder(t *testing.T) {
	c := New(func(cx *StateContext) *eventState {
		return &eventState{ch: NewEventChannel[string](cx)}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		Update(c, func(s *eventState, cx *StateContext) struct{} {
			s.ch.SendAll([]string{"x", "y", "z"}, cx)
			return struct{}{}
		})
	}()

	var got []string
	for v := range SubscribeEvent(ctx, c, func(s *eventState) *EventChannel[string] { return s.ch }) {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}

	assert.Equal(t, []string{"x", "y", "z"}, got)
}

func TestPollStream_EndsSequenceOnDone(t *testing.T) {
	c := New(func(cx *StateContext) *counterState {
		return &counterState{v: NewValue(0, cx)}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		for i := 1; i <= 3; i++ {
			time.Sleep(10 * time.Millisecond)
			Update(c, func(s *counterState, cx *StateContext) struct{} {
				s.v.Set(i, cx)
				return struct{}{}
			})
		}
	}()

	var got []int
	last := 0
	for v := range PollStream(ctx, c, func(s *counterState, cx *StateContext) (int, PollResult) {
		n := s.v.Get(cx)
		if n == last {
			return 0, Pending
		}
		last = n
		if n == 3 {
			return n, Done
		}
		return n, Ready
	}) {
		got = append(got, v)
	}

	assert.Equal(t, []int{1, 2}, got)
}

func TestGraphStats_ReflectsOutstandingPollRegistration(t *testing.T) {
	c := New(func(cx *StateContext) *counterState {
		return &counterState{v: NewValue(0, cx)}
	})

	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		close(started)
		_, _ = PollOnce(ctx, c, func(s *counterState, cx *StateContext) (int, bool) {
			return s.v.Get(cx), false
		})
		close(stopped)
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	_, targets, edges := GraphStats(c)
	assert.Equal(t, 1, targets)
	assert.Equal(t, 1, edges)

	cancel()
	<-stopped
	time.Sleep(20 * time.Millisecond)

	_, targets, edges = GraphStats(c)
	assert.Equal(t, 0, targets)
	assert.Equal(t, 0, edges)
}
