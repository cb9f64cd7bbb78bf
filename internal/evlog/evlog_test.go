package evlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_CursorOnlySeesValuesPushedAfterCreation(t *testing.T) {
	l := New[int]()
	l.Push(1) // dropped: no live cursor

	c := l.CreateCursor()
	l.Push(2)
	l.Push(3)

	got := l.Read(&c)
	assert.Equal(t, []int{2, 3}, got)
}

func TestLog_MultipleCursorsAreIndependent(t *testing.T) {
	l := New[int]()
	c1 := l.CreateCursor()
	l.Push(1)
	c2 := l.CreateCursor()
	l.Push(2)

	got1 := l.Read(&c1)
	got2 := l.Read(&c2)

	assert.Equal(t, []int{1, 2}, got1)
	assert.Equal(t, []int{2}, got2)
}

func TestLog_ReadTwiceInARowReturnsOnlyNewValues(t *testing.T) {
	l := New[int]()
	c := l.CreateCursor()
	l.Push(1)

	first := l.Read(&c)
	second := l.Read(&c)

	assert.Equal(t, []int{1}, first)
	assert.Empty(t, second)
}

func TestLog_PushWithNoLiveCursorIsDropped(t *testing.T) {
	l := New[int]()
	l.Push(1)
	l.Push(2)

	c := l.CreateCursor()
	assert.Empty(t, l.Read(&c), "nothing could ever have observed the pre-cursor pushes")
}

func TestLog_ReleaseCursorPrunesUnreachableHead(t *testing.T) {
	l := New[int]()
	c1 := l.CreateCursor()
	l.Push(1)
	l.Push(2)
	l.Read(&c1)

	l.ReleaseCursor(c1)

	// No cursors remain, so a subsequent push with no new cursor created
	// is dropped again — demonstrating the head was fully pruned.
	l.Push(3)
	c2 := l.CreateCursor()
	assert.Empty(t, l.Read(&c2))
}

func TestLog_ReleaseUnknownCursorPanics(t *testing.T) {
	l := New[int]()
	c := l.CreateCursor()
	l.ReleaseCursor(c)

	assert.Panics(t, func() { l.ReleaseCursor(c) }, "double release underflows the refcount")
}

func TestLog_PushAllAppendsEveryValue(t *testing.T) {
	l := New[string]()
	c := l.CreateCursor()
	l.PushAll([]string{"a", "b", "c"})

	require.Equal(t, []string{"a", "b", "c"}, l.Read(&c))
}
