package intset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_InsertIsIdempotent(t *testing.T) {
	var s Set
	first := s.Insert(5)
	second := s.Insert(5)

	assert.True(t, first, "first insert of a new value reports true")
	assert.False(t, second, "re-inserting the same value reports false")
	assert.Equal(t, 1, s.Len())
}

func TestSet_ValuesReturnsEveryInsertedMember(t *testing.T) {
	var s Set
	s.Insert(3)
	s.Insert(1)
	s.Insert(4)

	assert.ElementsMatch(t, []int{3, 1, 4}, s.Values())
}

func TestSet_ClearEmptiesTheSetButKeepsCapacity(t *testing.T) {
	var s Set
	s.Insert(2)
	s.Insert(9)

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Values())

	assert.True(t, s.Insert(2), "value is insertable again after Clear")
}

func TestSet_GrowsToAccommodateLargeValues(t *testing.T) {
	var s Set
	assert.True(t, s.Insert(100))
	assert.Equal(t, 1, s.Len())
}
