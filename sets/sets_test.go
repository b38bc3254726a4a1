package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSortsAndDeduplicates(t *testing.T) {
	assert.Equal(t, []int{1, 2, 5}, New(5, 2, 1, 2, 5))
	assert.Empty(t, New())
}

func TestUnionIntersectDifference(t *testing.T) {
	a := New(1, 3, 5)
	b := New(2, 3, 4)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, Union(a, b))
	assert.Equal(t, []int{3}, Intersect(a, b))
	assert.Equal(t, []int{1, 5}, Difference(a, b))
	assert.Equal(t, []int{2, 4}, Difference(b, a))
}

func TestDisjointSubsetEqual(t *testing.T) {
	assert.True(t, IsDisjoint(New(1, 2), New(3, 4)))
	assert.False(t, IsDisjoint(New(1, 2), New(2, 3)))
	assert.True(t, IsSubset(New(1, 2), New(1, 2, 3)))
	assert.False(t, IsSubset(New(1, 4), New(1, 2, 3)))
	assert.True(t, IsSubset(nil, New(1)))
	assert.True(t, Equal(New(2, 1), New(1, 2)))
	assert.False(t, Equal(New(1), New(1, 2)))
}

func TestInsertRemoveContains(t *testing.T) {
	s := New(1, 3)
	assert.Equal(t, []int{1, 2, 3}, Insert(s, 2))
	assert.Equal(t, []int{1, 3}, Insert(s, 3))
	assert.Equal(t, []int{1}, Remove(s, 3))
	assert.Equal(t, []int{1, 3}, s, "insert and remove must not mutate the receiver")
	assert.True(t, Contains(s, 3))
	assert.False(t, Contains(s, 2))
}
