package dsu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingletons(t *testing.T) {
	d := New(3)
	assert.Equal(t, 3, d.Count())
	assert.False(t, d.Connected(0, 1))
	assert.False(t, d.Connected(1, 2))
}

func TestUnionAndFind(t *testing.T) {
	d := New(5)

	assert.True(t, d.Union(0, 1))
	assert.True(t, d.Union(3, 4))
	assert.False(t, d.Union(1, 0), "repeated union is a no-op")

	assert.True(t, d.Connected(0, 1))
	assert.False(t, d.Connected(1, 3))
	assert.Equal(t, 3, d.Count())

	assert.True(t, d.Union(1, 4))
	assert.True(t, d.Connected(0, 3))
	assert.Equal(t, 2, d.Count())
}

func TestTransitiveClustering(t *testing.T) {
	// 0-1, 1-2 links must place 0 and 2 in the same group.
	d := New(4)
	d.Union(0, 1)
	d.Union(1, 2)

	groups := d.Groups()
	assert.Len(t, groups, 2)
	assert.ElementsMatch(t, []int{0, 1, 2}, groups[d.Find(0)])
	assert.ElementsMatch(t, []int{3}, groups[d.Find(3)])
}

func TestPathCompressionKeepsAnswersStable(t *testing.T) {
	d := New(64)
	for i := 1; i < 64; i++ {
		d.Union(i-1, i)
	}
	root := d.Find(0)
	for i := 0; i < 64; i++ {
		assert.Equal(t, root, d.Find(i))
	}
	assert.Equal(t, 1, d.Count())
}
