package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SearchOrdersByCosine(t *testing.T) {
	idx := NewMemory()
	require.NoError(t, idx.Add("x", []float32{1, 0, 0}))
	require.NoError(t, idx.Add("y", []float32{0, 1, 0}))
	require.NoError(t, idx.Add("xy", []float32{1, 1, 0}))

	matches, err := idx.Search([]float32{2, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "x", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.Equal(t, "xy", matches[1].ID)
	assert.InDelta(t, 0.7071, matches[1].Score, 1e-4)
	assert.Equal(t, "y", matches[2].ID)
}

func TestMemory_TiesKeepInsertionOrder(t *testing.T) {
	idx := NewMemory()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, idx.Add(id, []float32{1, 1}))
	}

	matches, err := idx.Search([]float32{1, 1}, 4)
	require.NoError(t, err)

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestMemory_KLargerThanIndex(t *testing.T) {
	idx := NewMemory()
	require.NoError(t, idx.Add("a", []float32{1, 0}))

	matches, err := idx.Search([]float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMemory_Empty(t *testing.T) {
	idx := NewMemory()
	matches, err := idx.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 0, idx.Len())
}

func TestMemory_DimensionMismatch(t *testing.T) {
	idx := NewMemory()
	require.NoError(t, idx.Add("a", []float32{1, 0}))
	assert.Error(t, idx.Add("b", []float32{1, 0, 0}))
	assert.Error(t, idx.Add("c", nil))

	_, err := idx.Search([]float32{1, 0, 0}, 1)
	assert.Error(t, err)
}

func TestMemory_Reset(t *testing.T) {
	idx := NewMemory()
	require.NoError(t, idx.Add("a", []float32{1, 0}))
	idx.Reset()
	assert.Equal(t, 0, idx.Len())

	require.NoError(t, idx.Add("b", []float32{1, 0, 0}))
	assert.Equal(t, 1, idx.Len())
}
