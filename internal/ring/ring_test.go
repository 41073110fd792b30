package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_PushUntilFull(t *testing.T) {
	b := New[int](3)
	assert.False(t, b.Push(1))
	assert.False(t, b.Push(2))
	assert.False(t, b.Push(3))

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 3, b.Cap())
	assert.Equal(t, []int{1, 2, 3}, b.Snapshot())
}

func TestBuffer_EvictsOldest(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 5; i++ {
		b.Push(i)
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []int{3, 4, 5}, b.Snapshot())

	newest, ok := b.Newest()
	require.True(t, ok)
	assert.Equal(t, 5, newest)

	oldest, ok := b.At(0)
	require.True(t, ok)
	assert.Equal(t, 3, oldest)
}

func TestBuffer_Last(t *testing.T) {
	b := New[string](4)
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		b.Push(s)
	}

	assert.Equal(t, []string{"e", "f"}, b.Last(2))
	assert.Equal(t, []string{"c", "d", "e", "f"}, b.Last(10))
	assert.Empty(t, b.Last(0))
}

func TestBuffer_Empty(t *testing.T) {
	b := New[int](2)

	_, ok := b.Newest()
	assert.False(t, ok)
	_, ok = b.At(0)
	assert.False(t, ok)
	assert.Empty(t, b.Snapshot())
}

func TestBuffer_Reset(t *testing.T) {
	b := New[int](2)
	b.Push(1)
	b.Push(2)
	b.Push(3)

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Snapshot())

	b.Push(9)
	assert.Equal(t, []int{9}, b.Snapshot())
}

func TestBuffer_SnapshotIsCopy(t *testing.T) {
	b := New[int](2)
	b.Push(1)
	snap := b.Snapshot()
	snap[0] = 42

	v, _ := b.At(0)
	assert.Equal(t, 1, v)
}

func TestNew_NonPositiveCapacity(t *testing.T) {
	b := New[int](0)
	assert.Equal(t, 1, b.Cap())
	b.Push(1)
	b.Push(2)
	assert.Equal(t, []int{2}, b.Snapshot())
}
