package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedStack(t *testing.T) {
	s := NewStack(2, "a")
	assert.Equal(t, 1, s.Size())
	assert.Equal(t, 2, s.Cap())

	assert.True(t, s.Push("b"))
	assert.False(t, s.Push("c"))
	assert.Equal(t, []string{"a", "b"}, s.Array())

	top, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, "b", top)
	assert.Equal(t, "a", s.Get(0))

	top, ok = s.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", top)

	s.Clear()
	_, ok = s.Pop()
	assert.False(t, ok)
	_, ok = s.Peek()
	assert.False(t, ok)
}

func TestCopyFrom(t *testing.T) {
	src := NewStack(3, 1, 2, 3)
	dst := NewStack[int](3, 9)

	dst.CopyFrom(src)
	assert.Equal(t, []int{1, 2, 3}, dst.Array())

	src.Pop()
	assert.Equal(t, 3, dst.Size(), "copies do not share storage")
}
