package stack

// Stack is a LIFO stack bounded by a fixed capacity.
type Stack[T any] struct {
	a   []T
	max int
}

// NewStack creates a new stack holding at most max elements
func NewStack[T any](max int, elm ...T) *Stack[T] {
	stack := Stack[T]{
		a:   make([]T, 0, max),
		max: max,
	}

	for _, e := range elm {
		stack.Push(e)
	}

	return &stack
}

// Push adds an element to the top of the stack; it reports false when the
// stack is full
func (s *Stack[T]) Push(elm T) bool {
	if len(s.a) >= s.max {
		return false
	}

	s.a = append(s.a, elm)
	return true
}

// Pop removes and returns the top element of the stack
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.a) < 1 {
		return zero, false
	}

	l := len(s.a) - 1
	elm := s.a[l]
	s.a[l] = zero
	s.a = s.a[:l]

	return elm, true
}

// Peek returns the top element of the stack without removing it
func (s *Stack[T]) Peek() (T, bool) {
	if len(s.a) < 1 {
		var zero T
		return zero, false
	}

	return s.a[len(s.a)-1], true
}

// Get returns the element at depth i, 0 being the bottom
func (s *Stack[T]) Get(i int) T {
	return s.a[i]
}

// Size returns the number of elements on the stack
func (s *Stack[T]) Size() int {
	return len(s.a)
}

// Cap returns the maximum number of elements
func (s *Stack[T]) Cap() int {
	return s.max
}

// Clear removes every element
func (s *Stack[T]) Clear() {
	clear(s.a)
	s.a = s.a[:0]
}

// CopyFrom replaces the contents with those of other, keeping this stack's capacity
func (s *Stack[T]) CopyFrom(other *Stack[T]) {
	s.Clear()
	s.a = append(s.a, other.a...)
}

// Array returns the underlying array of the stack, bottom first
func (s Stack[T]) Array() []T {
	return s.a
}
