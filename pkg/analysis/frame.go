package analysis

import (
	"strings"

	"framecheck/pkg/jvm"
	"framecheck/pkg/stack"

	"github.com/pkg/errors"
)

// Frame is the type state at one point of a method: its local variables and
// operand stack.
type Frame struct {
	locals []Value
	stack  *stack.Stack[Value]
	ret    Value // value returned by the method, nil for void
}

// NewFrame creates a frame with numLocals unset locals and room for maxStack
// stack values.
func NewFrame(numLocals, maxStack int) *Frame {
	return &Frame{
		locals: make([]Value, numLocals),
		stack:  stack.NewStack[Value](maxStack),
	}
}

// Clone returns a copy of f sharing no mutable state with it.
func (f *Frame) Clone() *Frame {
	return NewFrame(len(f.locals), f.stack.Cap()).Init(f)
}

// Init copies the state of src into f. Both frames must have the same shape.
func (f *Frame) Init(src *Frame) *Frame {
	copy(f.locals, src.locals)
	f.stack.CopyFrom(src.stack)
	f.ret = src.ret

	return f
}

// Locals returns the number of local variable slots.
func (f *Frame) Locals() int {
	return len(f.locals)
}

// Local returns the value of local i.
func (f *Frame) Local(i int) (Value, error) {
	if i < 0 || i >= len(f.locals) {
		return nil, errors.Errorf("trying to get an inexistent local variable %d", i)
	}

	return f.locals[i], nil
}

// SetLocal sets local i to v.
func (f *Frame) SetLocal(i int, v Value) error {
	if i < 0 || i >= len(f.locals) {
		return errors.Errorf("trying to set an inexistent local variable %d", i)
	}

	f.locals[i] = v
	return nil
}

// MaxStack returns the operand stack capacity.
func (f *Frame) MaxStack() int {
	return f.stack.Cap()
}

// StackSize returns the current operand stack height.
func (f *Frame) StackSize() int {
	return f.stack.Size()
}

// Stack returns the stack value at depth i, 0 being the bottom.
func (f *Frame) Stack(i int) Value {
	return f.stack.Get(i)
}

// Push pushes v onto the operand stack.
func (f *Frame) Push(v Value) error {
	if !f.stack.Push(v) {
		return errors.New("insufficient maximum stack size")
	}

	return nil
}

// Pop removes the top of the operand stack.
func (f *Frame) Pop() (Value, error) {
	v, ok := f.stack.Pop()
	if !ok {
		return nil, errors.New("cannot pop operand off an empty stack")
	}

	return v, nil
}

// ClearStack empties the operand stack.
func (f *Frame) ClearStack() {
	f.stack.Clear()
}

// Return returns the method's return value, nil for void methods.
func (f *Frame) Return() Value {
	return f.ret
}

// SetReturn sets the method's return value.
func (f *Frame) SetReturn(v Value) {
	f.ret = v
}

// String renders the locals followed by a space and the stack, one value
// string per slot.
func (f *Frame) String() string {
	return f.LocalsString() + " " + f.StackString()
}

// LocalsString renders the locals, one value after the other.
func (f *Frame) LocalsString() string {
	var sb strings.Builder
	for _, v := range f.locals {
		sb.WriteString(valueString(v))
	}

	return sb.String()
}

// StackString renders the operand stack from bottom to top.
func (f *Frame) StackString() string {
	var sb strings.Builder
	for _, v := range f.stack.Array() {
		sb.WriteString(valueString(v))
	}

	return sb.String()
}

func valueString(v Value) string {
	if v == nil {
		return "?"
	}

	return v.String()
}

// initialFrame builds the frame holding on method entry: the receiver and
// the arguments in the first locals, empty values in the others. It also
// returns the number of slots used by the receiver and the arguments.
func initialFrame(interp Interpreter, owner string, m *jvm.Method) (*Frame, int, error) {
	args, ret, err := jvm.ParseMethodType(m.Desc)
	if err != nil {
		return nil, 0, err
	}

	f := NewFrame(m.MaxLocals, m.MaxStack)
	local := 0
	if !m.IsStatic() {
		if m.MaxLocals < 1 {
			return nil, 0, errors.Errorf("max locals %d too small for the receiver", m.MaxLocals)
		}
		t := jvm.ObjectType(owner)
		f.locals[local] = interp.NewValue(&t)
		local++
	}

	for _, arg := range args {
		if local+arg.Size() > m.MaxLocals {
			return nil, 0, errors.Errorf("max locals %d too small for the arguments of %s", m.MaxLocals, m.Desc)
		}
		f.locals[local] = interp.NewValue(&arg)
		local++
		if arg.Size() == 2 {
			f.locals[local] = interp.NewValue(nil)
			local++
		}
	}

	argSlots := local
	for ; local < m.MaxLocals; local++ {
		f.locals[local] = interp.NewValue(nil)
	}

	f.SetReturn(interp.NewValue(&ret))
	return f, argSlots, nil
}
