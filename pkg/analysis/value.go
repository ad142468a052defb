// Package analysis checks declared stack map frames against the frames a
// forward abstract interpretation of the method produces.
package analysis

import (
	"fmt"

	"framecheck/pkg/jvm"
)

// Value is an abstract value held in a local variable or on the operand stack.
type Value interface {
	fmt.Stringer

	// Size is the number of slots the value occupies, 1 or 2.
	Size() int
	Equal(other Value) bool
}

// Interpreter is the abstract value domain: value factories, the transfer
// function of each instruction family, and the lattice merge.
//
// Operations receive the instruction being executed and return an error when
// the operand values do not fit the instruction. Operations on instructions
// that produce nothing return a nil Value.
type Interpreter interface {
	// NewValue returns the value for a type. A nil type yields the empty
	// (uninitialized) value; the void type yields nil.
	NewValue(t *jvm.Type) Value

	// NewExceptionValue returns the value pushed at the entry of handler.
	NewExceptionValue(handler *jvm.Handler, frame *Frame, catchType jvm.Type) Value

	// NewOperation covers instructions without operands from the stack:
	// constants, ldc, jsr, getstatic, new.
	NewOperation(insn *jvm.Insn) (Value, error)

	// CopyOperation covers loads, stores and the dup/swap family.
	CopyOperation(insn *jvm.Insn, v Value) (Value, error)

	UnaryOperation(insn *jvm.Insn, v Value) (Value, error)
	BinaryOperation(insn *jvm.Insn, v1, v2 Value) (Value, error)
	TernaryOperation(insn *jvm.Insn, v1, v2, v3 Value) (Value, error)

	// NaryOperation covers invocations and multianewarray.
	NaryOperation(insn *jvm.Insn, values []Value) (Value, error)

	// ReturnOperation checks a returned value against the method's return value.
	ReturnOperation(insn *jvm.Insn, v, expected Value) error

	// Merge returns the least upper bound of two values.
	Merge(v, w Value) Value
}
