package analysis

import "fmt"

// CheckMerge reports whether declared accepts the state computed along an
// incoming edge: merging each computed value into the declared one must give
// back the declared value. Neither frame is modified.
//
// Both frames must have the same number of locals; a mismatch is a bug in the
// caller and panics.
func CheckMerge(interp Interpreter, computed, declared *Frame) error {
	if computed.Locals() != declared.Locals() {
		panic(fmt.Sprintf("frames with different local counts: %d and %d", computed.Locals(), declared.Locals()))
	}

	for i := range computed.locals {
		c, d := computed.locals[i], declared.locals[i]
		if !sameValue(interp.Merge(c, d), d) {
			return newKindError(ErrIncompatibleFrame, "incompatible types at local %d: %s and %s", i, valueString(c), valueString(d))
		}
	}

	if computed.StackSize() != declared.StackSize() {
		return newKindError(ErrIncompatibleFrame, "incompatible stack heights")
	}

	for i := 0; i < computed.StackSize(); i++ {
		c, d := computed.Stack(i), declared.Stack(i)
		if !sameValue(interp.Merge(c, d), d) {
			return newKindError(ErrIncompatibleFrame, "incompatible types at stack item %d: %s and %s", i, valueString(c), valueString(d))
		}
	}

	return nil
}

func sameValue(v, w Value) bool {
	if v == nil || w == nil {
		return v == nil && w == nil
	}

	return v.Equal(w)
}
