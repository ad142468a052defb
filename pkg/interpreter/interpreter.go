package interpreter

import (
	"framecheck/pkg/analysis"
	"framecheck/pkg/jvm"

	"github.com/pkg/errors"
)

// Interpreter is the JVM value domain handed to the analyzer.
//
// By default it is the basic domain: values are only distinguished by kind
// and no operand checks happen, so it accepts any frame whose stack shape and
// value sizes are consistent. With verification it tracks reference types,
// checks every operand against the instruction, and merges references to
// their least common superclass.
type Interpreter struct {
	hierarchy *Hierarchy // nil for the basic domain
}

type Option func(*Interpreter)

// WithVerification enables type checking against the class hierarchy h.
func WithVerification(h *Hierarchy) Option {
	return func(i *Interpreter) { i.hierarchy = h }
}

// NewInterpreter creates a new Interpreter instance
func NewInterpreter(opts ...Option) *Interpreter {
	it := &Interpreter{}
	for _, o := range opts {
		o(it)
	}

	return it
}

// Verifying reports whether the interpreter checks types.
func (i *Interpreter) Verifying() bool {
	return i.hierarchy != nil
}

// NewValue maps a type to its value. Small integral types are ints.
func (i *Interpreter) NewValue(t *jvm.Type) analysis.Value {
	if t == nil {
		return Uninitialized
	}

	switch t.Sort() {
	case jvm.SortVoid:
		return nil
	case jvm.SortBoolean, jvm.SortChar, jvm.SortByte, jvm.SortShort, jvm.SortInt:
		return Int
	case jvm.SortFloat:
		return Float
	case jvm.SortLong:
		return Long
	case jvm.SortDouble:
		return Double
	case jvm.SortArray, jvm.SortObject:
		if i.Verifying() {
			return Ref(*t)
		}
		return Reference
	default:
		panic("interpreter: unexpected type " + t.String())
	}
}

// NewExceptionValue returns a value of the handler's catch type.
func (i *Interpreter) NewExceptionValue(_ *jvm.Handler, _ *analysis.Frame, catchType jvm.Type) analysis.Value {
	return i.NewValue(&catchType)
}

// Merge returns the least upper bound of v and w.
func (i *Interpreter) Merge(v, w analysis.Value) analysis.Value {
	a, ok1 := v.(Value)
	b, ok2 := w.(Value)
	if !ok1 || !ok2 {
		return Uninitialized
	}
	if a == b {
		return a
	}
	if !i.Verifying() || !a.IsReference() || !b.IsReference() {
		return Uninitialized
	}

	h := i.hierarchy
	switch {
	case a.isNull():
		return b
	case b.isNull():
		return a
	case h.IsAssignableFrom(a.Type, b.Type):
		return a
	case h.IsAssignableFrom(b.Type, a.Type):
		return b
	}

	t1, t2 := a.Type, b.Type
	dims := 0
	if t1.Sort() == jvm.SortArray && t2.Sort() == jvm.SortArray && t1.Dimensions() == t2.Dimensions() &&
		t1.ElementType().Sort() == jvm.SortObject && t2.ElementType().Sort() == jvm.SortObject {
		dims = t1.Dimensions()
		t1, t2 = t1.ElementType(), t2.ElementType()
	}

	// climb from t1 until a superclass of t2 shows up
	for limit := h.Len() + 1; limit > 0; limit-- {
		if h.IsInterface(t1) {
			break
		}
		super, ok := h.SuperClass(t1)
		if !ok {
			break
		}
		if h.IsAssignableFrom(super, t2) {
			return Ref(jvm.ArrayOf(super, dims))
		}
		t1 = super
	}

	return Ref(jvm.ArrayOf(objectType, dims))
}

// isSubTypeOf reports whether v may be used where expected is required.
func (i *Interpreter) isSubTypeOf(v, expected Value) bool {
	if expected.Kind != KindReference {
		return v == expected
	}
	if !v.IsReference() {
		return false
	}
	if v.isNull() || v == expected {
		return true
	}

	return i.hierarchy.IsAssignableFrom(expected.Type, v.Type)
}

// check fails unless v fits expected. In the basic domain nothing is checked.
func (i *Interpreter) check(v analysis.Value, expected Value) error {
	if !i.Verifying() {
		return nil
	}

	if val, ok := v.(Value); !ok || !i.isSubTypeOf(val, expected) {
		return mismatch(expected.String(), v)
	}

	return nil
}

// checkReference fails unless v is a reference.
func (i *Interpreter) checkReference(v analysis.Value) error {
	if !i.Verifying() {
		return nil
	}

	if val, ok := v.(Value); !ok || !val.IsReference() {
		return mismatch("an object reference", v)
	}

	return nil
}

// checkArray fails unless v is an array or null reference.
func (i *Interpreter) checkArray(v analysis.Value) error {
	if !i.Verifying() {
		return nil
	}

	val, ok := v.(Value)
	if !ok || !val.IsReference() || (!val.isNull() && val.Type.Sort() != jvm.SortArray) {
		return mismatch("an array reference", v)
	}

	return nil
}

// typed returns the value of type t, resolved through the domain.
func (i *Interpreter) typed(t jvm.Type) Value {
	v, _ := i.NewValue(&t).(Value)
	return v
}

func mismatch(expected string, found analysis.Value) error {
	return errors.Errorf("expected %s, but found %v", expected, found)
}
