package interpreter

import (
	"framecheck/pkg/analysis"
	"framecheck/pkg/jvm"
)

type ValueKind int

const (
	KindUninitialized ValueKind = iota
	KindInt
	KindFloat
	KindLong
	KindDouble
	KindReference
	KindReturnAddress
)

// Value is an abstract JVM value. The basic domain only tracks the kind; the
// verifying domain also tracks the type of references.
type Value struct {
	Kind ValueKind
	Type jvm.Type
}

var (
	Uninitialized = Value{Kind: KindUninitialized}
	Int           = Value{Kind: KindInt, Type: jvm.IntType}
	Float         = Value{Kind: KindFloat, Type: jvm.FloatType}
	Long          = Value{Kind: KindLong, Type: jvm.LongType}
	Double        = Value{Kind: KindDouble, Type: jvm.DoubleType}
	Reference     = Value{Kind: KindReference} // untyped reference of the basic domain
	ReturnAddress = Value{Kind: KindReturnAddress, Type: jvm.VoidType}
)

// the type of aconst_null in the verifying domain
var nullType = jvm.ObjectType("null")

var objectType = jvm.ObjectType("java/lang/Object")

// Ref returns the verifying domain value of a reference type.
func Ref(t jvm.Type) Value {
	return Value{Kind: KindReference, Type: t}
}

// Size returns the number of slots taken by v.
func (v Value) Size() int {
	if v.Kind == KindLong || v.Kind == KindDouble {
		return 2
	}

	return 1
}

// Equal reports whether other is the same abstract value.
func (v Value) Equal(other analysis.Value) bool {
	o, ok := other.(Value)
	return ok && v == o
}

// IsReference reports whether v is an object, array or null reference.
func (v Value) IsReference() bool {
	return v.Kind == KindReference
}

func (v Value) isNull() bool {
	return v.Kind == KindReference && v.Type == nullType
}

// String renders the value as a one-slot code: "." for uninitialized, "A"
// for a return address, "R" for an untyped reference, else the descriptor.
func (v Value) String() string {
	switch {
	case v.Kind == KindUninitialized:
		return "."
	case v.Kind == KindReturnAddress:
		return "A"
	case v == Reference:
		return "R"
	default:
		return v.Type.Descriptor()
	}
}
