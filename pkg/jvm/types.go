package jvm

import (
	"strings"

	"github.com/pkg/errors"
)

// Sort classifies a Type.
type Sort uint8

const (
	SortVoid Sort = iota
	SortBoolean
	SortChar
	SortByte
	SortShort
	SortInt
	SortFloat
	SortLong
	SortDouble
	SortArray
	SortObject
	SortMethod
)

// Type is a Java type, identified by its descriptor. Types are comparable.
type Type struct {
	sort Sort
	desc string
}

var (
	VoidType    = Type{SortVoid, "V"}
	BooleanType = Type{SortBoolean, "Z"}
	CharType    = Type{SortChar, "C"}
	ByteType    = Type{SortByte, "B"}
	ShortType   = Type{SortShort, "S"}
	IntType     = Type{SortInt, "I"}
	FloatType   = Type{SortFloat, "F"}
	LongType    = Type{SortLong, "J"}
	DoubleType  = Type{SortDouble, "D"}
)

var primitives = map[byte]Type{
	'V': VoidType, 'Z': BooleanType, 'C': CharType, 'B': ByteType, 'S': ShortType,
	'I': IntType, 'F': FloatType, 'J': LongType, 'D': DoubleType,
}

// ObjectType returns the type for an internal name such as "java/lang/String".
// Internal names of array classes are already descriptors ("[I").
func ObjectType(internalName string) Type {
	if strings.HasPrefix(internalName, "[") {
		return Type{SortArray, internalName}
	}

	return Type{SortObject, "L" + internalName + ";"}
}

// ParseType parses a single field descriptor.
func ParseType(desc string) (Type, error) {
	t, n, err := parseField(desc, 0)
	if err != nil {
		return Type{}, err
	}

	if n != len(desc) {
		return Type{}, errors.Errorf("invalid descriptor %q: trailing characters", desc)
	}

	return t, nil
}

// MustParseType is like ParseType but panics on malformed input.
func MustParseType(desc string) Type {
	t, err := ParseType(desc)
	if err != nil {
		panic(err)
	}

	return t
}

// ParseMethodType splits a method descriptor into its argument and return types.
func ParseMethodType(desc string) ([]Type, Type, error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, Type{}, errors.Errorf("invalid method descriptor %q", desc)
	}

	var args []Type
	i := 1
	for i < len(desc) && desc[i] != ')' {
		t, next, err := parseField(desc, i)
		if err != nil {
			return nil, Type{}, errors.Wrapf(err, "invalid method descriptor %q", desc)
		}
		if t.sort == SortVoid {
			return nil, Type{}, errors.Errorf("invalid method descriptor %q: void argument", desc)
		}
		args = append(args, t)
		i = next
	}

	if i >= len(desc) {
		return nil, Type{}, errors.Errorf("invalid method descriptor %q: missing ')'", desc)
	}

	ret, err := ParseType(desc[i+1:])
	if err != nil {
		return nil, Type{}, errors.Wrapf(err, "invalid method descriptor %q", desc)
	}

	return args, ret, nil
}

// MethodType returns the type of a method descriptor, as loaded by ldc.
func MethodType(desc string) (Type, error) {
	if _, _, err := ParseMethodType(desc); err != nil {
		return Type{}, err
	}

	return Type{SortMethod, desc}, nil
}

// parseField reads one field descriptor starting at desc[i] and returns the
// type and the index just past it.
func parseField(desc string, i int) (Type, int, error) {
	if i >= len(desc) {
		return Type{}, i, errors.Errorf("unexpected end of descriptor %q", desc)
	}

	switch c := desc[i]; c {
	case 'L':
		end := strings.IndexByte(desc[i:], ';')
		if end <= 1 {
			return Type{}, i, errors.Errorf("unterminated class name in %q", desc)
		}
		return Type{SortObject, desc[i : i+end+1]}, i + end + 1, nil
	case '[':
		j := i
		for j < len(desc) && desc[j] == '[' {
			j++
		}
		elem, next, err := parseField(desc, j)
		if err != nil {
			return Type{}, i, err
		}
		if elem.sort == SortVoid {
			return Type{}, i, errors.Errorf("array of void in %q", desc)
		}
		return Type{SortArray, desc[i:next]}, next, nil
	default:
		if t, ok := primitives[c]; ok {
			return t, i + 1, nil
		}
		return Type{}, i, errors.Errorf("invalid descriptor character %q in %q", c, desc)
	}
}

// Sort returns the type's sort.
func (t Type) Sort() Sort {
	return t.sort
}

// Descriptor returns the type descriptor, e.g. "I" or "Ljava/lang/Object;".
func (t Type) Descriptor() string {
	return t.desc
}

// InternalName returns the internal name of an object or array type.
func (t Type) InternalName() string {
	if t.sort == SortObject {
		return t.desc[1 : len(t.desc)-1]
	}

	return t.desc
}

// Size returns the number of local/stack slots a value of this type occupies.
func (t Type) Size() int {
	switch t.sort {
	case SortVoid:
		return 0
	case SortLong, SortDouble:
		return 2
	default:
		return 1
	}
}

// IsReference reports whether t is an object or array type.
func (t Type) IsReference() bool {
	return t.sort == SortObject || t.sort == SortArray
}

// Dimensions returns the number of array dimensions.
func (t Type) Dimensions() int {
	n := 0
	for n < len(t.desc) && t.desc[n] == '[' {
		n++
	}

	return n
}

// ElementType returns the innermost element type of an array type.
func (t Type) ElementType() Type {
	elem, _, _ := parseField(t.desc, t.Dimensions())
	return elem
}

// ComponentType strips one array dimension.
func (t Type) ComponentType() Type {
	comp, _, _ := parseField(t.desc, 1)
	return comp
}

// ArrayOf returns the array type with dims dimensions of t.
func ArrayOf(t Type, dims int) Type {
	if dims == 0 {
		return t
	}

	return Type{SortArray, strings.Repeat("[", dims) + t.desc}
}

func (t Type) String() string {
	return t.desc
}
