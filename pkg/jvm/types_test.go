package jvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		desc     string
		sort     Sort
		size     int
		internal string
	}{
		{"I", SortInt, 1, "I"},
		{"J", SortLong, 2, "J"},
		{"D", SortDouble, 2, "D"},
		{"V", SortVoid, 0, "V"},
		{"Ljava/lang/String;", SortObject, 1, "java/lang/String"},
		{"[[Ljava/lang/String;", SortArray, 1, "[[Ljava/lang/String;"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			typ, err := ParseType(tt.desc)
			require.NoError(t, err)
			assert.Equal(t, tt.sort, typ.Sort())
			assert.Equal(t, tt.size, typ.Size())
			assert.Equal(t, tt.internal, typ.InternalName())
			assert.Equal(t, tt.desc, typ.Descriptor())
		})
	}

	for _, bad := range []string{"", "Q", "Ljava/lang/String", "[V", "II"} {
		_, err := ParseType(bad)
		assert.Error(t, err, bad)
	}
}

func TestArrayTypes(t *testing.T) {
	arr := MustParseType("[[Ljava/lang/Integer;")

	assert.Equal(t, 2, arr.Dimensions())
	assert.Equal(t, ObjectType("java/lang/Integer"), arr.ElementType())
	assert.Equal(t, MustParseType("[Ljava/lang/Integer;"), arr.ComponentType())
	assert.Equal(t, arr, ArrayOf(ObjectType("java/lang/Integer"), 2))
	assert.Equal(t, IntType, ArrayOf(IntType, 0))
	assert.True(t, arr.IsReference())
	assert.False(t, IntType.IsReference())
}

func TestParseMethodType(t *testing.T) {
	args, ret, err := ParseMethodType("(IJ[Ljava/lang/String;D)Ljava/lang/Object;")
	require.NoError(t, err)
	assert.Equal(t, []Type{IntType, LongType, MustParseType("[Ljava/lang/String;"), DoubleType}, args)
	assert.Equal(t, ObjectType("java/lang/Object"), ret)

	for _, bad := range []string{"I", "(I", "(V)V", "(I)", "(Q)V"} {
		_, _, err := ParseMethodType(bad)
		assert.Error(t, err, bad)
	}

	_, _, err = ParseMethodType("(Q)V")
	assert.EqualError(t, err, `invalid method descriptor "(Q)V": invalid descriptor character 'Q' in "(Q)V"`)

	mt, err := MethodType("()V")
	require.NoError(t, err)
	assert.Equal(t, SortMethod, mt.Sort())
}

func TestOpcodes(t *testing.T) {
	op, ok := Lookup("invokevirtual")
	require.True(t, ok)
	assert.Equal(t, INVOKEVIRTUAL, op)
	assert.Equal(t, KindMethod, op.Kind())
	assert.Equal(t, "invokevirtual", op.String())

	_, ok = Lookup("frobnicate")
	assert.False(t, ok)

	assert.True(t, IFEQ.IsConditional())
	assert.False(t, GOTO.IsConditional())
	assert.False(t, JSR.IsConditional())
	assert.True(t, GOTO.IsJump())
	assert.True(t, LOOKUPSWITCH.IsSwitch())
	assert.True(t, ARETURN.IsReturn())
	assert.False(t, ATHROW.IsReturn())
	assert.False(t, OpNone.Valid())
}

func TestInsnTargets(t *testing.T) {
	assert.Equal(t, []string{"L"}, NewJumpInsn(IFNULL, "L").Targets())
	assert.Equal(t, []string{"D", "A", "B"}, NewTableSwitchInsn(3, "D", "A", "B").Targets())
	assert.Nil(t, NewInsn(IADD).Targets())
	assert.False(t, NewLabel("L").IsReal())
	assert.True(t, NewInsn(NOP).IsReal())
}

func TestFrameItems(t *testing.T) {
	item, err := ParseFrameItem("uninitialized(L3)")
	require.NoError(t, err)
	assert.Equal(t, Uninitialized("L3"), item)

	item, err = ParseFrameItem("java/lang/String")
	require.NoError(t, err)
	assert.Equal(t, Object("java/lang/String"), item)

	_, err = ParseFrameItem("uninitialized()")
	assert.Error(t, err)

	kind, ok := ParseFrameKind("same1")
	require.True(t, ok)
	assert.Equal(t, FrameSame1, kind)
}

func TestMethodLabels(t *testing.T) {
	m := &Method{Insns: []*Insn{NewLabel("A"), NewInsn(NOP), NewLabel("B")}}
	labels, err := m.Labels()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 0, "B": 2}, labels)

	m.Insns = append(m.Insns, NewLabel("A"))
	_, err = m.Labels()
	assert.EqualError(t, err, "duplicate label A")
}
