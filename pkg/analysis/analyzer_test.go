package analysis_test

import (
	"fmt"
	"testing"

	"framecheck/pkg/analysis"
	"framecheck/pkg/interpreter"
	"framecheck/pkg/jvm"
	"framecheck/pkg/parser"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseMethod(t *testing.T, src string) (string, *jvm.Method) {
	t.Helper()

	classes, err := parser.ParseSource(src)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.NotEmpty(t, classes[0].Methods)

	return classes[0].Name, classes[0].Methods[0]
}

func validate(t *testing.T, interp analysis.Interpreter, src string) (analysis.FrameTable, error) {
	t.Helper()

	owner, m := parseMethod(t, src)
	return analysis.NewAnalyzer(interp).Validate(owner, m)
}

func basic() analysis.Interpreter {
	return interpreter.NewInterpreter()
}

func verifier(t *testing.T) analysis.Interpreter {
	t.Helper()

	h, err := interpreter.NewHierarchy()
	require.NoError(t, err)

	return interpreter.NewInterpreter(interpreter.WithVerification(h))
}

// requireOffset checks err is located at offset and returns its cause.
func requireOffset(t *testing.T, err error, offset int) error {
	t.Helper()

	var located *analysis.Error
	require.Error(t, err)
	require.True(t, errors.As(err, &located), "unexpected error type %T", err)
	assert.Equal(t, offset, located.Offset)

	return located.Err
}

const loopSource = `
class Test
method static countdown (II)I
	maxstack 2
	maxlocals 2
L0:
	frame same
	iload 0
	ifle L1
	iinc 1 1
	iinc 0 -1
	goto L0
L1:
	frame same
	iload 1
	ireturn
end
`

func TestSameFramesAtBranchTargets(t *testing.T) {
	table, err := validate(t, basic(), loopSource)
	require.NoError(t, err)

	_, m := parseMethod(t, loopSource)
	require.Len(t, table, len(m.Insns))
	for i := range m.Insns {
		assert.NotNil(t, table[i], "no frame at %d", i)
	}
	assert.Equal(t, "II ", table[0].String())
	assert.Equal(t, "II I", table[3].String())
}

func TestIncompatibleStackHeightAtTarget(t *testing.T) {
	_, err := validate(t, basic(), `
class Test
method static f (I)I
	maxstack 2
	maxlocals 1
	iconst_5
	iload 0
	ifeq L1
	pop
	iconst_1
L1:
	frame same
	ireturn
end
`)
	cause := requireOffset(t, err, 2)
	assert.EqualError(t, err, "error at instruction 2: stack map frame incompatible with frame at instruction 5 (incompatible stack heights)")
	assert.ErrorIs(t, cause, analysis.ErrIncompatibleFrame)

	var frameErr *analysis.FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, 5, frameErr.Target)
}

func TestDeclaredLocalMissingFromFlow(t *testing.T) {
	_, err := validate(t, basic(), `
class Test
method static f (I)V
	maxstack 1
	maxlocals 2
	iload 0
	ifeq L1
	return
L1:
	frame full {int, int} {}
	return
end
`)
	requireOffset(t, err, 1)
	assert.EqualError(t, err, "error at instruction 1: stack map frame incompatible with frame at instruction 3 (incompatible types at local 1: . and I)")
}

func TestChopMoreThanDefined(t *testing.T) {
	_, err := validate(t, basic(), `
class Test
method static f ()V
	maxstack 0
	maxlocals 1
	nop
	frame chop 1
	return
end
`)
	cause := requireOffset(t, err, 1)
	assert.EqualError(t, cause, "cannot chop more locals than defined")
	assert.ErrorIs(t, err, analysis.ErrIllegalFrame)
}

// catchRecorder records the catch types the analyzer asks values for.
type catchRecorder struct {
	*interpreter.Interpreter
	types []jvm.Type
}

func (r *catchRecorder) NewExceptionValue(h *jvm.Handler, f *analysis.Frame, catchType jvm.Type) analysis.Value {
	r.types = append(r.types, catchType)
	return r.Interpreter.NewExceptionValue(h, f, catchType)
}

const catchAllSource = `
class Test
method static f ()V
	maxstack 1
	maxlocals 1
	try L0 L1 L2
L0:
	invokestatic Test g ()V
L1:
	return
L2:
	frame full {} {%s}
	athrow
end
`

func TestCatchAllHandlerPushesThrowable(t *testing.T) {
	rec := &catchRecorder{Interpreter: interpreter.NewInterpreter()}
	_, err := validate(t, rec, fmt.Sprintf(catchAllSource, "java/lang/Throwable"))
	require.NoError(t, err)

	require.NotEmpty(t, rec.types)
	for _, ct := range rec.types {
		assert.Equal(t, jvm.ObjectType("java/lang/Throwable"), ct)
	}

	table, err := validate(t, verifier(t), fmt.Sprintf(catchAllSource, "java/lang/Throwable"))
	require.NoError(t, err)
	assert.Equal(t, ". Ljava/lang/Throwable;", table[4].String())

	// a narrower declared type does not accept Throwable
	_, err = validate(t, verifier(t), fmt.Sprintf(catchAllSource, "java/lang/Exception"))
	requireOffset(t, err, 0)
	assert.ErrorContains(t, err, "incompatible types at stack item 0: Ljava/lang/Throwable; and Ljava/lang/Exception;")
}

func TestReturnFollowedByCodeNeedsFrame(t *testing.T) {
	_, err := validate(t, basic(), `
class Test
method static f ()V
	maxstack 0
	maxlocals 0
	return
	return
end
`)
	cause := requireOffset(t, err, 0)
	assert.EqualError(t, err, "error at instruction 0: expected stack map frame at instruction 1")
	assert.ErrorIs(t, cause, analysis.ErrMissingFrame)
}

func TestDeterminism(t *testing.T) {
	first, err := validate(t, basic(), loopSource)
	require.NoError(t, err)

	second, err := validate(t, basic(), loopSource)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].String(), second[i].String())
	}
}

func TestFullFrameIdentity(t *testing.T) {
	table, err := validate(t, basic(), `
class Test
method static f (I)V
	maxstack 1
	maxlocals 2
	iconst_0
	istore 1
	goto L0
L0:
	frame full {int, int} {}
	return
end
`)
	require.NoError(t, err)
	assert.Equal(t, "II ", table[3].String())
	assert.Equal(t, "II ", table[4].String())
}

const compressedChain = `
class Test
method static f ()V
	maxstack 2
	maxlocals 3
	iconst_0
	istore 0
	lconst_0
	lstore 1
	goto A
A:
	frame append {int, long}
	goto B
B:
	frame chop 1
	iconst_1
	goto C
C:
	frame same1 {int}
	pop
	goto D
D:
	frame same
	return
end
`

const fullChain = `
class Test
method static f ()V
	maxstack 2
	maxlocals 3
	iconst_0
	istore 0
	lconst_0
	lstore 1
	goto A
A:
	frame full {int, long} {}
	goto B
B:
	frame full {int} {}
	iconst_1
	goto C
C:
	frame full {int} {int}
	pop
	goto D
D:
	frame full {int} {}
	return
end
`

// requireSameTables validates both sources and checks they produce the same
// frame at every instruction. It returns the table of compressed.
func requireSameTables(t *testing.T, compressed, full string) analysis.FrameTable {
	t.Helper()

	got, err := validate(t, basic(), compressed)
	require.NoError(t, err)

	want, err := validate(t, basic(), full)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		if want[i] == nil {
			assert.Nil(t, got[i], "frame at %d", i)
			continue
		}
		require.NotNil(t, got[i], "frame at %d", i)
		assert.Equal(t, want[i].String(), got[i].String(), "frame at %d", i)
	}

	return got
}

func TestCompressedFramesMatchFullFrames(t *testing.T) {
	table := requireSameTables(t, compressedChain, fullChain)

	assert.Equal(t, "IJ. ", table[6].String())
	assert.Equal(t, "I.. ", table[9].String())
	assert.Equal(t, "I.. I", table[13].String())
}

func TestCompressedFrameSequences(t *testing.T) {
	method := func(maxLocals int, body string) string {
		return fmt.Sprintf("class Test\nmethod static f ()V\n\tmaxstack 2\n\tmaxlocals %d\n%send\n", maxLocals, body)
	}

	tests := []struct {
		name       string
		maxLocals  int
		compressed string
		full       string
		index      int
		expected   string
	}{
		{
			name:      "append after an earlier frame",
			maxLocals: 2,
			compressed: `	iconst_0
	istore 0
	goto A
A:
	frame append {int}
	iconst_0
	istore 1
	goto B
B:
	frame append {int}
	return
`,
			full: `	iconst_0
	istore 0
	goto A
A:
	frame full {int} {}
	iconst_0
	istore 1
	goto B
B:
	frame full {int, int} {}
	return
`,
			index:    9,
			expected: "II ",
		},
		{
			name:      "chop below max locals",
			maxLocals: 3,
			compressed: `	iconst_0
	istore 0
	goto A
A:
	frame append {int}
	goto B
B:
	frame chop 1
	return
`,
			full: `	iconst_0
	istore 0
	goto A
A:
	frame full {int} {}
	goto B
B:
	frame full {} {}
	return
`,
			index:    7,
			expected: "... ",
		},
		{
			name:      "append same append",
			maxLocals: 3,
			compressed: `	iconst_0
	istore 0
	goto A
A:
	frame append {int}
	goto B
B:
	frame same
	lconst_0
	lstore 1
	goto C
C:
	frame append {long}
	return
`,
			full: `	iconst_0
	istore 0
	goto A
A:
	frame full {int} {}
	goto B
B:
	frame full {int} {}
	lconst_0
	lstore 1
	goto C
C:
	frame full {int, long} {}
	return
`,
			index:    12,
			expected: "IJ. ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := requireSameTables(t, method(tt.maxLocals, tt.compressed), method(tt.maxLocals, tt.full))
			assert.Equal(t, tt.expected, table[tt.index].String())
		})
	}
}

func TestRemovingRequiredFrameFails(t *testing.T) {
	_, err := validate(t, basic(), `
class Test
method static countdown (II)I
	maxstack 2
	maxlocals 2
L0:
	frame same
	iload 0
	ifle L1
	iinc 1 1
	iinc 0 -1
	goto L0
L1:
	iload 1
	ireturn
end
`)
	requireOffset(t, err, 3)
	assert.EqualError(t, err, "error at instruction 3: expected stack map frame at instruction 7")
}

func TestFallthroughInstallsFrames(t *testing.T) {
	table, err := validate(t, basic(), `
class Test
method f (J)J
	maxstack 4
	maxlocals 3
	lload 1
	lconst_1
	ladd
	lreturn
end
`)
	require.NoError(t, err)
	assert.Equal(t, "RJ. ", table[0].String())
	assert.Equal(t, "RJ. J", table[1].String())
	assert.Equal(t, "RJ. JJ", table[2].String())
	assert.Equal(t, "RJ. J", table[3].String())
}

func TestUnsupportedSubroutines(t *testing.T) {
	_, err := validate(t, basic(), `
class Test
method static f ()V
	maxstack 1
	maxlocals 1
	jsr S
	return
S:
	frame same1 {top}
	astore 0
	ret 0
end
`)
	cause := requireOffset(t, err, 0)
	assert.EqualError(t, cause, "JSR instructions are unsupported")
	assert.ErrorIs(t, err, analysis.ErrUnsupported)
}

func TestFallingOffTheEnd(t *testing.T) {
	_, err := validate(t, basic(), `
class Test
method static f ()V
	maxstack 1
	maxlocals 0
	iconst_0
	pop
L0:
end
`)
	cause := requireOffset(t, err, 1)
	assert.EqualError(t, cause, "execution can fall off the end of the code")
}

func TestMixedFrameEncodings(t *testing.T) {
	_, err := validate(t, basic(), `
class Test
method static f (I)V
	maxstack 1
	maxlocals 1
	iload 0
	ifeq L1
	goto L0
L0:
	frame new {int} {}
	goto L1
L1:
	frame same
	return
end
`)
	cause := requireOffset(t, err, 7)
	assert.EqualError(t, cause, "expanded and compressed frames must not be mixed")
}

func TestUninitializedFrameItems(t *testing.T) {
	src := `
class Test
method f ()V
	maxstack 3
	maxlocals 1
	aload 0
	ifnull L1
N:
	new java/lang/Object
	dup
	aload 0
	ifnull L2
	goto L2
L2:
	frame full {Test} {%[1]s, %[1]s}
	invokespecial java/lang/Object <init> ()V
	pop
	return
L1:
	frame same
	return
end
`
	table, err := validate(t, verifier(t), fmt.Sprintf(src, "uninitialized(N)"))
	require.NoError(t, err)
	assert.Equal(t, "LTest; Ljava/lang/Object;Ljava/lang/Object;", table[9].String())

	_, err = validate(t, verifier(t), fmt.Sprintf(src, "uninitialized(L1)"))
	cause := requireOffset(t, err, 9)
	assert.EqualError(t, cause, "label L1 does not designate a NEW instruction")
	assert.ErrorIs(t, err, analysis.ErrIllegalFrame)
}

func TestAppendBeyondMaxLocals(t *testing.T) {
	_, err := validate(t, basic(), `
class Test
method static f ()V
	maxstack 0
	maxlocals 1
	goto L0
L0:
	frame append {long}
	return
end
`)
	cause := requireOffset(t, err, 2)
	assert.EqualError(t, cause, "cannot append more locals than max-locals")
}

func TestIllegalFrameType(t *testing.T) {
	m := &jvm.Method{
		Access:    jvm.AccStatic,
		Name:      "f",
		Desc:      "()V",
		MaxLocals: 0,
		MaxStack:  0,
		Insns: []*jvm.Insn{
			jvm.NewFrameInsn(&jvm.FrameNode{Kind: jvm.FrameKind(9)}),
			jvm.NewInsn(jvm.RETURN),
		},
	}

	_, err := analysis.NewAnalyzer(basic()).Validate("Test", m)
	cause := requireOffset(t, err, 0)
	assert.EqualError(t, cause, "illegal frame type 9")
}

func TestMethodsWithoutCode(t *testing.T) {
	table, err := validate(t, basic(), `
class Test
method abstract f ()V
end
`)
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestSwitchTargetsRequireFrames(t *testing.T) {
	src := `
class Test
method static f (I)I
	maxstack 1
	maxlocals 1
	iload 0
	lookupswitch { 1: A, 2: B } default C
A:
	frame same
	iconst_1
	ireturn
B:
	%s
	iconst_2
	ireturn
C:
	frame same
	iconst_0
	ireturn
end
`
	_, err := validate(t, basic(), fmt.Sprintf(src, "frame same"))
	require.NoError(t, err)

	_, err = validate(t, basic(), fmt.Sprintf(src, "line 7"))
	requireOffset(t, err, 1)
	assert.ErrorContains(t, err, "expected stack map frame at instruction 6")
}

func TestVerifierMergesDeclaredSupertype(t *testing.T) {
	src := `
class Test
method static f (I)Ljava/lang/Object;
	maxstack 1
	maxlocals 1
	iload 0
	ifeq L1
	ldc "text"
	goto L2
L1:
	frame same
	ldc class java/lang/String
L2:
	frame same1 {%s}
	areturn
end
`
	_, err := validate(t, verifier(t), fmt.Sprintf(src, "java/lang/Object"))
	require.NoError(t, err)

	_, err = validate(t, verifier(t), fmt.Sprintf(src, "java/lang/String"))
	requireOffset(t, err, 6)
	assert.ErrorContains(t, err, "incompatible types at stack item 0: Ljava/lang/Class; and Ljava/lang/String;")
}

func TestVoidFieldDescriptorIsLocated(t *testing.T) {
	tests := []struct {
		name   string
		interp analysis.Interpreter
		body   string
		offset int
	}{
		{"putstatic", verifier(t), "\ticonst_0\n\tputstatic Test x V\n", 1},
		{"getstatic", basic(), "\tgetstatic Test x V\n\tpop\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "class Test\nmethod static f ()V\n\tmaxstack 1\n\tmaxlocals 0\n" + tt.body + "\treturn\nend\n"
			var err error
			require.NotPanics(t, func() {
				_, err = validate(t, tt.interp, src)
			})
			cause := requireOffset(t, err, tt.offset)
			assert.EqualError(t, cause, "invalid field descriptor V")
		})
	}
}
