package parser_test

import (
	"framecheck/pkg/color"
	"framecheck/pkg/jvm"
	"framecheck/pkg/lexer"
	"framecheck/pkg/parser"
	"strings"
	"testing"
)

func parse(t *testing.T, input string) ([]*jvm.Class, []string) {
	t.Helper()

	color.EnableColor(false)
	p := parser.NewParser(lexer.NewLexer(input))
	classes := p.Parse()
	return classes, p.Errors()
}

func TestClassHeader(t *testing.T) {
	classes, errs := parse(t, "class public interface app/Service extends java/lang/Object implements app/A app/B\n")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	c := classes[0]
	if c.Name != "app/Service" || c.Super != "java/lang/Object" {
		t.Errorf("unexpected header %s extends %s", c.Name, c.Super)
	}
	if !c.IsInterface() {
		t.Errorf("expected an interface")
	}
	if len(c.Interfaces) != 2 || c.Interfaces[1] != "app/B" {
		t.Errorf("unexpected interfaces %v", c.Interfaces)
	}
}

func TestMethodBody(t *testing.T) {
	input := `
class Test
method public static run (I[Ljava/lang/String;)V
	maxstack 3
	maxlocals 2
	try L0 L1 L2 java/lang/Exception
	try L0 L1 L3
L0:
	line 12
	bipush -5
	iinc 0 1
	newarray int
	getstatic java/lang/System out Ljava/io/PrintStream;
	ldc 1.5F
	ldc 10L
	ldc class [I
	multianewarray [[I 2
	tableswitch 0 { L1, L2 } default L3
L1:
	frame chop 2
	return
L2:
	frame same1 {java/lang/Exception}
	athrow
L3:
	frame full {int, [Ljava/lang/String;} {java/lang/Throwable}
	athrow
end
`
	classes, errs := parse(t, input)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	m := classes[0].Methods[0]
	if !m.IsStatic() || m.Name != "run" || m.Desc != "(I[Ljava/lang/String;)V" {
		t.Errorf("unexpected method %s access %d", m, m.Access)
	}
	if m.MaxStack != 3 || m.MaxLocals != 2 {
		t.Errorf("unexpected limits %d %d", m.MaxStack, m.MaxLocals)
	}
	if len(m.Handlers) != 2 || m.Handlers[0].Type != "java/lang/Exception" || m.Handlers[1].CatchType() != "java/lang/Throwable" {
		t.Errorf("unexpected handlers %v", m.Handlers)
	}

	expected := []string{
		"L0:",
		"line 12",
		"bipush -5",
		"iinc 0 1",
		"newarray 10",
		"getstatic java/lang/System out Ljava/io/PrintStream;",
		"ldc 1.5F",
		"ldc 10L",
		"ldc class [I",
		"multianewarray [[I 2",
		"tableswitch 0 { L1, L2 } default L3",
		"L1:",
		"frame chop 2",
		"return",
		"L2:",
		"frame same1 {java/lang/Exception}",
		"athrow",
		"L3:",
		"frame full {int, [Ljava/lang/String;} {java/lang/Throwable}",
		"athrow",
	}
	if len(m.Insns) != len(expected) {
		t.Fatalf("expected %d instructions, got %d", len(expected), len(m.Insns))
	}
	for i, insn := range m.Insns {
		if insn.String() != expected[i] {
			t.Errorf("Insn %d: expected %q, got %q", i, expected[i], insn.String())
		}
	}

	if c, ok := m.Insns[7].Const.(int64); !ok || c != 10 {
		t.Errorf("expected long constant, got %T %v", m.Insns[7].Const, m.Insns[7].Const)
	}
}

func TestLookupSwitch(t *testing.T) {
	classes, errs := parse(t, `
class Test
method static f (I)V
	maxstack 1
	maxlocals 1
	iload 0
	lookupswitch { -1: A, 7: B } default A
A:
B:
	frame same
	return
end
`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	insn := classes[0].Methods[0].Insns[1]
	if insn.Op != jvm.LOOKUPSWITCH || len(insn.Keys) != 2 || insn.Keys[0] != -1 || insn.Labels[1] != "B" {
		t.Errorf("unexpected switch %s", insn)
	}
	if targets := insn.Targets(); len(targets) != 3 || targets[0] != "A" {
		t.Errorf("unexpected targets %v", targets)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{"no class", "method f ()V\nend\n", "Expected class declaration"},
		{"unknown insn", "class T\nmethod f ()V\nmaxstack 0\nmaxlocals 1\nfrobnicate\nend\n", "Unknown instruction frobnicate"},
		{"duplicate label", "class T\nmethod f ()V\nmaxstack 0\nmaxlocals 1\nL:\nL:\nreturn\nend\n", "Duplicate label L"},
		{"missing limits", "class T\nmethod f ()V\nreturn\nend\n", "Missing maxstack in method f"},
		{"missing end", "class T\nmethod f ()V\n", "Missing end of method f"},
		{"bad descriptor", "class T\nmethod f (Q)V\nend\n", "Invalid method descriptor (Q)V"},
		{"bad frame", "class T\nmethod f ()V\nmaxstack 0\nmaxlocals 1\nframe weird\nend\n", "Unknown frame type weird"},
		{"bad chop", "class T\nmethod f ()V\nmaxstack 0\nmaxlocals 1\nframe chop 0\nend\n", "Chop count must be positive"},
		{"duplicate key", "class T\nmethod f ()V\nmaxstack 1\nmaxlocals 1\nlookupswitch { 1: A, 1: B } default A\nend\n", "Duplicate lookupswitch key 1"},
		{"missing brace", "class T\nmethod f ()V\nmaxstack 1\nmaxlocals 1\ntableswitch 0 { A, B default A\nend\n", "Missing closing brace"},
		{"keyword as name", "class T\nmethod f ()V\nmaxstack 1\nmaxlocals 1\ngoto end\n", "Cannot use reserved keyword 'end' as a name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := parse(t, tt.input)
			if len(errs) == 0 {
				t.Fatalf("expected an error containing %q", tt.errMsg)
			}
			found := false
			for _, err := range errs {
				if strings.Contains(err, tt.errMsg) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error containing %q, got %v", tt.errMsg, errs)
			}
		})
	}
}

func TestErrorRecovery(t *testing.T) {
	_, errs := parse(t, `
class T
method f ()V
	maxstack 1
	maxlocals 1
	bogus 1 2 3
	iload x
	return
end
`)
	if len(errs) != 2 {
		t.Fatalf("expected one error per bad line, got %v", errs)
	}
	if !strings.HasPrefix(errs[0], "Error at 6:") {
		t.Errorf("expected position of the first bad line, got %s", errs[0])
	}
}

func TestParseSource(t *testing.T) {
	if _, err := parser.ParseSource("class\n"); err == nil || !strings.Contains(err.Error(), "1 syntax errors") {
		t.Errorf("expected a syntax error, got %v", err)
	}

	classes, err := parser.ParseSource("class A\nclass B extends A\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(classes) != 2 || classes[1].Super != "A" {
		t.Errorf("unexpected classes %v", classes)
	}
}
