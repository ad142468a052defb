package checker

import (
	"fmt"
	"io"
	"strings"

	"framecheck/pkg/color"
	"framecheck/pkg/jvm"

	mapset "github.com/deckarep/golang-set/v2"
)

// Dump writes the parsed instruction list of every method in path with
// instruction indices, the numbering used by validation errors. Labels that
// are jump, switch or handler targets are marked with '>' and a blank line
// follows every instruction control cannot fall through.
func Dump(path string, w io.Writer) error {
	classes, err := parseFile(path)
	if err != nil {
		return err
	}

	var sb strings.Builder
	for _, class := range classes {
		fmt.Fprintf(&sb, "%s %s\n", color.YellowText("class"), color.BoldText(class.Name))
		for _, m := range class.Methods {
			dumpMethod(&sb, m)
		}
	}

	_, err = io.WriteString(w, sb.String())
	return err
}

func dumpMethod(sb *strings.Builder, m *jvm.Method) {
	fmt.Fprintf(sb, "  %s %s  %s\n", color.YellowText("method"), m.String(),
		color.GrayText(fmt.Sprintf("maxstack=%d maxlocals=%d", m.MaxStack, m.MaxLocals)))

	targets := branchTargets(m)
	for i, insn := range m.Insns {
		marker := " "
		if insn.Kind == jvm.KindLabel && targets.Contains(insn.Name) {
			marker = ">"
		}

		text := insn.String()
		switch {
		case insn.Kind == jvm.KindFrame:
			text = color.BlueText(text)
		case !insn.IsReal():
			text = color.GrayText(text)
		}
		fmt.Fprintf(sb, "  %s %s %s\n", marker, color.CyanText(fmt.Sprintf("%4d", i)), text)
		if insn.IsReal() && insn.Op.EndsFlow() && i+1 < len(m.Insns) {
			sb.WriteByte('\n')
		}
	}

	for _, h := range m.Handlers {
		fmt.Fprintf(sb, "    %s %s %s %s %s\n", color.YellowText("try"), h.Start, h.End, h.Handler, h.CatchType())
	}
}

// branchTargets collects the labels control can be transferred to other than
// by falling through.
func branchTargets(m *jvm.Method) mapset.Set[string] {
	targets := mapset.NewThreadUnsafeSet[string]()
	for _, insn := range m.Insns {
		for _, t := range insn.Targets() {
			targets.Add(t)
		}
	}
	for _, h := range m.Handlers {
		targets.Add(h.Handler)
	}

	return targets
}
