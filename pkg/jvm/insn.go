package jvm

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the operand shape of an instruction.
type Kind uint8

const (
	KindInsn Kind = iota
	KindInt
	KindVar
	KindType
	KindField
	KindMethod
	KindInvokeDynamic
	KindJump
	KindLdc
	KindIinc
	KindTableSwitch
	KindLookupSwitch
	KindMultiANewArray

	// pseudo instructions
	KindLabel
	KindLine
	KindFrame
)

// Insn is one element of a method instruction list. Real instructions carry
// an opcode; labels, line markers and frame markers carry OpNone but still
// occupy an index.
type Insn struct {
	Op   Opcode
	Kind Kind

	Var     int // local index (var, iinc)
	Operand int // bipush/sipush value, newarray type code, multianewarray dimensions, line number
	Incr    int // iinc increment

	Owner string // field/method owner internal name
	Name  string // field/method name, label name
	Desc  string // type internal name, field/method descriptor, multianewarray array descriptor

	Target   string   // jump target label
	Default  string   // switch default label
	Labels   []string // switch case labels
	Keys     []int    // lookupswitch keys
	Min, Max int      // tableswitch range

	Const any // ldc constant: int32, float32, int64, float64, string or Type

	Frame *FrameNode
}

// IsReal reports whether the instruction is an actual JVM instruction.
func (i *Insn) IsReal() bool {
	return i.Op >= 0
}

// Targets returns the labels control may transfer to, excluding fallthrough.
func (i *Insn) Targets() []string {
	switch i.Kind {
	case KindJump:
		return []string{i.Target}
	case KindTableSwitch, KindLookupSwitch:
		return append([]string{i.Default}, i.Labels...)
	default:
		return nil
	}
}

// NewInsn creates a zero-operand instruction.
func NewInsn(op Opcode) *Insn {
	return &Insn{Op: op, Kind: op.Kind()}
}

// NewIntInsn creates bipush, sipush or newarray.
func NewIntInsn(op Opcode, operand int) *Insn {
	return &Insn{Op: op, Kind: KindInt, Operand: operand}
}

// NewVarInsn creates a load, store or ret instruction.
func NewVarInsn(op Opcode, v int) *Insn {
	return &Insn{Op: op, Kind: KindVar, Var: v}
}

// NewIincInsn creates an iinc instruction.
func NewIincInsn(v, incr int) *Insn {
	return &Insn{Op: IINC, Kind: KindIinc, Var: v, Incr: incr}
}

// NewTypeInsn creates new, anewarray, checkcast or instanceof.
func NewTypeInsn(op Opcode, internalName string) *Insn {
	return &Insn{Op: op, Kind: KindType, Desc: internalName}
}

// NewFieldInsn creates a field access instruction.
func NewFieldInsn(op Opcode, owner, name, desc string) *Insn {
	return &Insn{Op: op, Kind: KindField, Owner: owner, Name: name, Desc: desc}
}

// NewMethodInsn creates a method invocation instruction.
func NewMethodInsn(op Opcode, owner, name, desc string) *Insn {
	return &Insn{Op: op, Kind: KindMethod, Owner: owner, Name: name, Desc: desc}
}

// NewInvokeDynamicInsn creates an invokedynamic instruction.
func NewInvokeDynamicInsn(name, desc string) *Insn {
	return &Insn{Op: INVOKEDYNAMIC, Kind: KindInvokeDynamic, Name: name, Desc: desc}
}

// NewJumpInsn creates a jump to label.
func NewJumpInsn(op Opcode, label string) *Insn {
	return &Insn{Op: op, Kind: KindJump, Target: label}
}

// NewLdcInsn creates an ldc instruction.
func NewLdcInsn(c any) *Insn {
	return &Insn{Op: LDC, Kind: KindLdc, Const: c}
}

// NewTableSwitchInsn creates a tableswitch over [min, min+len(labels)).
func NewTableSwitchInsn(min int, dflt string, labels ...string) *Insn {
	return &Insn{
		Op: TABLESWITCH, Kind: KindTableSwitch,
		Min: min, Max: min + len(labels) - 1, Default: dflt, Labels: labels,
	}
}

// NewLookupSwitchInsn creates a lookupswitch; keys and labels are parallel.
func NewLookupSwitchInsn(dflt string, keys []int, labels []string) *Insn {
	return &Insn{Op: LOOKUPSWITCH, Kind: KindLookupSwitch, Default: dflt, Keys: keys, Labels: labels}
}

// NewMultiANewArrayInsn creates a multianewarray instruction.
func NewMultiANewArrayInsn(desc string, dims int) *Insn {
	return &Insn{Op: MULTIANEWARRAY, Kind: KindMultiANewArray, Desc: desc, Operand: dims}
}

// NewLabel creates a label pseudo instruction.
func NewLabel(name string) *Insn {
	return &Insn{Op: OpNone, Kind: KindLabel, Name: name}
}

// NewLine creates a line number marker.
func NewLine(line int) *Insn {
	return &Insn{Op: OpNone, Kind: KindLine, Operand: line}
}

// NewFrameInsn creates a stack map frame marker.
func NewFrameInsn(f *FrameNode) *Insn {
	return &Insn{Op: OpNone, Kind: KindFrame, Frame: f}
}

func (i *Insn) String() string {
	switch i.Kind {
	case KindLabel:
		return i.Name + ":"
	case KindLine:
		return "line " + strconv.Itoa(i.Operand)
	case KindFrame:
		return i.Frame.String()
	case KindInt:
		return fmt.Sprintf("%s %d", i.Op, i.Operand)
	case KindVar:
		return fmt.Sprintf("%s %d", i.Op, i.Var)
	case KindIinc:
		return fmt.Sprintf("%s %d %d", i.Op, i.Var, i.Incr)
	case KindType:
		return fmt.Sprintf("%s %s", i.Op, i.Desc)
	case KindField, KindMethod:
		return fmt.Sprintf("%s %s %s %s", i.Op, i.Owner, i.Name, i.Desc)
	case KindInvokeDynamic:
		return fmt.Sprintf("%s %s %s", i.Op, i.Name, i.Desc)
	case KindJump:
		return fmt.Sprintf("%s %s", i.Op, i.Target)
	case KindLdc:
		return fmt.Sprintf("%s %s", i.Op, formatConst(i.Const))
	case KindTableSwitch:
		return fmt.Sprintf("%s %d { %s } default %s", i.Op, i.Min, strings.Join(i.Labels, ", "), i.Default)
	case KindLookupSwitch:
		cases := make([]string, len(i.Keys))
		for n, k := range i.Keys {
			cases[n] = fmt.Sprintf("%d: %s", k, i.Labels[n])
		}
		return fmt.Sprintf("%s { %s } default %s", i.Op, strings.Join(cases, ", "), i.Default)
	case KindMultiANewArray:
		return fmt.Sprintf("%s %s %d", i.Op, i.Desc, i.Operand)
	default:
		return i.Op.String()
	}
}

func formatConst(c any) string {
	switch v := c.(type) {
	case string:
		return strconv.Quote(v)
	case int64:
		return fmt.Sprintf("%dL", v)
	case float32:
		return fmt.Sprintf("%gF", v)
	case float64:
		return fmt.Sprintf("%gD", v)
	case Type:
		return "class " + v.InternalName()
	default:
		return fmt.Sprintf("%v", v)
	}
}
