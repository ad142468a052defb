package analysis

import (
	"framecheck/pkg/jvm"

	"github.com/pkg/errors"
)

// expander turns the declared frames of a method, possibly in compressed
// form, into full frames.
type expander struct {
	interp Interpreter
	owner  string
	m      *jvm.Method
	labels map[string]int

	current *Frame
	locals  int // number of locals defined by current

	sawNew        bool
	sawCompressed bool
}

// expandFrames stores the expanded frame of every frame marker at the
// marker's index, and at every pseudo instruction between the previous real
// instruction or marker and it. initial is not modified.
func (a *Analyzer) expandFrames(s *methodState, initial *Frame, argSlots int) error {
	e := &expander{
		interp:  a.interp,
		owner:   s.owner,
		m:       s.m,
		labels:  s.labels,
		current: initial.Clone(),
		locals:  argSlots,
	}

	last := -1
	for i, insn := range s.m.Insns {
		if insn.Kind == jvm.KindFrame {
			if err := e.expand(insn.Frame); err != nil {
				return locate(i, err)
			}
			for j := last + 1; j <= i; j++ {
				s.frames[j] = e.current.Clone()
			}
		}

		if insn.IsReal() || insn.Kind == jvm.KindFrame {
			last = i
		}
	}

	return nil
}

// expand applies node to the current frame.
func (e *expander) expand(node *jvm.FrameNode) error {
	if node.Kind == jvm.FrameNew {
		e.sawNew = true
	} else {
		e.sawCompressed = true
	}
	if e.sawNew && e.sawCompressed {
		return newKindError(ErrIllegalFrame, "expanded and compressed frames must not be mixed")
	}

	f := e.current
	switch node.Kind {
	case jvm.FrameNew, jvm.FrameFull:
		e.locals = 0
		if err := e.append(node.Locals); err != nil {
			return err
		}

	case jvm.FrameAppend:
		if err := e.append(node.Locals); err != nil {
			return err
		}

	case jvm.FrameChop:
		for n := 0; n < node.Chop; n++ {
			if e.locals <= 0 {
				return newKindError(ErrIllegalFrame, "cannot chop more locals than defined")
			}
			e.locals--
			if e.locals > 0 && f.locals[e.locals-1].Size() == 2 {
				e.locals--
			}
		}

	case jvm.FrameSame:
		if len(node.Stack) != 0 {
			return newKindError(ErrIllegalFrame, "same frame must have an empty stack")
		}

	case jvm.FrameSame1:
		if len(node.Stack) != 1 {
			return newKindError(ErrIllegalFrame, "same1 frame must have exactly one stack item")
		}

	default:
		return newKindError(ErrIllegalFrame, "illegal frame type %d", int(node.Kind))
	}

	// slots past the defined locals are top; the cursor stays put so a later
	// append or chop continues from the defined count
	for j := e.locals; j < f.Locals(); j++ {
		f.locals[j] = e.interp.NewValue(nil)
	}

	f.ClearStack()
	for _, item := range node.Stack {
		v, err := e.value(item)
		if err != nil {
			return err
		}
		if err := f.Push(v); err != nil {
			return err
		}
	}

	return nil
}

func (e *expander) append(items []jvm.FrameItem) error {
	f := e.current
	for _, item := range items {
		v, err := e.value(item)
		if err != nil {
			return err
		}
		if e.locals+v.Size() > f.Locals() {
			return newKindError(ErrIllegalFrame, "cannot append more locals than max-locals")
		}
		f.locals[e.locals] = v
		e.locals++
		if v.Size() == 2 {
			f.locals[e.locals] = e.interp.NewValue(nil)
			e.locals++
		}
	}

	return nil
}

// value resolves a frame item to a domain value.
func (e *expander) value(item jvm.FrameItem) (Value, error) {
	var t jvm.Type
	switch item.Tag {
	case jvm.ItemTop:
		return e.interp.NewValue(nil), nil
	case jvm.ItemInteger:
		t = jvm.IntType
	case jvm.ItemFloat:
		t = jvm.FloatType
	case jvm.ItemLong:
		t = jvm.LongType
	case jvm.ItemDouble:
		t = jvm.DoubleType
	case jvm.ItemNull:
		return e.interp.NewOperation(jvm.NewInsn(jvm.ACONST_NULL))
	case jvm.ItemUninitializedThis:
		t = jvm.ObjectType(e.owner)
	case jvm.ItemObject:
		t = jvm.ObjectType(item.Name)
	case jvm.ItemUninitialized:
		insn, err := e.newInsnAt(item.Name)
		if err != nil {
			return nil, err
		}
		t = jvm.ObjectType(insn.Desc)
	default:
		return nil, newKindError(ErrIllegalFrame, "illegal frame item %d", int(item.Tag))
	}

	return e.interp.NewValue(&t), nil
}

// newInsnAt returns the NEW instruction designated by label.
func (e *expander) newInsnAt(label string) (*jvm.Insn, error) {
	idx, ok := e.labels[label]
	if !ok {
		return nil, errors.Errorf("undefined label %s", label)
	}

	for _, insn := range e.m.Insns[idx:] {
		if !insn.IsReal() {
			continue
		}
		if insn.Op == jvm.NEW {
			return insn, nil
		}
		break
	}

	return nil, newKindError(ErrIllegalFrame, "label %s does not designate a NEW instruction", label)
}
