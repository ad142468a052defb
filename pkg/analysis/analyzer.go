package analysis

import (
	"framecheck/pkg/jvm"

	"github.com/pkg/errors"
)

// FrameTable holds the frame known at each instruction index of a method, nil
// where none is.
type FrameTable []*Frame

// Analyzer validates the declared stack map frames of methods with a single
// forward pass. An Analyzer holds no per-method state and may be shared by
// goroutines as long as its Interpreter is safe for concurrent use.
type Analyzer struct {
	interp Interpreter
}

// NewAnalyzer creates an analyzer computing values with interp.
func NewAnalyzer(interp Interpreter) *Analyzer {
	return &Analyzer{interp: interp}
}

// methodState is the state of one Validate call.
type methodState struct {
	owner  string
	m      *jvm.Method
	labels map[string]int
	frames FrameTable

	// handlers covering each index
	handlers [][]*jvm.Handler
	// next[i] is the first real instruction or frame marker at or after i,
	// len(insns) if none
	next []int
}

// Validate checks the frames declared in m, a method of class owner. It
// returns the frame table computed for the method, or an *Error locating the
// first inconsistency. Methods without code validate to an empty table.
func (a *Analyzer) Validate(owner string, m *jvm.Method) (FrameTable, error) {
	if !m.HasCode() {
		return FrameTable{}, nil
	}

	s, err := newMethodState(owner, m)
	if err != nil {
		return nil, err
	}

	initial, argSlots, err := initialFrame(a.interp, owner, m)
	if err != nil {
		return nil, locate(0, err)
	}
	s.frames[0] = initial

	if err := a.expandFrames(s, initial, argSlots); err != nil {
		return nil, err
	}

	if err := a.run(s); err != nil {
		return nil, err
	}

	return s.frames, nil
}

func newMethodState(owner string, m *jvm.Method) (*methodState, error) {
	labels, err := m.Labels()
	if err != nil {
		return nil, locate(0, err)
	}

	n := len(m.Insns)
	s := &methodState{
		owner:    owner,
		m:        m,
		labels:   labels,
		frames:   make(FrameTable, n),
		handlers: make([][]*jvm.Handler, n),
		next:     make([]int, n+1),
	}

	for k := range m.Handlers {
		h := &m.Handlers[k]
		start, end, err := s.resolveRange(h)
		if err != nil {
			return nil, locate(0, err)
		}
		for i := start; i < end; i++ {
			s.handlers[i] = append(s.handlers[i], h)
		}
	}

	s.next[n] = n
	for i := n - 1; i >= 0; i-- {
		if insn := m.Insns[i]; insn.IsReal() || insn.Kind == jvm.KindFrame {
			s.next[i] = i
		} else {
			s.next[i] = s.next[i+1]
		}
	}

	return s, nil
}

func (s *methodState) resolveRange(h *jvm.Handler) (int, int, error) {
	start, err := s.label(h.Start)
	if err != nil {
		return 0, 0, err
	}

	end, err := s.label(h.End)
	if err != nil {
		return 0, 0, err
	}

	if _, err := s.label(h.Handler); err != nil {
		return 0, 0, err
	}

	return start, end, nil
}

func (s *methodState) label(name string) (int, error) {
	idx, ok := s.labels[name]
	if !ok {
		return 0, errors.Errorf("undefined label %s", name)
	}

	return idx, nil
}

// run walks the instructions once, propagating frames along every edge.
func (a *Analyzer) run(s *methodState) error {
	insns := s.m.Insns
	current := NewFrame(s.m.MaxLocals, s.m.MaxStack)

	for i := 0; i < len(insns) && s.next[i] < len(insns); i++ {
		old := s.frames[i]
		if err := a.step(s, i, old, current); err != nil {
			return locate(i, err)
		}

		for _, h := range s.handlers[i] {
			entry := old.Clone()
			entry.ClearStack()
			catchType := jvm.ObjectType(h.CatchType())
			if err := entry.Push(a.interp.NewExceptionValue(h, entry, catchType)); err != nil {
				return locate(i, err)
			}
			if err := a.checkFrame(s, s.labels[h.Handler], entry, true); err != nil {
				return locate(i, err)
			}
		}
	}

	return nil
}

// step processes instruction i, reached with frame old, using current as
// scratch space.
func (a *Analyzer) step(s *methodState, i int, old, current *Frame) error {
	insn := s.m.Insns[i]
	if !insn.IsReal() {
		return a.checkFrame(s, i+1, old, false)
	}

	if err := current.Init(old).Execute(insn, a.interp); err != nil {
		return err
	}

	switch {
	case insn.Op == jvm.JSR:
		return newKindError(ErrUnsupported, "JSR instructions are unsupported")

	case insn.Op == jvm.RET:
		return newKindError(ErrUnsupported, "RET instructions are unsupported")

	case insn.Op.IsJump():
		if err := a.checkTarget(s, insn.Target, current); err != nil {
			return err
		}
		if !insn.Op.IsConditional() {
			return a.endControlFlow(s, i)
		}
		return a.fallThrough(s, i, current)

	case insn.Op.IsSwitch():
		for _, target := range insn.Targets() {
			if err := a.checkTarget(s, target, current); err != nil {
				return err
			}
		}
		return a.endControlFlow(s, i)

	case insn.Op.IsReturn(), insn.Op == jvm.ATHROW:
		return a.endControlFlow(s, i)

	default:
		return a.fallThrough(s, i, current)
	}
}

func (a *Analyzer) checkTarget(s *methodState, label string, f *Frame) error {
	idx, err := s.label(label)
	if err != nil {
		return err
	}

	return a.checkFrame(s, idx, f, true)
}

func (a *Analyzer) fallThrough(s *methodState, i int, f *Frame) error {
	if s.next[i+1] == len(s.m.Insns) {
		return errors.New("execution can fall off the end of the code")
	}

	return a.checkFrame(s, i+1, f, false)
}

// endControlFlow requires a frame at the instruction following a
// non-fallthrough instruction, since it can only be reached by a jump.
func (a *Analyzer) endControlFlow(s *methodState, i int) error {
	next := s.next[i+1]
	if next == len(s.m.Insns) || s.frames[next] != nil {
		return nil
	}

	return &FrameError{Target: next, Err: ErrMissingFrame}
}

// checkFrame validates the edge carrying f into idx. Without a frame at idx,
// a copy of f is installed unless one is required.
func (a *Analyzer) checkFrame(s *methodState, idx int, f *Frame, require bool) error {
	declared := s.frames[idx]
	if declared == nil {
		if require {
			return &FrameError{Target: idx, Err: ErrMissingFrame}
		}
		s.frames[idx] = f.Clone()
		return nil
	}

	if err := CheckMerge(a.interp, f, declared); err != nil {
		return &FrameError{Target: idx, Err: err}
	}

	return nil
}
