package jvm

import "github.com/pkg/errors"

// Access holds class and method access flags.
type Access uint16

const (
	AccPublic       Access = 0x0001
	AccPrivate      Access = 0x0002
	AccProtected    Access = 0x0004
	AccStatic       Access = 0x0008
	AccFinal        Access = 0x0010
	AccSynchronized Access = 0x0020
	AccNative       Access = 0x0100
	AccInterface    Access = 0x0200
	AccAbstract     Access = 0x0400
)

var accessNames = map[string]Access{
	"public":       AccPublic,
	"private":      AccPrivate,
	"protected":    AccProtected,
	"static":       AccStatic,
	"final":        AccFinal,
	"synchronized": AccSynchronized,
	"native":       AccNative,
	"interface":    AccInterface,
	"abstract":     AccAbstract,
}

// ParseAccess maps a modifier keyword to its flag.
func ParseAccess(s string) (Access, bool) {
	a, ok := accessNames[s]
	return a, ok
}

// Handler is an exception table entry. Start is inclusive, End exclusive.
// An empty Type catches everything.
type Handler struct {
	Start   string
	End     string
	Handler string
	Type    string
}

// CatchType returns the internal name of the caught class, defaulting to
// java/lang/Throwable for catch-all handlers.
func (h *Handler) CatchType() string {
	if h.Type == "" {
		return "java/lang/Throwable"
	}

	return h.Type
}

// Method is a method body: its instruction list, exception table and limits.
type Method struct {
	Access    Access
	Name      string
	Desc      string
	MaxStack  int
	MaxLocals int
	Insns     []*Insn
	Handlers  []Handler
}

// IsStatic reports whether the method has no receiver.
func (m *Method) IsStatic() bool {
	return m.Access&AccStatic != 0
}

// HasCode reports whether the method carries a body to analyze.
func (m *Method) HasCode() bool {
	return m.Access&(AccAbstract|AccNative) == 0 && len(m.Insns) > 0
}

// Labels indexes label names by instruction index.
func (m *Method) Labels() (map[string]int, error) {
	labels := make(map[string]int)
	for idx, insn := range m.Insns {
		if insn.Kind != KindLabel {
			continue
		}
		if _, dup := labels[insn.Name]; dup {
			return nil, errors.Errorf("duplicate label %s", insn.Name)
		}
		labels[insn.Name] = idx
	}

	return labels, nil
}

func (m *Method) String() string {
	return m.Name + m.Desc
}

// Class groups methods with the hierarchy information of their owner.
type Class struct {
	Access     Access
	Name       string
	Super      string
	Interfaces []string
	Methods    []*Method
}

// IsInterface reports whether the class is an interface.
func (c *Class) IsInterface() bool {
	return c.Access&AccInterface != 0
}
