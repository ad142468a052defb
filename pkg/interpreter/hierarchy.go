package interpreter

import (
	"sync"

	"framecheck/pkg/jvm"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

const assignableCacheSize = 4096

// ClassInfo describes a class or interface of the hierarchy.
type ClassInfo struct {
	Name       string
	Super      string
	Interfaces []string
	Interface  bool
}

// core java.lang classes always known to the hierarchy
var builtinClasses = []ClassInfo{
	{Name: "java/lang/Object"},
	{Name: "java/lang/Cloneable", Interface: true},
	{Name: "java/io/Serializable", Interface: true},
	{Name: "java/lang/Comparable", Interface: true},
	{Name: "java/lang/CharSequence", Interface: true},
	{Name: "java/lang/Runnable", Interface: true},
	{Name: "java/lang/String", Super: "java/lang/Object", Interfaces: []string{"java/io/Serializable", "java/lang/Comparable", "java/lang/CharSequence"}},
	{Name: "java/lang/Class", Super: "java/lang/Object", Interfaces: []string{"java/io/Serializable"}},
	{Name: "java/lang/Number", Super: "java/lang/Object", Interfaces: []string{"java/io/Serializable"}},
	{Name: "java/lang/Integer", Super: "java/lang/Number", Interfaces: []string{"java/lang/Comparable"}},
	{Name: "java/lang/Long", Super: "java/lang/Number", Interfaces: []string{"java/lang/Comparable"}},
	{Name: "java/lang/Float", Super: "java/lang/Number", Interfaces: []string{"java/lang/Comparable"}},
	{Name: "java/lang/Double", Super: "java/lang/Number", Interfaces: []string{"java/lang/Comparable"}},
	{Name: "java/lang/Throwable", Super: "java/lang/Object", Interfaces: []string{"java/io/Serializable"}},
	{Name: "java/lang/Exception", Super: "java/lang/Throwable"},
	{Name: "java/lang/Error", Super: "java/lang/Throwable"},
	{Name: "java/lang/RuntimeException", Super: "java/lang/Exception"},
	{Name: "java/lang/IllegalArgumentException", Super: "java/lang/RuntimeException"},
	{Name: "java/lang/IllegalStateException", Super: "java/lang/RuntimeException"},
	{Name: "java/lang/NullPointerException", Super: "java/lang/RuntimeException"},
	{Name: "java/lang/ArithmeticException", Super: "java/lang/RuntimeException"},
	{Name: "java/lang/invoke/MethodType", Super: "java/lang/Object", Interfaces: []string{"java/io/Serializable"}},
	{Name: "java/lang/invoke/MethodHandle", Super: "java/lang/Object"},
}

type assignKey struct {
	t, u jvm.Type
}

// Hierarchy answers subtyping questions about reference types. Unknown
// classes are assumed to extend java/lang/Object directly. It is safe for
// concurrent use.
type Hierarchy struct {
	mu      sync.RWMutex
	classes map[string]ClassInfo

	assignable *lru.ARCCache
}

// NewHierarchy creates a hierarchy holding the core java.lang classes and
// the given ones.
func NewHierarchy(classes ...ClassInfo) (*Hierarchy, error) {
	cache, err := lru.NewARC(assignableCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "creating assignability cache")
	}

	h := &Hierarchy{
		classes:    make(map[string]ClassInfo, len(builtinClasses)+len(classes)),
		assignable: cache,
	}

	for _, c := range builtinClasses {
		h.classes[c.Name] = c
	}
	for _, c := range classes {
		if err := h.Add(c); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// Add registers or replaces a class.
func (h *Hierarchy) Add(c ClassInfo) error {
	if c.Name == "" {
		return errors.New("class without a name")
	}
	if c.Name == c.Super {
		return errors.Errorf("class %s extends itself", c.Name)
	}

	h.mu.Lock()
	h.classes[c.Name] = c
	h.mu.Unlock()

	h.assignable.Purge()
	return nil
}

// Lookup returns the class registered under name.
func (h *Hierarchy) Lookup(name string) (ClassInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.classes[name]
	return c, ok
}

// Len returns the number of known classes.
func (h *Hierarchy) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.classes)
}

// IsInterface reports whether t names a known interface.
func (h *Hierarchy) IsInterface(t jvm.Type) bool {
	if t.Sort() != jvm.SortObject {
		return false
	}

	c, ok := h.Lookup(t.InternalName())
	return ok && c.Interface
}

// SuperClass returns the direct superclass of an object type, false for
// java/lang/Object and non object types.
func (h *Hierarchy) SuperClass(t jvm.Type) (jvm.Type, bool) {
	if t.Sort() != jvm.SortObject || t == objectType {
		return jvm.Type{}, false
	}

	c, ok := h.Lookup(t.InternalName())
	if !ok || c.Super == "" {
		return objectType, true
	}

	return jvm.ObjectType(c.Super), true
}

// IsAssignableFrom reports whether a value of reference type u can be stored
// where a t is expected. Interfaces are treated as java/lang/Object, the way
// the bytecode verifier does.
func (h *Hierarchy) IsAssignableFrom(t, u jvm.Type) bool {
	if t == u {
		return true
	}

	key := assignKey{t, u}
	if v, ok := h.assignable.Get(key); ok {
		return v.(bool)
	}

	ok := h.isAssignableFrom(t, u)
	h.assignable.Add(key, ok)
	return ok
}

func (h *Hierarchy) isAssignableFrom(t, u jvm.Type) bool {
	if t == u {
		return true
	}
	if !t.IsReference() || !u.IsReference() {
		return false
	}
	if u == nullType || t == objectType || h.IsInterface(t) {
		return true
	}

	if u.Sort() == jvm.SortArray {
		if t.Sort() != jvm.SortArray {
			// only Object and interfaces hold arrays
			return false
		}
		tc, uc := t.ComponentType(), u.ComponentType()
		if tc.IsReference() && uc.IsReference() {
			return h.IsAssignableFrom(tc, uc)
		}
		return tc == uc
	}

	if t.Sort() == jvm.SortArray || t == nullType {
		return false
	}

	// walk the superclasses of u, giving up on cycles
	limit := h.Len() + 1
	for s, ok := h.SuperClass(u); ok && limit > 0; s, ok = h.SuperClass(s) {
		if s == t {
			return true
		}
		limit--
	}

	return false
}
