package jvm

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FrameKind is the encoding of a declared stack map frame.
type FrameKind int

const (
	FrameNew    FrameKind = -1 // expanded form
	FrameFull   FrameKind = 0
	FrameAppend FrameKind = 1
	FrameChop   FrameKind = 2
	FrameSame   FrameKind = 3
	FrameSame1  FrameKind = 4
)

var frameKindNames = map[FrameKind]string{
	FrameNew:    "new",
	FrameFull:   "full",
	FrameAppend: "append",
	FrameChop:   "chop",
	FrameSame:   "same",
	FrameSame1:  "same1",
}

// ParseFrameKind maps a frame keyword ("same", "append", ...) to its kind.
func ParseFrameKind(s string) (FrameKind, bool) {
	for k, name := range frameKindNames {
		if name == s {
			return k, true
		}
	}

	return 0, false
}

func (k FrameKind) String() string {
	if name, ok := frameKindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("FrameKind(%d)", int(k))
}

// ItemTag identifies the verification type of a frame item.
type ItemTag uint8

const (
	ItemTop ItemTag = iota
	ItemInteger
	ItemFloat
	ItemDouble
	ItemLong
	ItemNull
	ItemUninitializedThis
	ItemObject
	ItemUninitialized
)

// FrameItem is one local or stack entry of a declared frame. Name holds the
// internal class name for ItemObject and the label of the NEW instruction for
// ItemUninitialized.
type FrameItem struct {
	Tag  ItemTag
	Name string
}

var (
	Top               = FrameItem{Tag: ItemTop}
	Integer           = FrameItem{Tag: ItemInteger}
	Float             = FrameItem{Tag: ItemFloat}
	Long              = FrameItem{Tag: ItemLong}
	Double            = FrameItem{Tag: ItemDouble}
	Null              = FrameItem{Tag: ItemNull}
	UninitializedThis = FrameItem{Tag: ItemUninitializedThis}
)

// Object returns the frame item for an initialized reference of the given class.
func Object(internalName string) FrameItem {
	return FrameItem{Tag: ItemObject, Name: internalName}
}

// Uninitialized returns the frame item for the result of the NEW at label.
func Uninitialized(label string) FrameItem {
	return FrameItem{Tag: ItemUninitialized, Name: label}
}

var itemKeywords = map[string]FrameItem{
	"top":                Top,
	"int":                Integer,
	"float":              Float,
	"long":               Long,
	"double":             Double,
	"null":               Null,
	"uninitialized_this": UninitializedThis,
}

// ParseFrameItem parses the textual form of a frame item: a keyword
// (int, long, top, ...), "uninitialized(L)" or a class internal name.
func ParseFrameItem(s string) (FrameItem, error) {
	if item, ok := itemKeywords[s]; ok {
		return item, nil
	}

	if strings.HasPrefix(s, "uninitialized(") && strings.HasSuffix(s, ")") {
		label := s[len("uninitialized(") : len(s)-1]
		if label == "" {
			return FrameItem{}, errors.Errorf("missing label in %q", s)
		}
		return Uninitialized(label), nil
	}

	if s == "" {
		return FrameItem{}, errors.New("empty frame item")
	}

	return Object(s), nil
}

func (it FrameItem) String() string {
	switch it.Tag {
	case ItemObject:
		return it.Name
	case ItemUninitialized:
		return "uninitialized(" + it.Name + ")"
	}

	for name, item := range itemKeywords {
		if item == it {
			return name
		}
	}

	return fmt.Sprintf("item(%d)", it.Tag)
}

// FrameNode is a declared stack map frame. For FrameChop, Chop is the number
// of locals removed; Locals is unused.
type FrameNode struct {
	Kind   FrameKind
	Locals []FrameItem
	Stack  []FrameItem
	Chop   int
}

func (f *FrameNode) String() string {
	switch f.Kind {
	case FrameSame:
		return "frame same"
	case FrameChop:
		return fmt.Sprintf("frame chop %d", f.Chop)
	case FrameSame1:
		return "frame same1 " + formatItems(f.Stack)
	case FrameAppend:
		return "frame append " + formatItems(f.Locals)
	default:
		return fmt.Sprintf("frame %s %s %s", f.Kind, formatItems(f.Locals), formatItems(f.Stack))
	}
}

func formatItems(items []FrameItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}

	return "{" + strings.Join(parts, ", ") + "}"
}
