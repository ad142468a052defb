package analysis

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error categories. Every error returned by Validate is an *Error whose chain
// contains at most one of these.
var (
	ErrMissingFrame      = errors.New("missing stack map frame")
	ErrIncompatibleFrame = errors.New("incompatible stack map frame")
	ErrIllegalFrame      = errors.New("illegal stack map frame")
	ErrUnsupported       = errors.New("unsupported instruction")
)

// Error locates a validation failure at the instruction being processed.
type Error struct {
	Offset int
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("error at instruction %d: %v", e.Offset, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FrameError reports a join at Target that could not be validated: either no
// frame is declared there or the declared frame does not accept the incoming
// state.
type FrameError struct {
	Target int
	Err    error
}

func (e *FrameError) Error() string {
	if errors.Is(e.Err, ErrMissingFrame) {
		return fmt.Sprintf("expected stack map frame at instruction %d", e.Target)
	}

	return fmt.Sprintf("stack map frame incompatible with frame at instruction %d (%v)", e.Target, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// kindError attaches a category to a diagnostic without changing its text.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Unwrap() error {
	return e.kind
}

func newKindError(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func locate(offset int, err error) error {
	return &Error{Offset: offset, Err: err}
}
