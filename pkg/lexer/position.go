package lexer

import "fmt"

// Position locates a token in the source. Line and Column are 1-based,
// Offset is the byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String renders the position as line:col, the form parse errors use.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func NewPosition(line, column, offset int) Position {
	return Position{Line: line, Column: column, Offset: offset}
}
