package lexer

import "strconv"

// Lexer splits assembly source into tokens. Whitespace and // comments are
// skipped; line numbers are kept because the parser treats a line as the
// unit of error recovery.
type Lexer struct {
	input    string // source being tokenized
	position int    // byte offset of the next unread character
	line     int    // 1-based line of position
	column   int    // 1-based column of position
}

// Create a new lexer instance
func NewLexer(s string) *Lexer {
	return &Lexer{input: s, line: 1, column: 1}
}

// NextToken returns the next token, EOF once the input is exhausted.
// A character no token starts with comes back as a one character ILLEGAL
// token so the caller can report it and continue.
func (l *Lexer) NextToken() Token {
	for {
		remaining := l.input[l.position:]
		if remaining == "" {
			return NewToken(EOF, "", "", l.currentPosition())
		}

		tokenType, lexeme, matched := MatchToken(remaining)
		pos := l.currentPosition()

		switch {
		case matched && tokenType == EOF:
			// whitespace or a comment
			l.advance(len(lexeme))
			continue
		case !matched:
			l.advance(1)
			return NewToken(ILLEGAL, remaining[:1], "", pos)
		}

		l.advance(len(lexeme))
		return NewToken(tokenType, lexeme, literalOf(tokenType, lexeme), pos)
	}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() Token {
	saved := *l
	tok := l.NextToken()
	*l = saved

	return tok
}

func literalOf(t TokenType, lexeme string) string {
	if t != STRING {
		return lexeme
	}

	if unquoted, err := strconv.Unquote(lexeme); err == nil {
		return unquoted
	}
	return lexeme[1 : len(lexeme)-1]
}

// Advance the lexer position by n bytes, tracking lines and columns
func (l *Lexer) advance(n int) {
	for ; n > 0 && l.position < len(l.input); n-- {
		if l.input[l.position] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.position++
	}
}

func (l *Lexer) currentPosition() Position {
	return NewPosition(l.line, l.column, l.position)
}
