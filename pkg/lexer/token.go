package lexer

import (
	"fmt"
)

type TokenType int
type TokenCategory int

type Token struct {
	Type    TokenType // Type of the token
	Lexeme  string    // Actual string from source code
	Literal string    // Literal value (if applicable), empty string if not
	Pos     Position  // Position in source code
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, literal string, Pos Position) Token {
	return Token{
		Type:    tokenType,
		Lexeme:  lexeme,
		Literal: literal,
		Pos:     Pos,
	}
}

const (
	NONE TokenCategory = iota
	KEYWORD
	IDENTIFIER
	LITERAL
	DELIMITER
)

const (
	EOF TokenType = iota // End of file

	CLASS      // class
	EXTENDS    // extends
	IMPLEMENTS // implements
	METHOD     // method
	END        // end
	MAXSTACK   // maxstack
	MAXLOCALS  // maxlocals
	TRY        // try
	LINE       // line
	FRAME      // frame
	DEFAULT    // default

	WORD   // names, mnemonics, descriptors, labels
	NUM    // num (number)
	STRING // string literal

	COMMA  // ,
	COLON  // :
	LBRACE // {
	RBRACE // }

	ILLEGAL // illegal token
)

var Keywords = map[string]TokenType{
	"class":      CLASS,
	"extends":    EXTENDS,
	"implements": IMPLEMENTS,
	"method":     METHOD,
	"end":        END,
	"maxstack":   MAXSTACK,
	"maxlocals":  MAXLOCALS,
	"try":        TRY,
	"line":       LINE,
	"frame":      FRAME,
	"default":    DEFAULT,
}

var tokenNames = map[TokenType]string{
	CLASS:      "class",
	EXTENDS:    "extends",
	IMPLEMENTS: "implements",
	METHOD:     "method",
	END:        "end",
	MAXSTACK:   "maxstack",
	MAXLOCALS:  "maxlocals",
	TRY:        "try",
	LINE:       "line",
	FRAME:      "frame",
	DEFAULT:    "default",
	WORD:       "word",
	NUM:        "num",
	STRING:     "string",
	COMMA:      ",",
	COLON:      ":",
	LBRACE:     "{",
	RBRACE:     "}",
	ILLEGAL:    "illegal",
	EOF:        "$",
}

// TokenToString converts a TokenType to its string representation
func (t Token) TokenToString() (string, bool) {
	str, ok := tokenNames[t.Type]
	return str, ok
}

// String returns a string representation of the Token
func (t Token) String() string {
	if t.Literal == "" {
		return fmt.Sprintf("T_{%s, %v, nil, %s}",
			t.Type, t.Lexeme, t.Pos.String())
	}

	return fmt.Sprintf("T_{%s, %v, %q, %s}",
		t.Type, t.Lexeme, t.Literal, t.Pos.String())
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if str, ok := (Token{Type: t}).TokenToString(); ok {
		return str
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// GetCategory returns the category of the token
func (t TokenType) GetCategory() TokenCategory {
	switch t {
	case CLASS, EXTENDS, IMPLEMENTS, METHOD, END, MAXSTACK, MAXLOCALS, TRY, LINE, FRAME, DEFAULT:
		return KEYWORD
	case WORD:
		return IDENTIFIER
	case NUM, STRING:
		return LITERAL
	case COMMA, COLON, LBRACE, RBRACE:
		return DELIMITER
	default:
		return NONE
	}
}

// IsKeyword checks if the given word is a keyword and returns its TokenType if it is
func IsKeyword(word string) (TokenType, bool) {
	tokenType, ok := Keywords[word]
	return tokenType, ok
}
