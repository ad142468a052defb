package parser

import (
	"fmt"

	"framecheck/pkg/color"
	"framecheck/pkg/lexer"
)

// addError records a parsing error at the current token
func (p *Parser) addError(msg string) {
	p.addErrorAt(p.currentToken, msg)
}

// addErrorAt records a parsing error with the location of tok
func (p *Parser) addErrorAt(tok lexer.Token, msg string) {
	p.errors = append(p.errors, color.ErrorWithPosition(tok.Pos.Line, tok.Pos.Column, msg))
}

// addExpectedError reports a missing token of type t
func (p *Parser) addExpectedError(t lexer.TokenType) {
	p.addError(p.categorizeError(t, p.currentToken))
}

// Errors returns the list of parsing errors
func (p *Parser) Errors() []string {
	return p.errors
}

// categorizeError provides a specific error message based on expected token and current token
func (p *Parser) categorizeError(expected lexer.TokenType, current lexer.Token) string {
	if current.Type == lexer.EOF {
		return fmt.Sprintf("Unexpected end of input, expected %s", expected)
	}

	switch expected {
	case lexer.RBRACE:
		return "Missing closing brace"
	case lexer.LBRACE:
		return "Missing opening brace"
	case lexer.COLON:
		return "Missing colon"
	case lexer.NUM:
		return "Expected number"
	case lexer.DEFAULT:
		return "Missing default label"
	case lexer.WORD:
		if current.Type.GetCategory() == lexer.KEYWORD {
			return fmt.Sprintf("Cannot use reserved keyword '%s' as a name", current.Lexeme)
		}
		return "Expected name"
	}

	return fmt.Sprintf("Syntax error: unexpected '%s'", current.Lexeme)
}
