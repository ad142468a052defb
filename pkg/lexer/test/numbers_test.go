package lexer_test

import (
	"framecheck/pkg/lexer"
	"testing"
)

func TestNumbers(t *testing.T) {
	tests := []struct {
		input       string
		expected    lexer.TokenType
		description string
	}{
		{"42", lexer.NUM, "integer"},
		{"0", lexer.NUM, "zero"},
		{"-1", lexer.NUM, "negative integer"},
		{"+7", lexer.NUM, "explicitly positive integer"},

		{"12L", lexer.NUM, "long"},
		{"12l", lexer.NUM, "lowercase long"},
		{"1.5F", lexer.NUM, "float"},
		{"1.5D", lexer.NUM, "double"},
		{"3.14", lexer.NUM, "unsuffixed double"},
		{"-0.5f", lexer.NUM, "negative float"},

		{"1e5", lexer.NUM, "scientific notation with e"},
		{"1e-5D", lexer.NUM, "scientific notation double"},
		{"2.5E10F", lexer.NUM, "scientific notation float"},
	}

	for _, test := range tests {
		tokenType, lexeme, matched := lexer.MatchToken(test.input)
		if !matched {
			t.Errorf("Failed to match %s (%s)", test.input, test.description)
		}
		if tokenType != test.expected {
			t.Errorf("Input %s (%s): expected %s, got %s", test.input, test.description, test.expected, tokenType)
		}
		if lexeme != test.input {
			t.Errorf("Input %s (%s): expected lexeme %s, got %s", test.input, test.description, test.input, lexeme)
		}
	}
}
