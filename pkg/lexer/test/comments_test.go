package lexer_test

import (
	"framecheck/pkg/lexer"
	"testing"
)

func TestComments(t *testing.T) {
	input := `// test comment
maxstack 2 // another test comment
// another another test comment
iload 0`

	mylexer := lexer.NewLexer(input)
	expectedTokens := []lexer.TokenType{
		lexer.MAXSTACK, lexer.NUM,
		lexer.WORD, lexer.NUM,
		lexer.EOF,
	}

	for i, expected := range expectedTokens {
		token := mylexer.NextToken()
		if token.Type != expected {
			t.Errorf("Token %d: expected %s, got %s", i, expected, token.Type)
		}
	}
}
