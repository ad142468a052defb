package lexer

import (
	"regexp"
)

// Token regex patterns. Keywords are lexed as words and looked up afterwards,
// so "end" never matches inside a class name like "end/Marker".
var tokenRegexes = map[TokenType]*regexp.Regexp{
	COMMA:  regexp.MustCompile(`^,`),
	COLON:  regexp.MustCompile(`^:`),
	LBRACE: regexp.MustCompile(`^\{`),
	RBRACE: regexp.MustCompile(`^\}`),

	NUM:    regexp.MustCompile(`^[+-]?\d+(\.\d+)?([eE][+-]?\d+)?[LlFfDd]?`),
	STRING: regexp.MustCompile(`^"([^"\\]|\\.)*"`),
	WORD:   regexp.MustCompile(`^[A-Za-z_$<\[(][^\s{},:"]*`),
}

var (
	whitespaceRegex = regexp.MustCompile(`^\s+`)
	commentRegex    = regexp.MustCompile(`^//.*`)
)

// Token precedence order for matching
var tokenPrecedenceOrder = []TokenType{
	COMMA, COLON, LBRACE, RBRACE, NUM, STRING, WORD,
}

// Get the regex pattern for a token type
func (t TokenType) Regex() *regexp.Regexp {
	return tokenRegexes[t]
}

// Match the token at the start of the string. Whitespace and comments are
// reported as EOF with a non-empty match so callers can skip them.
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	} else if match := whitespaceRegex.FindString(s); match != "" {
		return EOF, match, true
	} else if match := commentRegex.FindString(s); match != "" {
		return EOF, match, true
	}

	for _, tokenType := range tokenPrecedenceOrder {
		if regex := tokenType.Regex(); regex != nil {
			if match := regex.FindString(s); match != "" {
				if tokenType == WORD {
					if kw, ok := IsKeyword(match); ok {
						return kw, match, true
					}
				}
				return tokenType, match, true
			}
		}
	}

	return ILLEGAL, string(s[0]), false
}
