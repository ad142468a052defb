package parser

import (
	"fmt"
	"strconv"
	"strings"

	"framecheck/pkg/jvm"
	"framecheck/pkg/lexer"

	mapset "github.com/deckarep/golang-set/v2"
)

type Parser struct {
	lexer        *lexer.Lexer // lexer instance
	currentToken lexer.Token  // current token
	classes      []*jvm.Class // parsed classes
	errors       []string     // list of errors
}

// NewParser creates a new parser instance
func NewParser(l *lexer.Lexer) *Parser {
	p := &Parser{
		lexer:  l,
		errors: []string{},
	}

	// Initialize current token
	p.nextToken()

	return p
}

// Parse reads every class of the input. Errors are collected and parsing
// resumes on the next line, so one call reports as many as possible.
func (p *Parser) Parse() []*jvm.Class {
	for p.currentToken.Type != lexer.EOF {
		if p.currentToken.Type != lexer.CLASS {
			p.addError("Expected class declaration")
			p.skipLine()
			continue
		}
		p.classes = append(p.classes, p.parseClass())
	}

	return p.classes
}

// Classes returns the classes parsed so far
func (p *Parser) Classes() []*jvm.Class {
	return p.classes
}

// nextToken advances to the next token from the lexer
func (p *Parser) nextToken() {
	p.currentToken = p.lexer.NextToken()
}

// skipLine discards tokens up to the end of the current line
func (p *Parser) skipLine() {
	line := p.currentToken.Pos.Line
	for p.currentToken.Type != lexer.EOF && p.currentToken.Pos.Line == line {
		p.nextToken()
	}
}

// sameLine reports whether the current token continues the line of tok
func (p *Parser) sameLine(tok lexer.Token) bool {
	return p.currentToken.Type != lexer.EOF && p.currentToken.Pos.Line == tok.Pos.Line
}

// expect consumes a token of type t, recording an error otherwise
func (p *Parser) expect(t lexer.TokenType) (lexer.Token, bool) {
	tok := p.currentToken
	if tok.Type != t {
		p.addExpectedError(t)
		return tok, false
	}

	p.nextToken()
	return tok, true
}

// word consumes a WORD token
func (p *Parser) word() (string, bool) {
	tok, ok := p.expect(lexer.WORD)
	return tok.Lexeme, ok
}

// integer consumes an integer NUM token
func (p *Parser) integer() (int, bool) {
	tok, ok := p.expect(lexer.NUM)
	if !ok {
		return 0, false
	}

	n, err := strconv.Atoi(tok.Lexeme)
	if err != nil {
		p.addErrorAt(tok, "Expected integer")
		return 0, false
	}

	return n, true
}

// parseClass parses a class header and its methods
func (p *Parser) parseClass() *jvm.Class {
	header := p.currentToken
	p.nextToken()

	class := &jvm.Class{}
	class.Access, class.Name = p.parseModifiers()
	if class.Name == "" {
		p.addErrorAt(header, "Missing class name")
	}

	if p.currentToken.Type == lexer.EXTENDS {
		p.nextToken()
		class.Super, _ = p.word()
	}

	if p.currentToken.Type == lexer.IMPLEMENTS {
		p.nextToken()
		for p.currentToken.Type == lexer.WORD {
			class.Interfaces = append(class.Interfaces, p.currentToken.Lexeme)
			p.nextToken()
		}
		if len(class.Interfaces) == 0 {
			p.addError("Expected interface name")
		}
	}

	for p.currentToken.Type != lexer.EOF && p.currentToken.Type != lexer.CLASS {
		if p.currentToken.Type != lexer.METHOD {
			p.addError("Expected method declaration")
			p.skipLine()
			continue
		}
		if m := p.parseMethod(); m != nil {
			class.Methods = append(class.Methods, m)
		}
	}

	return class
}

// parseModifiers reads access flags followed by a name. A flag keyword in
// last position is taken as the name.
func (p *Parser) parseModifiers() (jvm.Access, string) {
	var access jvm.Access
	var words []string
	for p.currentToken.Type == lexer.WORD {
		words = append(words, p.currentToken.Lexeme)
		p.nextToken()
		if _, ok := jvm.ParseAccess(words[len(words)-1]); !ok {
			break
		}
	}

	if len(words) == 0 {
		return 0, ""
	}

	for _, w := range words[:len(words)-1] {
		flag, _ := jvm.ParseAccess(w)
		access |= flag
	}

	return access, words[len(words)-1]
}

// parseMethod parses `method [flags] name desc` up to the matching end
func (p *Parser) parseMethod() *jvm.Method {
	header := p.currentToken
	p.nextToken()

	m := &jvm.Method{MaxStack: -1, MaxLocals: -1}
	m.Access, m.Name = p.parseModifiers()
	if m.Name == "" {
		p.addErrorAt(header, "Missing method name")
		p.skipLine()
	} else if desc, ok := p.word(); ok {
		if _, _, err := jvm.ParseMethodType(desc); err != nil {
			p.addErrorAt(header, "Invalid method descriptor "+desc)
		}
		m.Desc = desc
	}

	labels := mapset.NewThreadUnsafeSet[string]()
	for {
		switch p.currentToken.Type {
		case lexer.END:
			p.nextToken()
			p.finishMethod(header, m)
			return m

		case lexer.EOF, lexer.CLASS, lexer.METHOD:
			p.addError("Missing end of method " + m.Name)
			p.finishMethod(header, m)
			return m
		}

		line := p.currentToken
		errs := len(p.errors)
		p.parseBodyLine(m, labels)
		if len(p.errors) > errs && p.currentToken.Pos.Line == line.Pos.Line {
			p.skipLine()
		}
	}
}

// finishMethod checks the limits of a method with code
func (p *Parser) finishMethod(header lexer.Token, m *jvm.Method) {
	if len(m.Insns) == 0 {
		m.MaxStack, m.MaxLocals = max(m.MaxStack, 0), max(m.MaxLocals, 0)
		return
	}

	if m.MaxStack < 0 {
		p.addErrorAt(header, "Missing maxstack in method "+m.Name)
		m.MaxStack = 0
	}
	if m.MaxLocals < 0 {
		p.addErrorAt(header, "Missing maxlocals in method "+m.Name)
		m.MaxLocals = 0
	}
}

// parseBodyLine parses one directive, label or instruction
func (p *Parser) parseBodyLine(m *jvm.Method, labels mapset.Set[string]) {
	tok := p.currentToken
	switch tok.Type {
	case lexer.MAXSTACK:
		p.nextToken()
		if n, ok := p.integer(); ok {
			m.MaxStack = n
		}

	case lexer.MAXLOCALS:
		p.nextToken()
		if n, ok := p.integer(); ok {
			m.MaxLocals = n
		}

	case lexer.TRY:
		p.nextToken()
		p.parseTry(tok, m)

	case lexer.LINE:
		p.nextToken()
		if n, ok := p.integer(); ok {
			m.Insns = append(m.Insns, jvm.NewLine(n))
		}

	case lexer.FRAME:
		p.nextToken()
		if f, ok := p.parseFrame(); ok {
			m.Insns = append(m.Insns, jvm.NewFrameInsn(f))
		}

	case lexer.WORD:
		if p.lexer.Peek().Type == lexer.COLON {
			p.nextToken()
			p.nextToken()
			if !labels.Add(tok.Lexeme) {
				p.addErrorAt(tok, "Duplicate label "+tok.Lexeme)
				return
			}
			m.Insns = append(m.Insns, jvm.NewLabel(tok.Lexeme))
			return
		}
		if insn, ok := p.parseInsn(); ok {
			m.Insns = append(m.Insns, insn)
		}

	default:
		p.addError("Expected instruction")
	}
}

// parseTry parses `try start end handler [type]`; the catch type must be on
// the same line
func (p *Parser) parseTry(tok lexer.Token, m *jvm.Method) {
	var h jvm.Handler
	var ok bool
	if h.Start, ok = p.word(); !ok {
		return
	}
	if h.End, ok = p.word(); !ok {
		return
	}
	if h.Handler, ok = p.word(); !ok {
		return
	}

	if p.currentToken.Type == lexer.WORD && p.sameLine(tok) {
		h.Type = p.currentToken.Lexeme
		p.nextToken()
	}

	m.Handlers = append(m.Handlers, h)
}

// parseFrame parses the frame kind and its item lists
func (p *Parser) parseFrame() (*jvm.FrameNode, bool) {
	kindTok := p.currentToken
	name, ok := p.word()
	if !ok {
		return nil, false
	}

	kind, ok := jvm.ParseFrameKind(name)
	if !ok {
		p.addErrorAt(kindTok, "Unknown frame type "+name)
		return nil, false
	}

	f := &jvm.FrameNode{Kind: kind}
	switch kind {
	case jvm.FrameSame:
	case jvm.FrameSame1:
		f.Stack, ok = p.parseItems()
	case jvm.FrameAppend:
		f.Locals, ok = p.parseItems()
	case jvm.FrameChop:
		f.Chop, ok = p.integer()
		if ok && f.Chop <= 0 {
			p.addErrorAt(kindTok, "Chop count must be positive")
			ok = false
		}
	case jvm.FrameFull, jvm.FrameNew:
		if f.Locals, ok = p.parseItems(); ok {
			f.Stack, ok = p.parseItems()
		}
	}

	return f, ok
}

// parseItems parses `{item, item, ...}`
func (p *Parser) parseItems() ([]jvm.FrameItem, bool) {
	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil, false
	}

	items := []jvm.FrameItem{}
	for p.currentToken.Type != lexer.RBRACE {
		tok := p.currentToken
		name, ok := p.word()
		if !ok {
			return nil, false
		}
		item, err := jvm.ParseFrameItem(name)
		if err != nil {
			p.addErrorAt(tok, "Invalid frame item: "+err.Error())
			return nil, false
		}
		items = append(items, item)

		if p.currentToken.Type == lexer.COMMA {
			p.nextToken()
		} else if p.currentToken.Type != lexer.RBRACE {
			p.addExpectedError(lexer.RBRACE)
			return nil, false
		}
	}
	p.nextToken()

	return items, true
}

// parseInsn parses a mnemonic and the operands its kind requires
func (p *Parser) parseInsn() (*jvm.Insn, bool) {
	tok := p.currentToken
	op, ok := jvm.Lookup(tok.Lexeme)
	if !ok {
		p.addErrorAt(tok, "Unknown instruction "+tok.Lexeme)
		return nil, false
	}
	p.nextToken()

	switch op.Kind() {
	case jvm.KindInsn:
		return jvm.NewInsn(op), true

	case jvm.KindInt:
		if op == jvm.NEWARRAY && p.currentToken.Type == lexer.WORD {
			code, ok := arrayTypes[p.currentToken.Lexeme]
			if !ok {
				p.addError("Unknown array type " + p.currentToken.Lexeme)
				return nil, false
			}
			p.nextToken()
			return jvm.NewIntInsn(op, code), true
		}
		n, ok := p.integer()
		return jvm.NewIntInsn(op, n), ok

	case jvm.KindVar:
		n, ok := p.integer()
		return jvm.NewVarInsn(op, n), ok

	case jvm.KindIinc:
		v, ok := p.integer()
		if !ok {
			return nil, false
		}
		incr, ok := p.integer()
		return jvm.NewIincInsn(v, incr), ok

	case jvm.KindType:
		name, ok := p.word()
		return jvm.NewTypeInsn(op, name), ok

	case jvm.KindField, jvm.KindMethod:
		var owner, name, desc string
		if owner, ok = p.word(); ok {
			if name, ok = p.word(); ok {
				desc, ok = p.word()
			}
		}
		if op.Kind() == jvm.KindField {
			return jvm.NewFieldInsn(op, owner, name, desc), ok
		}
		return jvm.NewMethodInsn(op, owner, name, desc), ok

	case jvm.KindInvokeDynamic:
		var name, desc string
		if name, ok = p.word(); ok {
			desc, ok = p.word()
		}
		return jvm.NewInvokeDynamicInsn(name, desc), ok

	case jvm.KindJump:
		label, ok := p.word()
		return jvm.NewJumpInsn(op, label), ok

	case jvm.KindLdc:
		c, ok := p.parseConstant()
		return jvm.NewLdcInsn(c), ok

	case jvm.KindTableSwitch:
		return p.parseTableSwitch()

	case jvm.KindLookupSwitch:
		return p.parseLookupSwitch()

	case jvm.KindMultiANewArray:
		desc, ok := p.word()
		if !ok {
			return nil, false
		}
		dims, ok := p.integer()
		return jvm.NewMultiANewArrayInsn(desc, dims), ok
	}

	p.addErrorAt(tok, "Unsupported instruction "+tok.Lexeme)
	return nil, false
}

var arrayTypes = map[string]int{
	"boolean": jvm.T_BOOLEAN,
	"char":    jvm.T_CHAR,
	"float":   jvm.T_FLOAT,
	"double":  jvm.T_DOUBLE,
	"byte":    jvm.T_BYTE,
	"short":   jvm.T_SHORT,
	"int":     jvm.T_INT,
	"long":    jvm.T_LONG,
}

// parseConstant parses an ldc operand: a string, a suffixed number,
// `class Name` or a method descriptor
func (p *Parser) parseConstant() (any, bool) {
	tok := p.currentToken
	switch tok.Type {
	case lexer.STRING:
		p.nextToken()
		return tok.Literal, true

	case lexer.NUM:
		p.nextToken()
		c, err := parseNumber(tok.Lexeme)
		if err != nil {
			p.addErrorAt(tok, "Invalid number "+tok.Lexeme)
			return nil, false
		}
		return c, true

	case lexer.CLASS:
		p.nextToken()
		nameTok := p.currentToken
		name, ok := p.word()
		if !ok || !strings.HasPrefix(name, "[") {
			return jvm.ObjectType(name), ok
		}
		t, err := jvm.ParseType(name)
		if err != nil {
			p.addErrorAt(nameTok, "Invalid array type "+name)
			return nil, false
		}
		return t, true

	case lexer.WORD:
		p.nextToken()
		t, err := jvm.MethodType(tok.Lexeme)
		if err != nil {
			p.addErrorAt(tok, "Invalid constant "+tok.Lexeme)
			return nil, false
		}
		return t, true
	}

	p.addError("Expected constant")
	return nil, false
}

// parseNumber maps a numeric literal to the Go type of its JVM constant:
// int32, int64 (L), float32 (F) or float64 (D or a decimal point)
func parseNumber(s string) (any, error) {
	switch suffix := strings.ToUpper(s[len(s)-1:]); suffix {
	case "L":
		return strconv.ParseInt(s[:len(s)-1], 10, 64)
	case "F":
		f, err := strconv.ParseFloat(s[:len(s)-1], 32)
		return float32(f), err
	case "D":
		return strconv.ParseFloat(s[:len(s)-1], 64)
	}

	if strings.ContainsAny(s, ".eE") {
		return strconv.ParseFloat(s, 64)
	}

	n, err := strconv.ParseInt(s, 10, 32)
	return int32(n), err
}

// parseTableSwitch parses `tableswitch min { L1, L2 } default L`
func (p *Parser) parseTableSwitch() (*jvm.Insn, bool) {
	low, ok := p.integer()
	if !ok {
		return nil, false
	}

	labels, ok := p.parseLabelList()
	if !ok {
		return nil, false
	}
	if len(labels) == 0 {
		p.addError("Empty tableswitch")
		return nil, false
	}

	dflt, ok := p.parseDefault()
	return jvm.NewTableSwitchInsn(low, dflt, labels...), ok
}

// parseLookupSwitch parses `lookupswitch { k: L, ... } default L`
func (p *Parser) parseLookupSwitch() (*jvm.Insn, bool) {
	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil, false
	}

	var keys []int
	var labels []string
	seen := mapset.NewThreadUnsafeSet[int]()
	for p.currentToken.Type != lexer.RBRACE {
		keyTok := p.currentToken
		key, ok := p.integer()
		if !ok {
			return nil, false
		}
		if !seen.Add(key) {
			p.addErrorAt(keyTok, "Duplicate lookupswitch key "+keyTok.Lexeme)
			return nil, false
		}
		if _, ok := p.expect(lexer.COLON); !ok {
			return nil, false
		}
		label, ok := p.word()
		if !ok {
			return nil, false
		}
		keys = append(keys, key)
		labels = append(labels, label)

		if p.currentToken.Type == lexer.COMMA {
			p.nextToken()
		} else if p.currentToken.Type != lexer.RBRACE {
			p.addExpectedError(lexer.RBRACE)
			return nil, false
		}
	}
	p.nextToken()

	dflt, ok := p.parseDefault()
	return jvm.NewLookupSwitchInsn(dflt, keys, labels), ok
}

// parseLabelList parses `{ L1, L2, ... }`
func (p *Parser) parseLabelList() ([]string, bool) {
	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil, false
	}

	var labels []string
	for p.currentToken.Type != lexer.RBRACE {
		label, ok := p.word()
		if !ok {
			return nil, false
		}
		labels = append(labels, label)

		if p.currentToken.Type == lexer.COMMA {
			p.nextToken()
		} else if p.currentToken.Type != lexer.RBRACE {
			p.addExpectedError(lexer.RBRACE)
			return nil, false
		}
	}
	p.nextToken()

	return labels, true
}

func (p *Parser) parseDefault() (string, bool) {
	if _, ok := p.expect(lexer.DEFAULT); !ok {
		return "", false
	}

	return p.word()
}

// ParseSource parses src, failing with every syntax error found
func ParseSource(src string) ([]*jvm.Class, error) {
	p := NewParser(lexer.NewLexer(src))
	classes := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("%d syntax errors:\n%s", len(errs), strings.Join(errs, "\n"))
	}

	return classes, nil
}
