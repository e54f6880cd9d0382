package sexy

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrIncomplete marks input that ends inside a list or string, so more
// text could still make it valid.
var ErrIncomplete = errors.New("incomplete input")

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeFloat
	NodeList
	NodeArray
)

// Node represents any Sexy datum
type Node struct {
	Type NodeType

	// Atoms
	Text string // NodeSymbol, NodeString, NodeInteger, NodeFloat

	// Collections
	Items []*Node // NodeList, NodeArray

	// Where the datum starts in the source, 1-based.
	Line   int
	Column int
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger, NodeFloat:
		return n.Text
	case NodeString:
		return Quote(n.Text)
	case NodeList:
		return "(" + joinItems(n.Items) + ")"
	case NodeArray:
		return "[" + joinItems(n.Items) + "]"
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

func joinItems(items []*Node) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return strings.Join(parts, " ")
}

// Quote renders text as a Sexy string literal.
func Quote(text string) string {
	escaped := strings.ReplaceAll(text, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	escaped = strings.ReplaceAll(escaped, "\n", "\\n")
	escaped = strings.ReplaceAll(escaped, "\t", "\\t")
	return "\"" + escaped + "\""
}

// Helper constructors for common node types
func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewFloat(text string) *Node {
	return &Node{Type: NodeFloat, Text: text}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

func NewArray(items ...*Node) *Node {
	return &Node{Type: NodeArray, Items: items}
}

// IsAtom checks if the node is an atom (not a collection)
func (n *Node) IsAtom() bool {
	return n.Type != NodeList && n.Type != NodeArray
}

// Head returns the symbol naming a list form, or "" if n is not such a list.
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Pos formats the datum's position as line:column.
func (n *Node) Pos() string {
	return fmt.Sprintf("%d:%d", n.Line, n.Column)
}

type parser struct {
	lexer        *lexer
	currentToken token
}

// Parse parses the entire input and returns the single top-level datum
func Parse(input string) (*Node, error) {
	nodes, err := ParseAll(input)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("expected exactly one datum but got %d", len(nodes))
	}
	return nodes[0], nil
}

// ParseAll parses every top-level datum in input.
func ParseAll(input string) ([]*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()

	var nodes []*Node
	for p.currentToken.Type != tokenEOF {
		node, err := p.ParseDatum()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	// Lexer errors take priority because they might cause confusing parser errors.
	if p.lexer.err != nil {
		return nil, p.lexer.err
	}
	return nodes, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.lexer.nextToken()
}

func (p *parser) ParseDatum() (*Node, error) {
	if p.lexer.err != nil {
		return nil, p.lexer.err
	}

	tok := p.currentToken
	var node *Node
	switch tok.Type {
	case tokenSymbol:
		node = NewSymbol(tok.Value)
		p.nextToken()
	case tokenString:
		node = NewString(tok.Value)
		p.nextToken()
	case tokenInteger:
		node = NewInteger(tok.Value)
		p.nextToken()
	case tokenFloat:
		node = NewFloat(tok.Value)
		p.nextToken()
	case tokenLParen:
		items, err := p.parseItems(tokenRParen)
		if err != nil {
			return nil, err
		}
		node = NewList(items...)
	case tokenLBracket:
		items, err := p.parseItems(tokenRBracket)
		if err != nil {
			return nil, err
		}
		node = NewArray(items...)
	default:
		return nil, fmt.Errorf("%d:%d: unexpected token: %s", tok.Line, tok.Column, tok.Type)
	}

	node.Line = tok.Line
	node.Column = tok.Column
	return node, nil
}

func (p *parser) parseItems(closing tokenType) ([]*Node, error) {
	var items []*Node
	p.nextToken() // consume opener

	for p.currentToken.Type != closing && p.currentToken.Type != tokenEOF {
		item, err := p.ParseDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if p.currentToken.Type != closing {
		if p.lexer.err != nil {
			return nil, p.lexer.err
		}
		if p.currentToken.Type == tokenEOF {
			return nil, fmt.Errorf("%d:%d: expected %s but got EOF: %w",
				p.currentToken.Line, p.currentToken.Column, closing, ErrIncomplete)
		}
		return nil, fmt.Errorf("%d:%d: expected %s but got %s",
			p.currentToken.Line, p.currentToken.Column, closing, p.currentToken.Type)
	}
	p.nextToken() // consume closer

	return items, nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenFloat
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenInteger:
		return "integer"
	case tokenFloat:
		return "float"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenLBracket:
		return "'['"
	case tokenRBracket:
		return "']'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type   tokenType
	Value  string
	Line   int
	Column int
}

type lexer struct {
	input  []rune
	pos    int
	line   int
	column int
	err    error
}

func newLexer(input string) *lexer {
	return &lexer{input: []rune(input), line: 1, column: 1}
}

func (l *lexer) current() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) peekChar() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *lexer) readChar() {
	if l.pos >= len(l.input) {
		return
	}
	if l.input[l.pos] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.current()) {
		l.readChar()
	}
}

func (l *lexer) skipComment() {
	for l.current() != '\n' && l.current() != 0 {
		l.readChar()
	}
}

func (l *lexer) readSymbol() string {
	start := l.pos
	for isSymbolChar(l.current()) {
		l.readChar()
	}
	return string(l.input[start:l.pos])
}

func (l *lexer) readString() (string, error) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for l.current() != '"' && l.pos < len(l.input) {
		if l.current() == '\\' {
			l.readChar()
			switch l.current() {
			case '"':
				result.WriteRune('"')
			case '\\':
				result.WriteRune('\\')
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			default:
				return "", fmt.Errorf("invalid escape sequence: \\%c", l.current())
			}
		} else {
			result.WriteRune(l.current())
		}
		l.readChar()
	}

	if l.current() != '"' {
		return "", fmt.Errorf("unterminated string: %w", ErrIncomplete)
	}
	l.readChar() // skip closing quote

	return result.String(), nil
}

// readNumber reads an optionally signed integer or decimal literal.
func (l *lexer) readNumber() (string, bool) {
	start := l.pos
	isFloat := false
	if l.current() == '+' || l.current() == '-' {
		l.readChar()
	}
	for unicode.IsDigit(l.current()) {
		l.readChar()
	}
	if l.current() == '.' && unicode.IsDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for unicode.IsDigit(l.current()) {
			l.readChar()
		}
	}
	if l.current() == 'e' || l.current() == 'E' {
		isFloat = true
		l.readChar()
		if l.current() == '+' || l.current() == '-' {
			l.readChar()
		}
		for unicode.IsDigit(l.current()) {
			l.readChar()
		}
	}
	return string(l.input[start:l.pos]), isFloat
}

func (l *lexer) nextToken() token {
	for {
		l.skipWhitespace()

		tok := token{Line: l.line, Column: l.column}
		c := l.current()

		switch {
		case l.pos >= len(l.input):
			tok.Type = tokenEOF
			return tok
		case c == ';':
			l.skipComment()
			continue
		case c == '(':
			l.readChar()
			tok.Type, tok.Value = tokenLParen, "("
			return tok
		case c == ')':
			l.readChar()
			tok.Type, tok.Value = tokenRParen, ")"
			return tok
		case c == '[':
			l.readChar()
			tok.Type, tok.Value = tokenLBracket, "["
			return tok
		case c == ']':
			l.readChar()
			tok.Type, tok.Value = tokenRBracket, "]"
			return tok
		case c == '"':
			str, err := l.readString()
			if err != nil {
				l.err = fmt.Errorf("%d:%d: %w", tok.Line, tok.Column, err)
				tok.Type = tokenEOF
				return tok
			}
			tok.Type, tok.Value = tokenString, str
			return tok
		case unicode.IsDigit(c) || ((c == '+' || c == '-') && unicode.IsDigit(l.peekChar())):
			text, isFloat := l.readNumber()
			tok.Type, tok.Value = tokenInteger, text
			if isFloat {
				tok.Type = tokenFloat
			}
			return tok
		case isSymbolChar(c):
			tok.Type, tok.Value = tokenSymbol, l.readSymbol()
			return tok
		default:
			// Unknown character is a syntax error
			l.err = fmt.Errorf("%d:%d: unexpected character '%c'", tok.Line, tok.Column, c)
			tok.Type = tokenEOF
			return tok
		}
	}
}

func isSymbolChar(r rune) bool {
	if r == 0 || unicode.IsSpace(r) {
		return false
	}
	switch r {
	case '(', ')', '[', ']', '"', ';':
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// IsSymbol reports whether s reads back as a single symbol.
func IsSymbol(s string) bool {
	r := []rune(s)
	if len(r) == 0 || unicode.IsDigit(r[0]) {
		return false
	}
	if (r[0] == '+' || r[0] == '-') && len(r) > 1 && unicode.IsDigit(r[1]) {
		return false
	}
	for _, c := range r {
		if !isSymbolChar(c) {
			return false
		}
	}
	return true
}
