// lexer.go — scanner for the textual IR
//
// Tokenizes IR source into the token stream consumed by parser.go. Line
// comments start with "--"; whitespace and comments are skipped uniformly
// between tokens. Identifiers are alphabetic-start with alphanumeric, '_'
// or '\'' continuation; keyword recognition happens after the full
// identifier is scanned, so "iffy" can never match the keyword "if".
// Numeric literals carry an optional width suffix (5i32, 2.0f64); an
// unsuffixed integer is i64 and an unsuffixed float is f64. String
// literals use escaped double quotes.
package loom

import (
	"fmt"
	"strconv"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"
	COMMA    // ","
	SEMI     // ";"
	COLON    // ":"
	EQUALS   // "="
	LT       // "<"
	GT       // ">"
	STAR     // "*" (unique type / consumed argument)
	TILDE    // "~" (reshape coercion)
	QUESTION // "?" (existential size)
	AT       // "@" (concat axis)
	LARROW   // "<-" (in-place update)
	SPLICE   // ":+" (slice)
	ARROW    // "->"
	LAMBDA   // "\"
	ATTRID   // "#[" (attribute list opener)
	CERTID   // "#{" (certificate list opener)

	// Literals & identifiers
	ID
	STRING
	CONSTANT // Literal holds a PrimValue

	// Keywords
	LET
	IN
	IF
	THEN
	ELSE
	APPLY
	LOOP
	FOR
	WHILE
	DO
	FUN
	ENTRY
	WITH
	RETURN
)

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{} // PrimValue for CONSTANT, decoded string for STRING
	Line    int         // 1-based
	Col     int         // 0-based
}

var irKeywords = map[string]TokenType{
	"let":    LET,
	"in":     IN,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"apply":  APPLY,
	"loop":   LOOP,
	"for":    FOR,
	"while":  WHILE,
	"do":     DO,
	"fun":    FUN,
	"entry":  ENTRY,
	"with":   WITH,
	"return": RETURN,
}

// Lexer scans an IR source string into tokens.
type Lexer struct {
	src    string
	start  int
	cur    int
	line   int // 1-based
	col    int // 0-based column within line
	tokens []Token

	tokStartLine int
	tokStartCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

// Scan tokenizes the entire source and returns tokens (EOF included).
func (l *Lexer) Scan() ([]Token, error) {
	for {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			return l.tokens, nil
		}
	}
}

// ----- errors -----

type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEXICAL ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (l *Lexer) err(msg string) error {
	return &LexError{Line: l.line, Col: l.col, Msg: msg}
}

// ----- low-level cursor -----

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) addToken(tt TokenType, lit interface{}) Token {
	tok := Token{
		Type:    tt,
		Lexeme:  l.src[l.start:l.cur],
		Literal: lit,
		Line:    l.tokStartLine,
		Col:     l.tokStartCol,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	return tok
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch {
		case ch == ' ' || ch == '\r' || ch == '\n' || ch == '\t':
			l.advance()
		case ch == '-':
			// "--" line comment; a lone '-' starts a negative literal.
			if b, ok := l.peekN(1); ok && b == '-' {
				for {
					b, ok := l.peek()
					if !ok || b == '\n' {
						break
					}
					l.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isNameCont(b byte) bool {
	return isAlpha(b) || isDigit(b) || b == '_' || b == '\''
}

// ----- scanners -----

// scanString parses an escaped double-quote string literal. The opening
// quote has been consumed.
func (l *Lexer) scanString() (string, error) {
	var out []byte
	for !l.isAtEnd() {
		ch, _ := l.advance()
		if ch == '"' {
			return string(out), nil
		}
		if ch == '\\' {
			esc, ok := l.advance()
			if !ok {
				return "", l.err("unfinished escape sequence")
			}
			switch esc {
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			default:
				return "", l.err(fmt.Sprintf("invalid escape sequence: \\%c", esc))
			}
			continue
		}
		out = append(out, ch)
	}
	return "", l.err("string was not terminated")
}

// scanIdentifier consumes the remainder of an identifier.
func (l *Lexer) scanIdentifier() string {
	for {
		b, ok := l.peek()
		if !ok || !isNameCont(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// scanNumber parses a numeric literal (the sign, if any, was consumed).
// Width suffixes i8/i16/i32/i64/f16/f32/f64 attach directly to the digits.
func (l *Lexer) scanNumber(neg bool) (PrimValue, error) {
	digStart := l.cur
	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}
	if l.cur == digStart {
		return PrimValue{}, l.err("malformed number")
	}

	isFloat := false
	if b, ok := l.peek(); ok && b == '.' {
		if b2, ok2 := l.peekN(1); ok2 && isDigit(b2) {
			isFloat = true
			l.advance() // '.'
			for {
				b, ok := l.peek()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
		}
	}
	if b, ok := l.peek(); ok && (b == 'e' || b == 'E') {
		if b2, ok2 := l.peekN(1); ok2 && (isDigit(b2) || b2 == '+' || b2 == '-') {
			isFloat = true
			l.advance() // 'e'
			if b2 == '+' || b2 == '-' {
				l.advance()
			}
			sawDigit := false
			for {
				b, ok := l.peek()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
				sawDigit = true
			}
			if !sawDigit {
				return PrimValue{}, l.err("malformed exponent")
			}
		}
	}
	numEnd := l.cur

	// Optional width suffix.
	suffix := ""
	if b, ok := l.peek(); ok && (b == 'i' || b == 'f') {
		save := l.cur
		l.advance()
		for {
			b, ok := l.peek()
			if !ok || !isDigit(b) {
				break
			}
			l.advance()
		}
		suffix = l.src[save:l.cur]
		if _, ok := primTypeNames[suffix]; !ok {
			return PrimValue{}, l.err(fmt.Sprintf("invalid numeric suffix %q", suffix))
		}
		if b, ok := l.peek(); ok && isNameCont(b) {
			return PrimValue{}, l.err("malformed numeric literal")
		}
	}

	text := l.src[digStart:numEnd]
	if neg {
		text = "-" + text
	}

	t := Int64
	if suffix != "" {
		t = primTypeNames[suffix]
	} else if isFloat {
		t = Float64
	}
	if t.IsFloat() {
		v, convErr := strconv.ParseFloat(text, 64)
		if convErr != nil {
			return PrimValue{}, l.err("invalid float literal")
		}
		return FloatValue(t, v), nil
	}
	if isFloat {
		return PrimValue{}, l.err("integer suffix on float literal")
	}
	v, convErr := strconv.ParseInt(text, 10, 64)
	if convErr != nil {
		return PrimValue{}, l.err("invalid integer literal")
	}
	return IntValue(t, v), nil
}

// ----- main scanner -----

func (l *Lexer) scanToken() (Token, error) {
	l.skipWhitespaceAndComments()
	l.tokStartLine = l.line
	l.tokStartCol = l.col
	l.start = l.cur

	if l.isAtEnd() {
		return l.addToken(EOF, nil), nil
	}

	ch, _ := l.advance()

	switch ch {
	case '(':
		return l.addToken(LPAREN, nil), nil
	case ')':
		return l.addToken(RPAREN, nil), nil
	case '[':
		return l.addToken(LBRACKET, nil), nil
	case ']':
		return l.addToken(RBRACKET, nil), nil
	case '{':
		return l.addToken(LBRACE, nil), nil
	case '}':
		return l.addToken(RBRACE, nil), nil
	case ',':
		return l.addToken(COMMA, nil), nil
	case ';':
		return l.addToken(SEMI, nil), nil
	case '=':
		return l.addToken(EQUALS, nil), nil
	case '>':
		return l.addToken(GT, nil), nil
	case '*':
		return l.addToken(STAR, nil), nil
	case '~':
		return l.addToken(TILDE, nil), nil
	case '?':
		return l.addToken(QUESTION, nil), nil
	case '@':
		return l.addToken(AT, nil), nil
	case '\\':
		return l.addToken(LAMBDA, nil), nil
	case '<':
		if b, ok := l.peek(); ok && b == '-' {
			l.advance()
			return l.addToken(LARROW, nil), nil
		}
		return l.addToken(LT, nil), nil
	case ':':
		if b, ok := l.peek(); ok && b == '+' {
			l.advance()
			return l.addToken(SPLICE, nil), nil
		}
		return l.addToken(COLON, nil), nil
	case '#':
		if b, ok := l.peek(); ok && b == '[' {
			l.advance()
			return l.addToken(ATTRID, nil), nil
		}
		if b, ok := l.peek(); ok && b == '{' {
			l.advance()
			return l.addToken(CERTID, nil), nil
		}
		return Token{}, l.err("expected '[' or '{' after '#'")
	case '"':
		text, err := l.scanString()
		if err != nil {
			return Token{}, err
		}
		return l.addToken(STRING, text), nil
	case '-':
		if b, ok := l.peek(); ok && b == '>' {
			l.advance()
			return l.addToken(ARROW, nil), nil
		}
		v, err := l.scanNumber(true)
		if err != nil {
			return Token{}, err
		}
		return l.addToken(CONSTANT, v), nil
	}

	if isDigit(ch) {
		l.cur-- // let scanNumber see the first digit
		l.col--
		v, err := l.scanNumber(false)
		if err != nil {
			return Token{}, err
		}
		return l.addToken(CONSTANT, v), nil
	}

	if isAlpha(ch) {
		lex := l.scanIdentifier()
		switch lex {
		case "true":
			return l.addToken(CONSTANT, BoolValue(true)), nil
		case "false":
			return l.addToken(CONSTANT, BoolValue(false)), nil
		case "checked":
			return l.addToken(CONSTANT, Checked), nil
		}
		if tt, ok := irKeywords[lex]; ok {
			return l.addToken(tt, lex), nil
		}
		return l.addToken(ID, lex), nil
	}

	return Token{}, l.err(fmt.Sprintf("unexpected character: %q", ch))
}
