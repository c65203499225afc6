// Package scanner tokenizes IDL source for the dialect front-ends and
// attaches comment trivia to declarations.
package scanner

import (
	"fmt"
	"strings"
)

// TokenType represents the kind of token
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL

	IDENT  // foo, base.Response, api.uri
	INT    // 1, -2, 0x1F
	FLOAT  // 1.5, 1e3
	STRING // "x" or 'x'

	LINE_COMMENT  // // c, # c
	BLOCK_COMMENT // /* c */

	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	LANGLE    // <
	RANGLE    // >
	COMMA     // ,
	SEMICOLON // ;
	COLON     // :
	ASSIGN    // =
	DOT       // .
	STAR      // *
	SLASH     // /
	PLUS      // +
	MINUS     // -
)

var tokenNames = map[TokenType]string{
	EOF:           "EOF",
	ILLEGAL:       "ILLEGAL",
	IDENT:         "identifier",
	INT:           "integer",
	FLOAT:         "float",
	STRING:        "string",
	LINE_COMMENT:  "comment",
	BLOCK_COMMENT: "comment",
	LPAREN:        "'('",
	RPAREN:        "')'",
	LBRACE:        "'{'",
	RBRACE:        "'}'",
	LBRACKET:      "'['",
	RBRACKET:      "']'",
	LANGLE:        "'<'",
	RANGLE:        "'>'",
	COMMA:         "','",
	SEMICOLON:     "';'",
	COLON:         "':'",
	ASSIGN:        "'='",
	DOT:           "'.'",
	STAR:          "'*'",
	SLASH:         "'/'",
	PLUS:          "'+'",
	MINUS:         "'-'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a lexical token. Value holds the unquoted content of strings
// and the delimiter-stripped text of comments, Text the raw lexeme.
type Token struct {
	Type    TokenType
	Text    string
	Value   string
	Line    int
	Col     int
	EndLine int
}

// IsComment reports whether the token is comment trivia
func (t Token) IsComment() bool {
	return t.Type == LINE_COMMENT || t.Type == BLOCK_COMMENT
}

// Config selects the lexical quirks of a dialect
type Config struct {
	HashComments bool // `#` starts a line comment (Thrift)
	DottedIdents bool // identifiers may contain interior dots
}

// Error is a tokenization failure
type Error struct {
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Msg, e.Line, e.Col)
}

// Lexer scans IDL source into tokens
type Lexer struct {
	cfg  Config
	src  string
	cur  int
	line int // 1-based
	col  int // 1-based

	startLine int
	startCol  int
	start     int
}

// NewLexer returns a lexer over src
func NewLexer(src string, cfg Config) *Lexer {
	return &Lexer{cfg: cfg, src: strings.ReplaceAll(src, "\r\n", "\n"), line: 1, col: 1}
}

// Tokenize scans the whole source, comments included
func Tokenize(src string, cfg Config) ([]Token, error) {
	return NewLexer(src, cfg).Scan()
}

// Scan returns every token including comment trivia, terminated by EOF
func (l *Lexer) Scan() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) atEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peekAt(n int) byte {
	if l.cur+n >= len(l.src) {
		return 0
	}
	return l.src[l.cur+n]
}

func (l *Lexer) advance() byte {
	b := l.src[l.cur]
	l.cur++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *Lexer) mark() {
	l.start = l.cur
	l.startLine = l.line
	l.startCol = l.col
}

func (l *Lexer) emit(tt TokenType, value string) Token {
	return Token{
		Type:    tt,
		Text:    l.src[l.start:l.cur],
		Value:   value,
		Line:    l.startLine,
		Col:     l.startCol,
		EndLine: l.line,
	}
}

func (l *Lexer) errorf(format string, args ...any) error {
	return &Error{Line: l.startLine, Col: l.startCol, Msg: fmt.Sprintf(format, args...)}
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() {
		switch l.src[l.cur] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			l.advance()
		default:
			return
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

var punct = map[byte]TokenType{
	'(': LPAREN,
	')': RPAREN,
	'{': LBRACE,
	'}': RBRACE,
	'[': LBRACKET,
	']': RBRACKET,
	'<': LANGLE,
	'>': RANGLE,
	',': COMMA,
	';': SEMICOLON,
	':': COLON,
	'=': ASSIGN,
	'.': DOT,
	'*': STAR,
	'/': SLASH,
	'+': PLUS,
	'-': MINUS,
}

func (l *Lexer) next() (Token, error) {
	l.skipWhitespace()
	l.mark()
	if l.atEnd() {
		return l.emit(EOF, ""), nil
	}

	b := l.src[l.cur]
	switch {
	case b == '/' && l.peekAt(1) == '/':
		return l.scanLineComment(2), nil
	case b == '#' && l.cfg.HashComments:
		return l.scanLineComment(1), nil
	case b == '/' && l.peekAt(1) == '*':
		return l.scanBlockComment()
	case b == '"' || b == '\'':
		return l.scanString(b)
	case isDigit(b), (b == '-' || b == '+') && isDigit(l.peekAt(1)), b == '.' && isDigit(l.peekAt(1)):
		return l.scanNumber()
	case isAlpha(b):
		return l.scanIdent(), nil
	}

	if tt, ok := punct[b]; ok {
		l.advance()
		return l.emit(tt, ""), nil
	}
	l.advance()
	return Token{}, l.errorf("illegal character %q", b)
}

func (l *Lexer) scanLineComment(markerLen int) Token {
	for i := 0; i < markerLen; i++ {
		l.advance()
	}
	for !l.atEnd() && l.src[l.cur] != '\n' {
		l.advance()
	}
	tok := l.emit(LINE_COMMENT, "")
	tok.Value = lineCommentValue(tok.Text)
	return tok
}

func (l *Lexer) scanBlockComment() (Token, error) {
	l.advance()
	l.advance()
	for {
		if l.atEnd() {
			return Token{}, l.errorf("unterminated block comment")
		}
		if l.src[l.cur] == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			break
		}
		l.advance()
	}
	tok := l.emit(BLOCK_COMMENT, "")
	tok.Value = tok.Text
	return tok, nil
}

func (l *Lexer) scanString(quote byte) (Token, error) {
	l.advance()
	var sb strings.Builder
	for {
		if l.atEnd() {
			return Token{}, l.errorf("unterminated string")
		}
		c := l.advance()
		if c == quote {
			break
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if l.atEnd() {
			return Token{}, l.errorf("unterminated string")
		}
		esc := l.advance()
		switch esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\', '"', '\'':
			sb.WriteByte(esc)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(esc)
		}
	}
	return l.emit(STRING, sb.String()), nil
}

func (l *Lexer) scanNumber() (Token, error) {
	if c := l.src[l.cur]; c == '-' || c == '+' {
		l.advance()
	}
	if l.src[l.cur] == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		for !l.atEnd() && isHexDigit(l.src[l.cur]) {
			l.advance()
		}
		return l.emit(INT, ""), nil
	}

	tt := INT
	for !l.atEnd() && isDigit(l.src[l.cur]) {
		l.advance()
	}
	if !l.atEnd() && l.src[l.cur] == '.' && isDigit(l.peekAt(1)) {
		tt = FLOAT
		l.advance()
		for !l.atEnd() && isDigit(l.src[l.cur]) {
			l.advance()
		}
	}
	if !l.atEnd() && (l.src[l.cur] == 'e' || l.src[l.cur] == 'E') {
		next := l.peekAt(1)
		if isDigit(next) || ((next == '-' || next == '+') && isDigit(l.peekAt(2))) {
			tt = FLOAT
			l.advance()
			if c := l.src[l.cur]; c == '-' || c == '+' {
				l.advance()
			}
			for !l.atEnd() && isDigit(l.src[l.cur]) {
				l.advance()
			}
		}
	}
	if !l.atEnd() && isAlpha(l.src[l.cur]) {
		return Token{}, l.errorf("malformed number %q", l.src[l.start:l.cur+1])
	}
	return l.emit(tt, ""), nil
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func (l *Lexer) scanIdent() Token {
	for !l.atEnd() {
		c := l.src[l.cur]
		if isAlphaNum(c) {
			l.advance()
			continue
		}
		if c == '.' && l.cfg.DottedIdents && isAlpha(l.peekAt(1)) {
			l.advance()
			continue
		}
		break
	}
	tok := l.emit(IDENT, "")
	tok.Value = tok.Text
	return tok
}
