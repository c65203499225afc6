package scanner

import (
	"fmt"

	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

// Cursor walks a token slice for a recursive descent parser. Comment
// tokens are invisible to Peek and Next and are only handed out through
// Leading and Trailing, which implement comment attachment.
type Cursor struct {
	path string
	toks []Token
	pos  int
	prev Token
}

// NewCursor returns a cursor over toks, which must end with EOF
func NewCursor(path string, toks []Token) *Cursor {
	return &Cursor{path: path, toks: toks}
}

// Path is the file the tokens came from
func (c *Cursor) Path() string { return c.path }

func (c *Cursor) significant(from int) int {
	for from < len(c.toks)-1 && c.toks[from].IsComment() {
		from++
	}
	return from
}

// Peek returns the next non-comment token without consuming it
func (c *Cursor) Peek() Token {
	return c.toks[c.significant(c.pos)]
}

// PeekN returns the n-th upcoming non-comment token, Peek is PeekN(0)
func (c *Cursor) PeekN(n int) Token {
	i := c.significant(c.pos)
	for ; n > 0 && i < len(c.toks)-1; n-- {
		i = c.significant(i + 1)
	}
	return c.toks[i]
}

// Next consumes and returns the next non-comment token
func (c *Cursor) Next() Token {
	i := c.significant(c.pos)
	tok := c.toks[i]
	if tok.Type != EOF {
		c.pos = i + 1
	} else {
		c.pos = i
	}
	c.prev = tok
	return tok
}

// Prev is the last consumed token
func (c *Cursor) Prev() Token { return c.prev }

// Is reports whether the next token has type tt
func (c *Cursor) Is(tt TokenType) bool { return c.Peek().Type == tt }

// IsIdent reports whether the next token is an identifier spelled as one of words
func (c *Cursor) IsIdent(words ...string) bool {
	tok := c.Peek()
	if tok.Type != IDENT {
		return false
	}
	for _, w := range words {
		if tok.Text == w {
			return true
		}
	}
	return false
}

// Accept consumes the next token when it has type tt
func (c *Cursor) Accept(tt TokenType) bool {
	if c.Is(tt) {
		c.Next()
		return true
	}
	return false
}

// AcceptIdent consumes the next token when it is the identifier word
func (c *Cursor) AcceptIdent(word string) bool {
	if c.IsIdent(word) {
		c.Next()
		return true
	}
	return false
}

// Expect consumes a token of type tt or fails with msg
func (c *Cursor) Expect(tt TokenType, msg string) (Token, error) {
	tok := c.Peek()
	if tok.Type != tt {
		return tok, c.Errorf(tok, "%s", msg)
	}
	return c.Next(), nil
}

// ExpectIdent consumes the keyword word or fails
func (c *Cursor) ExpectIdent(word string) (Token, error) {
	tok := c.Peek()
	if tok.Type != IDENT || tok.Text != word {
		return tok, c.Errorf(tok, "illegal token '%s', '%s' expected", describe(tok), word)
	}
	return c.Next(), nil
}

// Errorf returns a syntax error positioned at tok
func (c *Cursor) Errorf(tok Token, format string, args ...any) error {
	return &unify.SyntaxError{
		Path:    c.path,
		Line:    tok.Line,
		Column:  tok.Col,
		Message: fmt.Sprintf(format, args...),
	}
}

// Unexpected returns a syntax error naming the token that was found
func (c *Cursor) Unexpected(tok Token, expected string) error {
	return c.Errorf(tok, "illegal token '%s', %s expected", describe(tok), expected)
}

func describe(tok Token) string {
	if tok.Type == EOF {
		return "null"
	}
	return tok.Text
}

// Loc is the location of tok
func Loc(tok Token) unify.Location {
	return unify.Location{Line: tok.Line, Column: tok.Col}
}

// Leading consumes the comments directly ahead of the cursor. They belong
// to the declaration that starts at the next token. The result is never nil.
func (c *Cursor) Leading() []unify.Comment {
	comments := []unify.Comment{}
	for c.pos < len(c.toks) && c.toks[c.pos].IsComment() {
		comments = append(comments, NewComment(c.toks[c.pos]))
		c.pos++
	}
	return comments
}

// Trailing appends to comments the first comment after the last consumed
// token when it starts on the line that token ends on.
func (c *Cursor) Trailing(comments []unify.Comment) []unify.Comment {
	if c.pos >= len(c.toks) {
		return comments
	}
	tok := c.toks[c.pos]
	if tok.IsComment() && tok.Line == c.prev.EndLine {
		c.pos++
		return append(comments, NewComment(tok))
	}
	return comments
}

// SkipBalanced consumes tokens up to and including the closer matching an
// opener that has already been consumed.
func (c *Cursor) SkipBalanced(open, close TokenType) error {
	depth := 1
	for depth > 0 {
		tok := c.Next()
		switch tok.Type {
		case EOF:
			return c.Unexpected(tok, close.String())
		case open:
			depth++
		case close:
			depth--
		}
	}
	return nil
}
