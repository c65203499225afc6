package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

func tokenTypes(toks []Token) []TokenType {
	types := make([]TokenType, 0, len(toks))
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	return types
}

func TestTokenize(t *testing.T) {
	toks, err := Tokenize(`struct Foo { 1: required base.Response r = -2 (api.query = "q") }`, Config{DottedIdents: true})
	require.NoError(t, err)

	assert.Equal(t, []TokenType{
		IDENT, IDENT, LBRACE,
		INT, COLON, IDENT, IDENT, IDENT, ASSIGN, INT,
		LPAREN, IDENT, ASSIGN, STRING, RPAREN,
		RBRACE, EOF,
	}, tokenTypes(toks))
	assert.Equal(t, "base.Response", toks[6].Text)
	assert.Equal(t, "-2", toks[9].Text)
	assert.Equal(t, "api.query", toks[11].Text)
	assert.Equal(t, "q", toks[13].Value)
	assert.Equal(t, `"q"`, toks[13].Text)
}

func TestTokenizeDottedIdents(t *testing.T) {
	toks, err := Tokenize("(api.get)", Config{})
	require.NoError(t, err)
	assert.Equal(t, []TokenType{LPAREN, IDENT, DOT, IDENT, RPAREN, EOF}, tokenTypes(toks))

	toks, err = Tokenize("(api.get)", Config{DottedIdents: true})
	require.NoError(t, err)
	assert.Equal(t, []TokenType{LPAREN, IDENT, RPAREN, EOF}, tokenTypes(toks))
}

func TestTokenizeComments(t *testing.T) {
	src := "# hash\n// line\n/* a\n b */ x"

	toks, err := Tokenize(src, Config{HashComments: true})
	require.NoError(t, err)
	require.Equal(t, []TokenType{LINE_COMMENT, LINE_COMMENT, BLOCK_COMMENT, IDENT, EOF}, tokenTypes(toks))
	assert.Equal(t, "hash", toks[0].Value)
	assert.Equal(t, "line", toks[1].Value)
	assert.Equal(t, 3, toks[2].Line)
	assert.Equal(t, 4, toks[2].EndLine)

	_, err = Tokenize(src, Config{})
	assert.Error(t, err)
}

func TestTokenizeStrings(t *testing.T) {
	toks, err := Tokenize(`'single' "esc\"aped\n" "json:\"key\""`, Config{})
	require.NoError(t, err)
	assert.Equal(t, "single", toks[0].Value)
	assert.Equal(t, "esc\"aped\n", toks[1].Value)
	assert.Equal(t, `json:"key"`, toks[2].Value)
}

func TestTokenizeNumbers(t *testing.T) {
	toks, err := Tokenize("0x1F 1.5 1e3 -7", Config{})
	require.NoError(t, err)
	assert.Equal(t, []TokenType{INT, FLOAT, FLOAT, INT, EOF}, tokenTypes(toks))
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{name: "unterminated string", src: `"abc`, msg: "unterminated string"},
		{name: "unterminated comment", src: "/* abc", msg: "unterminated block comment"},
		{name: "illegal character", src: "a @ b", msg: "illegal character '@'"},
		{name: "malformed number", src: "12ab", msg: `malformed number "12a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.src, Config{})
			var lexErr *Error
			require.ErrorAs(t, err, &lexErr)
			assert.Equal(t, tt.msg, lexErr.Msg)
		})
	}
}

func TestBlockCommentLines(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "/* c3 */", want: []string{"c3"}},
		{raw: "/* c8\n        c9 */", want: []string{"c8", " c9"}},
		{raw: "/**\n * doc\n */", want: []string{" doc"}},
		{raw: "/**/", want: []string{""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BlockCommentLines(tt.raw), tt.raw)
	}
}

func TestCursorComments(t *testing.T) {
	src := "// lead\n/* block */\na b // trail\n// next\nc"
	toks, err := Tokenize(src, Config{})
	require.NoError(t, err)
	c := NewCursor("x.thrift", toks)

	leading := c.Leading()
	require.Len(t, leading, 2)
	assert.Equal(t, "lead", leading[0].(*unify.LineComment).Value)
	assert.Equal(t, []string{"block"}, leading[1].(*unify.BlockComment).Value)

	assert.Equal(t, "a", c.Next().Text)
	assert.Equal(t, "b", c.Next().Text)
	comments := c.Trailing(nil)
	require.Len(t, comments, 1)
	assert.Equal(t, "trail", comments[0].(*unify.LineComment).Value)

	// a comment on a later line is not trailing
	assert.Empty(t, c.Trailing(nil))
	assert.Equal(t, "c", c.Next().Text)
	assert.True(t, c.Is(EOF))
	assert.Empty(t, c.Leading())
}

func TestCursorExpect(t *testing.T) {
	toks, err := Tokenize("a", Config{})
	require.NoError(t, err)
	c := NewCursor("x.proto", toks)

	_, err = c.ExpectIdent("syntax")
	var syntaxErr *unify.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, "illegal token 'a', 'syntax' expected", syntaxErr.Message)
	assert.ErrorIs(t, err, unify.ErrSyntax)

	c.Next()
	_, err = c.Expect(SEMICOLON, "semicolon")
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, "x.proto", syntaxErr.Path)
	assert.Equal(t, "illegal token 'null', ';' expected", c.Unexpected(c.Peek(), "';'").(*unify.SyntaxError).Message)
}
