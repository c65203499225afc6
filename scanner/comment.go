package scanner

import (
	"strings"

	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

func lineCommentValue(text string) string {
	text = strings.TrimLeft(text, "/#")
	return strings.TrimSpace(text)
}

// BlockCommentLines splits a raw `/* */` comment into its lines.
//
// The first line loses the opener and any leading stars or blanks. A
// continuation line keeps a single leading space in place of its
// indentation or leading star. Trailing blanks and the closer are removed,
// and blank first or last lines of a multi-line block are dropped.
func BlockCommentLines(raw string) []string {
	body := strings.TrimPrefix(raw, "/*")
	body = strings.TrimSuffix(body, "*/")
	rawLines := strings.Split(body, "\n")

	lines := make([]string, 0, len(rawLines))
	for i, line := range rawLines {
		line = strings.TrimRight(line, " \t")
		if i == 0 {
			line = strings.TrimLeft(line, "* \t")
			lines = append(lines, line)
			continue
		}
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case strings.HasPrefix(trimmed, "*"):
			line = strings.TrimPrefix(trimmed, "*")
		case trimmed != line:
			line = " " + trimmed
		}
		if strings.TrimSpace(line) == "" {
			line = ""
		}
		lines = append(lines, line)
	}

	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 1 && lines[0] == "" {
		lines = lines[1:]
	}
	return lines
}

// NewComment converts a comment token into a document comment
func NewComment(tok Token) unify.Comment {
	loc := unify.Location{Line: tok.Line, Column: tok.Col}
	if tok.Type == BLOCK_COMMENT {
		return &unify.BlockComment{Location: loc, Value: BlockCommentLines(tok.Text)}
	}
	return &unify.LineComment{Location: loc, Value: tok.Value}
}
