package unify

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is matched by every *SyntaxError
	ErrSyntax = errors.New("syntax error")
	// ErrMissingFile is matched by every *MissingFileError
	ErrMissingFile = errors.New("missing file")
	// ErrUnresolved is matched by every *ResolveError
	ErrUnresolved = errors.New("unresolved reference")
)

// SyntaxError reports a file that cannot be tokenized or parsed
type SyntaxError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s(%s:%d:%d)", e.Message, e.Path, e.Line, e.Column)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// MissingFileError reports an entry or included path that is absent from
// the supplied file contents. ReferencedBy is empty for the entry file.
type MissingFileError struct {
	Path         string
	ReferencedBy string
}

func (e *MissingFileError) Error() string {
	if e.ReferencedBy == "" {
		return fmt.Sprintf("file %q does not exist in fileContentMap", e.Path)
	}
	return fmt.Sprintf("file %s does not exist in fileContentMap (included from %s)", e.Path, e.ReferencedBy)
}

func (e *MissingFileError) Is(target error) bool { return target == ErrMissingFile }

// ResolveError reports a type reference with no matching declaration
type ResolveError struct {
	Path       string
	Identifier string
	Location   Location
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("cannot resolve %q (%s:%d:%d)", e.Identifier, e.Path, e.Location.Line, e.Location.Column)
}

func (e *ResolveError) Is(target error) bool { return target == ErrUnresolved }
