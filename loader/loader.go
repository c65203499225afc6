// Package loader reads schema files from disk into the path to source map
// the parser consumes
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Loader selects files under a root directory by glob pattern. Patterns are
// matched against slash separated paths relative to the root.
type Loader struct {
	root    string
	include []glob.Glob
	exclude []glob.Glob
}

// New compiles patterns and exclude. A file is loaded when it matches any
// pattern and no exclude.
func New(root string, patterns, exclude []string) (*Loader, error) {
	l := &Loader{root: root}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		l.include = append(l.include, g)
	}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		l.exclude = append(l.exclude, g)
	}
	return l, nil
}

// Root is the directory files are loaded from
func (l *Loader) Root() string { return l.root }

// Match reports whether the relative path rel is selected
func (l *Loader) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, g := range l.exclude {
		if g.Match(rel) {
			return false
		}
	}
	for _, g := range l.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Rel converts a path below the root into the key used in the file map
func (l *Loader) Rel(path string) (string, error) {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Load reads every selected file
func (l *Loader) Load() (map[string]string, error) {
	files := map[string]string{}
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := l.Rel(path)
		if err != nil {
			return err
		}
		if !l.Match(rel) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		files[rel] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
