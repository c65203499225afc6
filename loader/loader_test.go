package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "api.thrift", "namespace js api")
	writeFile(t, root, "base/base.thrift", "namespace js base")
	writeFile(t, root, "proto/svc.proto", "syntax = \"proto3\";")
	writeFile(t, root, "vendor/x.thrift", "namespace js x")
	writeFile(t, root, "README.md", "# docs")

	l, err := New(root, []string{"**.thrift", "**.proto"}, []string{"vendor/**"})
	require.NoError(t, err)

	files, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"api.thrift":       "namespace js api",
		"base/base.thrift": "namespace js base",
		"proto/svc.proto":  "syntax = \"proto3\";",
	}, files)
}

func TestMatch(t *testing.T) {
	l, err := New(".", []string{"idl/*.thrift"}, nil)
	require.NoError(t, err)

	assert.True(t, l.Match("idl/a.thrift"))
	assert.False(t, l.Match("idl/sub/a.thrift"))
	assert.False(t, l.Match("a.thrift"))
}

func TestNewInvalidPattern(t *testing.T) {
	_, err := New(".", []string{"[z-a].thrift"}, nil)
	assert.Error(t, err)

	_, err = New(".", nil, []string{"[z-a]/**"})
	assert.Error(t, err)
}

func TestWatcher(t *testing.T) {
	root := t.TempDir()
	l, err := New(root, []string{"**.thrift"}, nil)
	require.NoError(t, err)

	changed := make(chan []string, 4)
	w, err := NewWatcher(l, 50*time.Millisecond, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch())

	writeFile(t, root, "notes.txt", "ignored")
	writeFile(t, root, "a.thrift", "namespace js a")

	select {
	case paths := <-changed:
		assert.Contains(t, paths, "a.thrift")
		assert.NotContains(t, paths, "notes.txt")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}
