package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnifyNamespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "root"},
		{in: "test.base", want: "test_base"},
		{in: "a-b.c", want: "ab_c"},
		{in: "pkg.v1", want: "pkg_v1"},
		{in: "idx", want: "idx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UnifyNamespace(tt.in), tt.in)
	}
}

func TestFileAlias(t *testing.T) {
	assert.Equal(t, "base", FileAlias("base.thrift"))
	assert.Equal(t, "unify_dependent", FileAlias("./relative/unify_dependent.proto"))
	assert.Equal(t, "noext", FileAlias("dir/noext"))
}

func TestSplitQualified(t *testing.T) {
	head, tail, ok := SplitQualified("a.b.C")
	assert.True(t, ok)
	assert.Equal(t, "a", head)
	assert.Equal(t, "b.C", tail)

	head, tail, ok = SplitQualified("C")
	assert.False(t, ok)
	assert.Equal(t, "", head)
	assert.Equal(t, "C", tail)
}

func TestCaseConversion(t *testing.T) {
	assert.Equal(t, "demoGet", ToLowerCamelCase("Demo_Get"))
}

func TestConvertPath(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		params []string
	}{
		{in: "/user/:id", want: "/user/{id}", params: []string{"id"}},
		{in: "/user/:uid/post/:pid", want: "/user/{uid}/post/{pid}", params: []string{"uid", "pid"}},
		{in: "/user/{id}", want: "/user/{id}", params: []string{"id"}},
		{in: "/user", want: "/user", params: []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConvertPath(tt.in))
		assert.Equal(t, tt.params, PathParams(tt.in))
	}
}
