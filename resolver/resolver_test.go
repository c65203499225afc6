package resolver

import (
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hertz-contrib/swagger-generate/idlunify/protobuf"
	"github.com/hertz-contrib/swagger-generate/idlunify/thrift"
	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

// parseAll parses every file and links includes found next to the
// including file
func parseAll(t *testing.T, files map[string]string) map[string]*unify.Document {
	t.Helper()
	docs := map[string]*unify.Document{}
	for p, src := range files {
		var (
			doc *unify.Document
			err error
		)
		if strings.HasSuffix(p, protobuf.Extension) {
			doc, err = protobuf.ParseFile(p, src)
		} else {
			doc, err = thrift.ParseFile(p, src)
		}
		require.NoError(t, err, p)
		docs[p] = doc
	}
	for p, doc := range docs {
		for _, inc := range doc.IncludeDeclarations() {
			target := path.Join(path.Dir(p), inc.Path)
			if _, ok := docs[target]; ok {
				inc.Resolved = target
			}
		}
	}
	return docs
}

func resolveAll(t *testing.T, files map[string]string) map[string]*unify.Document {
	t.Helper()
	docs := parseAll(t, files)
	require.NoError(t, Resolve(docs, nil))
	return docs
}

func TestResolveThriftFunction(t *testing.T) {
	docs := resolveAll(t, map[string]string{
		"base.thrift": `
namespace go test_base
struct Response {}
`,
		"index.thrift": `
include "./base.thrift"
struct BizRequest {}
service Foo {
  base.Response Biz1(1: BizRequest req) // c2
}
`,
	})

	fn := docs["index.thrift"].Services()[0].Functions[0]
	assert.Equal(t, "Biz1", fn.Name.Value)
	assert.Equal(t, "root.Biz1", fn.Name.NamespaceValue)

	ret := fn.ReturnType.(*unify.Identifier)
	assert.Equal(t, "base.Response", ret.Value)
	assert.Equal(t, "test_base.Response", ret.NamespaceValue)
	assert.True(t, ret.Resolved)

	req := fn.Fields[0].FieldType.(*unify.Identifier)
	assert.Equal(t, "BizRequest", req.Value)
	assert.Equal(t, "root.BizRequest", req.NamespaceValue)

	assert.Equal(t, "test_base.Response", docs["base.thrift"].Structs()[0].Name.NamespaceValue)
}

func TestResolveThriftTypes(t *testing.T) {
	docs := resolveAll(t, map[string]string{
		"unify_dependent.thrift": `
typedef Foo Foo1

struct Foo {
  1: string f_key1
}

enum Kind { A, B }

struct FuncResponse {}
`,
		"unify_index.thrift": `
include 'unify_dependent.thrift'

typedef unify_dependent.Foo TFoo

const Mode DefaultMode = Mode.ON
const map<string, unify_dependent.Kind> Kinds = {"a": unify_dependent.Kind.A}

enum Mode { ON = 1, OFF = 2 }

union FuncRequest {
  1: unify_dependent.Foo r_key1
  2: TFoo r_key2
  3: list<map<string, set<unify_dependent.Foo1>>> r_key3
  4: Mode mode = Mode.OFF
}

exception Oops {}

service Base {}

service Example extends Base {
  unify_dependent.FuncResponse Func(1: FuncRequest req) throws (1: Oops oops)
}
`,
	})

	doc := docs["unify_index.thrift"]
	assert.Equal(t, "root", doc.UnifyNamespace)

	defs := doc.Definitions()
	tfoo := defs[0].(*unify.TypedefDefinition)
	assert.Equal(t, "root.TFoo", tfoo.Name.NamespaceValue)
	assert.Equal(t, "root.Foo", tfoo.DefinitionType.(*unify.Identifier).NamespaceValue)

	defaultMode := defs[1].(*unify.ConstDefinition)
	assert.Equal(t, "root.Mode", defaultMode.FieldType.(*unify.Identifier).NamespaceValue)
	assert.Equal(t, "root.Mode.ON", defaultMode.Initializer.(*unify.Identifier).NamespaceValue)

	kinds := defs[2].(*unify.ConstDefinition)
	prop := kinds.Initializer.(*unify.ConstMap).Properties[0]
	assert.Equal(t, "root.Kind.A", prop.Value.(*unify.Identifier).NamespaceValue)

	req := defs[4].(*unify.StructDefinition)
	assert.Equal(t, "root.FuncRequest", req.Name.NamespaceValue)
	assert.Equal(t, "root.TFoo", req.Fields[1].FieldType.(*unify.Identifier).NamespaceValue)
	nested := req.Fields[2].FieldType.(*unify.ListType).ValueType.(*unify.MapType).ValueType.(*unify.SetType).ValueType
	assert.Equal(t, "root.Foo1", nested.(*unify.Identifier).NamespaceValue)
	assert.Equal(t, "root.Mode.OFF", req.Fields[3].DefaultValue.(*unify.Identifier).NamespaceValue)

	example := doc.Services()[1]
	assert.Equal(t, "root.Base", example.Extends.NamespaceValue)
	fn := example.Functions[0]
	assert.Equal(t, "root.Func", fn.Name.NamespaceValue)
	assert.Equal(t, "root.Oops", fn.Throws[0].FieldType.(*unify.Identifier).NamespaceValue)
}

func TestResolveThriftUnresolved(t *testing.T) {
	docs := parseAll(t, map[string]string{
		"index.thrift": `
struct Foo {
  1: Missing m
}
`,
	})
	err := Resolve(docs, nil)
	require.ErrorIs(t, err, unify.ErrUnresolved)

	var resolveErr *unify.ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, "Missing", resolveErr.Identifier)
	assert.Equal(t, "index.thrift", resolveErr.Path)
	assert.Equal(t, 3, resolveErr.Location.Line)
}

func TestResolveThriftUnknownAlias(t *testing.T) {
	docs := parseAll(t, map[string]string{
		"index.thrift": `
struct Foo {
  1: other.Bar b
}
`,
	})
	assert.ErrorIs(t, Resolve(docs, nil), unify.ErrUnresolved)
}

func TestResolveProtoMethod(t *testing.T) {
	docs := resolveAll(t, map[string]string{
		"index.proto": `
syntax = 'proto3';
message BizRequest {}
message BizResponse {}
service Foo {
  rpc Biz1(BizRequest) returns (BizResponse) {
    option (api.uri) = '/api/biz1';
  }
}
`,
	})

	doc := docs["index.proto"]
	service := doc.Services()[0]
	assert.Equal(t, "root.Foo", service.Name.NamespaceValue)
	fn := service.Functions[0]
	assert.Equal(t, "Biz1", fn.Name.Value)
	assert.Equal(t, "root.Foo.Biz1", fn.Name.NamespaceValue)
	assert.Equal(t, "root.BizRequest", fn.Fields[0].FieldType.(*unify.Identifier).NamespaceValue)
	assert.Equal(t, "root.BizResponse", fn.ReturnType.(*unify.Identifier).NamespaceValue)
}

func TestResolveProtoImport(t *testing.T) {
	docs := resolveAll(t, map[string]string{
		"base.proto": `
syntax = 'proto3';
package test_base;
message Response {}
`,
		"index.proto": `
import "base.proto";
syntax = 'proto3';
message BizRequest {}
service Foo {
  rpc Biz1(BizRequest) returns (test_base.Response) {
    option (api.uri) = '/api/biz1';
  }
}
`,
	})

	ret := docs["index.proto"].Services()[0].Functions[0].ReturnType.(*unify.Identifier)
	assert.Equal(t, "test_base.Response", ret.Value)
	assert.Equal(t, "test_base.Response", ret.NamespaceValue)
}

func TestResolveProtoSamePackage(t *testing.T) {
	docs := resolveAll(t, map[string]string{
		"base.proto": `
syntax = 'proto3';
package same;
message Response {}
message Request {}
`,
		"index.proto": `
import "base.proto";
syntax = 'proto3';
package same;
service Foo {
  rpc Biz1(Request) returns (same.Response) {
    option (api.uri) = '/api/biz1';
  }
}
`,
	})

	fn := docs["index.proto"].Services()[0].Functions[0]
	req := fn.Fields[0].FieldType.(*unify.Identifier)
	assert.Equal(t, "Request", req.Value)
	assert.Equal(t, "same.Request", req.NamespaceValue)
	ret := fn.ReturnType.(*unify.Identifier)
	assert.Equal(t, "same.Response", ret.Value)
	assert.Equal(t, "same.Response", ret.NamespaceValue)
	assert.Equal(t, "same.Foo.Biz1", fn.Name.NamespaceValue)
}

func TestResolveProtoSamePackageNotImported(t *testing.T) {
	docs := resolveAll(t, map[string]string{
		"a.proto": `
syntax = "proto3";
package pkg.v1;
message A { B b = 1; }
`,
		"b.proto": `
syntax = "proto3";
package pkg.v1;
message B {}
`,
	})
	b := docs["a.proto"].Structs()[0].Fields[0].FieldType.(*unify.Identifier)
	assert.Equal(t, "pkg_v1.B", b.NamespaceValue)
}

func TestResolveProtoScopes(t *testing.T) {
	docs := resolveAll(t, map[string]string{
		"common.proto": `
syntax = "proto3";
package a.common;
message Page {}
`,
		"public.proto": `
syntax = "proto3";
package a.pub;
import public "common.proto";
message Shared {}
`,
		"index.proto": `
syntax = "proto3";
package a.b;
import "public.proto";
import "google/protobuf/empty.proto";

message Outer {
  message Inner {
    enum Kind { KIND_UNKNOWN = 0; }
    Kind kind = 1;
    Outer outer = 2;
  }
  Inner inner = 1;
  Inner.Kind kind = 2;
  .a.b.Outer self = 3;
  common.Page page = 4;
  a.pub.Shared shared = 5;
  map<string, Inner> byName = 6;
}

service Svc {
  rpc Get(google.protobuf.Empty) returns (Outer.Inner);
  rpc Put(.google.protobuf.Empty) returns (pub.Shared);
}
`,
	})

	doc := docs["index.proto"]
	outer := doc.Structs()[0]
	assert.Equal(t, "a_b.Outer", outer.Name.NamespaceValue)

	inner := outer.Nested[0].(*unify.StructDefinition)
	assert.Equal(t, "Inner", inner.Name.Value)
	assert.Equal(t, "a_b.Outer.Inner", inner.Name.NamespaceValue)
	kindEnum := inner.Nested[0].(*unify.EnumDefinition)
	assert.Equal(t, "a_b.Outer.Inner.Kind", kindEnum.Name.NamespaceValue)
	assert.Equal(t, "a_b.Outer.Inner.Kind", inner.Fields[0].FieldType.(*unify.Identifier).NamespaceValue)
	assert.Equal(t, "a_b.Outer", inner.Fields[1].FieldType.(*unify.Identifier).NamespaceValue)

	resolved := func(f *unify.FieldDefinition) string {
		return f.FieldType.(*unify.Identifier).NamespaceValue
	}
	assert.Equal(t, "a_b.Outer.Inner", resolved(outer.Fields[0]))
	assert.Equal(t, "a_b.Outer.Inner.Kind", resolved(outer.Fields[1]))
	assert.Equal(t, "a_b.Outer", resolved(outer.Fields[2]))
	assert.Equal(t, "a_common.Page", resolved(outer.Fields[3]))
	assert.Equal(t, "a_pub.Shared", resolved(outer.Fields[4]))
	byName := outer.Fields[5].FieldType.(*unify.MapType).ValueType.(*unify.Identifier)
	assert.Equal(t, "a_b.Outer.Inner", byName.NamespaceValue)

	svc := doc.Services()[0]
	assert.Equal(t, "google_protobuf.Empty", svc.Functions[0].Fields[0].FieldType.(*unify.Identifier).NamespaceValue)
	assert.Equal(t, "a_b.Outer.Inner", svc.Functions[0].ReturnType.(*unify.Identifier).NamespaceValue)
	assert.Equal(t, "google_protobuf.Empty", svc.Functions[1].Fields[0].FieldType.(*unify.Identifier).NamespaceValue)
	assert.Equal(t, "a_pub.Shared", svc.Functions[1].ReturnType.(*unify.Identifier).NamespaceValue)
}

func TestResolveProtoUnresolved(t *testing.T) {
	docs := parseAll(t, map[string]string{
		"index.proto": `
syntax = "proto3";
package p;
message Foo { other.Bar bar = 1; }
`,
	})
	err := Resolve(docs, nil)
	require.ErrorIs(t, err, unify.ErrUnresolved)
	assert.Contains(t, err.Error(), `cannot resolve "other.Bar"`)
}

func TestLookup(t *testing.T) {
	docs := parseAll(t, map[string]string{
		"index.thrift": `
namespace go idx
enum Kind { A }
struct Foo {}
`,
	})
	r := New(docs, nil)
	require.NoError(t, r.Resolve())

	assert.True(t, r.Lookup("idx", "Foo"))
	assert.True(t, r.Lookup("idx", "Kind.A"))
	assert.False(t, r.Lookup("idx", "Bar"))
	assert.False(t, r.Lookup("root", "Foo"))
}
