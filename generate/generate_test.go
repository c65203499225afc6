package generate

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hertz-contrib/swagger-generate/idlunify/parser"
	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

const demoThrift = `namespace go demo

// Req is the request
struct Req {
  1: required string id (api.path = "id")
  2: optional list<i64> ids (api.query = "ids")
  3: string name
}

enum Kind {
  A = 1,
  B
}

service Demo {
  Req Get(1: Req req) (api.get = "/demo/:id")
  Req Create(1: Req req) (api.post = "/demo")
  void Ping()
} (api.uri_prefix = "/api")
`

func parseDoc(t *testing.T, filePath, content string) *unify.Document {
	t.Helper()
	doc, err := parser.New().Parse(filePath, parser.Options{}, map[string]string{filePath: content})
	require.NoError(t, err)
	return doc
}

func TestMarshalJSON(t *testing.T) {
	doc := parseDoc(t, "demo.thrift", demoThrift)

	out, err := MarshalJSON(doc)
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(out, &tree))
	assert.Equal(t, "Document", tree["type"])
	assert.Equal(t, "demo", tree["unifyNamespace"])

	statements := tree["statements"].([]any)
	require.Len(t, statements, 4)
	assert.Equal(t, "NamespaceDeclaration", statements[0].(map[string]any)["type"])

	service := statements[3].(map[string]any)
	assert.Equal(t, "ServiceDefinition", service["type"])
	assert.Equal(t, map[string]any{"uri_prefix": "/api"}, service["extensionConfig"])

	name := service["name"].(map[string]any)
	assert.Equal(t, "Identifier", name["type"])
	assert.Equal(t, "demo.Demo", name["namespaceValue"])
	assert.Equal(t, float64(15), name["line"])
	assert.NotContains(t, name, "Location")
	assert.NotContains(t, name, "Resolved")

	fn := service["functions"].([]any)[0].(map[string]any)
	assert.Equal(t, "FunctionDefinition", fn["type"])
	assert.Equal(t, map[string]any{"method": "GET", "uri": "/demo/:id"}, fn["extensionConfig"])
	assert.NotContains(t, fn, "throws")
}

func TestMarshalYAML(t *testing.T) {
	doc := parseDoc(t, "demo.thrift", demoThrift)

	out, err := MarshalYAML(doc)
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, yaml.Unmarshal(out, &tree))
	assert.Equal(t, "Document", tree["type"])
	assert.Equal(t, "thrift", tree["dialect"])

	statements := tree["statements"].([]any)
	require.Len(t, statements, 4)
	req := statements[1].(map[string]any)
	assert.Equal(t, "StructDefinition", req["type"])
	assert.Equal(t, "struct", req["kind"])
	comment := req["comments"].([]any)[0].(map[string]any)
	assert.Equal(t, "LineComment", comment["type"])
	assert.Equal(t, "Req is the request", comment["value"])
}

func TestTree(t *testing.T) {
	value := int64(3)
	tests := []struct {
		name string
		node any
		want any
	}{
		{
			name: "identifier",
			node: &unify.Identifier{Location: unify.Location{Line: 1, Column: 2}, Value: "a", NamespaceValue: "ns.a", Resolved: true},
			want: map[string]any{"type": "Identifier", "line": 1, "column": 2, "value": "a", "namespaceValue": "ns.a"},
		},
		{
			name: "enum member",
			node: &unify.EnumMember{Name: "A", Value: &value, Comments: []unify.Comment{}},
			want: map[string]any{"type": "EnumMember", "line": 0, "column": 0, "name": "A", "value": int64(3), "comments": []any{}},
		},
		{
			name: "nested type",
			node: &unify.ListType{ValueType: &unify.BaseType{Name: "i32"}},
			want: map[string]any{"type": "ListType", "valueType": map[string]any{"type": "BaseType", "name": "i32"}},
		},
		{
			name: "nil",
			node: (*unify.Identifier)(nil),
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tree(tt.node))
		})
	}
}

func TestThriftGenerate(t *testing.T) {
	doc := parseDoc(t, "demo.thrift", demoThrift)

	out, err := NewThriftGenerate().Generate(doc)
	require.NoError(t, err)

	expected := `namespace go demo

// Req is the request
struct Req {
  1: required string id (api.path = "id")
  2: optional list<i64> ids (api.query = "ids")
  3: string name
}

enum Kind {
  A = 1
  B
}

service Demo {
  Req Get(1: Req req) (api.get = "/demo/:id")
  Req Create(1: Req req) (api.post = "/demo")
  void Ping()
} (api.uri_prefix = "/api")

`
	assert.Equal(t, expected, out)
}

func TestThriftGenerateFromProto(t *testing.T) {
	doc := parseDoc(t, "demo.proto", `
syntax = "proto3";
package demo.v1;
import "google/protobuf/empty.proto";

message Outer {
  message Inner {
    string value = 1;
  }
  Inner inner = 1;
  map<string, int32> counts = 2 [(api.query) = "c"];
}

service Demo {
  rpc Ping(google.protobuf.Empty) returns (Outer) {
    option (api.post) = "/ping";
  }
}
`)

	out, err := NewThriftGenerate().Generate(doc)
	require.NoError(t, err)

	assert.Contains(t, out, "namespace go demo.v1\n")
	assert.NotContains(t, out, "include")
	assert.Contains(t, out, "struct Outer {\n  1: Inner inner\n  2: map<string, i32> counts (api.query = \"c\")\n}\n")
	assert.Contains(t, out, "struct Inner {\n  1: string value\n}\n")
	assert.Contains(t, out, `Outer Ping(1: google.protobuf.Empty request) (api.post = "/ping")`)
}

func TestProtoGenerate(t *testing.T) {
	doc := parseDoc(t, "demo.thrift", demoThrift)

	out, err := NewEncoder().Generate(doc)
	require.NoError(t, err)

	expected := `syntax = "proto3";

package demo;

import "google/protobuf/empty.proto";

// Req is the request
message Req {
  string id = 1 [(api.path) = "id"];
  repeated int64 ids = 2 [(api.query) = "ids"];
  string name = 3;
}

enum Kind {
  A = 1;
  B = 2;
}

service Demo {
  option (api.uri_prefix) = "/api";
  rpc Get(Req) returns (Req) {
     option (api.get) = "/demo/:id";
  }
  rpc Create(Req) returns (Req) {
     option (api.post) = "/demo";
  }
  rpc Ping(google.protobuf.Empty) returns (google.protobuf.Empty);
}

`
	assert.Equal(t, expected, out)
}

func TestProtoGenerateFromProto(t *testing.T) {
	doc := parseDoc(t, "demo.proto", `
syntax = "proto2";
message Outer {
  optional string a = 1;
  message Inner {
    enum Kind {
      KIND_UNKNOWN = 0;
    }
  }
}
service Stream {
  rpc Watch(stream Outer) returns (stream Outer) {
    option (api.method) = "post";
    option (api.uri) = "/watch";
    option (api.serializer) = "json";
  }
}
`)

	out, err := NewEncoder().Generate(doc)
	require.NoError(t, err)

	assert.Contains(t, out, "syntax = \"proto2\";\n")
	assert.Contains(t, out, "  optional string a = 1;\n")
	assert.Contains(t, out, "\n  message Inner {\n\n    enum Kind {\n      KIND_UNKNOWN = 0;\n    }\n\n  }\n")
	assert.Contains(t, out, "  rpc Watch(stream Outer) returns (stream Outer) {\n")
	assert.Contains(t, out, "     option (api.method) = \"post\";\n     option (api.uri) = \"/watch\";\n     option (api.serializer) = \"json\";\n")
	assert.NotContains(t, out, "import")
}

func TestOpenAPIGenerate(t *testing.T) {
	doc := parseDoc(t, "demo.thrift", demoThrift)

	spec, err := NewOpenAPIGenerate().Generate(doc)
	require.NoError(t, err)

	assert.Equal(t, "3.0.3", spec.OpenAPI)
	assert.Equal(t, "demo", spec.Info.Title)

	req := spec.Components.Schemas["Req"]
	require.NotNil(t, req)
	assert.Equal(t, []string{"id"}, req.Value.Required)
	assert.Len(t, req.Value.Properties, 3)
	assert.Equal(t, "Req is the request", req.Value.Description)

	require.Equal(t, 2, spec.Paths.Len())

	get := spec.Paths.Value("/api/demo/{id}").Get
	require.NotNil(t, get)
	assert.Equal(t, "demoGet", get.OperationID)
	assert.Equal(t, []string{"Demo"}, get.Tags)
	require.Len(t, get.Parameters, 3)
	assert.NotNil(t, get.Parameters.GetByInAndName("path", "id"))
	ids := get.Parameters.GetByInAndName("query", "ids")
	require.NotNil(t, ids)
	assert.True(t, ids.Schema.Value.Type.Is("array"))
	assert.NotNil(t, get.Parameters.GetByInAndName("query", "name"))
	assert.Nil(t, get.RequestBody)

	ok := get.Responses.Value("200")
	require.NotNil(t, ok)
	assert.Equal(t, "#/components/schemas/Req", ok.Value.Content.Get("application/json").Schema.Ref)

	create := spec.Paths.Value("/api/demo").Post
	require.NotNil(t, create)
	assert.Equal(t, "demoCreate", create.OperationID)
	assert.NotNil(t, create.Parameters.GetByInAndName("path", "id"))
	assert.NotNil(t, create.Parameters.GetByInAndName("query", "ids"))
	require.NotNil(t, create.RequestBody)
	body := create.RequestBody.Value.Content.Get("application/json").Schema.Value
	assert.Contains(t, body.Properties, "name")
	assert.Len(t, body.Properties, 1)
}

func TestOpenAPIGenerateParameters(t *testing.T) {
	doc := parseDoc(t, "user.thrift", `
namespace go user
struct Query {
  1: string token (api.header = "X-Token")
  2: string session (api.cookie = "sid")
  3: i64 uid (api.path = "uid")
}
service User {
  void Remove(1: Query q) (api.delete = "/user/:uid")
  void Head(1: Query q) (api.method = "head", api.uri = "/user")
  void NoRoute(1: Query q) (api.serializer = "json")
}
`)

	spec, err := NewOpenAPIGenerate().Generate(doc)
	require.NoError(t, err)
	assert.Equal(t, 2, spec.Paths.Len())

	remove := spec.Paths.Value("/user/{uid}").Delete
	require.NotNil(t, remove)
	require.Len(t, remove.Parameters, 3)
	assert.NotNil(t, remove.Parameters.GetByInAndName("header", "X-Token"))
	assert.NotNil(t, remove.Parameters.GetByInAndName("cookie", "sid"))
	assert.NotNil(t, remove.Parameters.GetByInAndName("path", "uid"))
	assert.Nil(t, remove.Responses.Value("200").Value.Content)

	head := spec.Paths.Value("/user").GetOperation(http.MethodHead)
	require.NotNil(t, head)
}

func TestOpenAPIGenerateUnsupportedMethod(t *testing.T) {
	doc := parseDoc(t, "trace.thrift", `
service Tracer {
  void Trace() (api.method = "TRACE", api.uri = "/trace")
}
`)

	_, err := NewOpenAPIGenerate().Generate(doc)
	assert.ErrorContains(t, err, `unsupported http method "TRACE" on Trace`)
}

func TestGenerate(t *testing.T) {
	doc := parseDoc(t, "demo.thrift", demoThrift)

	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			out, err := Generate(doc, format)
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}

	out, err := Generate(doc, FormatOpenAPI)
	require.NoError(t, err)
	var spec map[string]any
	require.NoError(t, json.Unmarshal(out, &spec))
	assert.Equal(t, "3.0.3", spec["openapi"])

	_, err = Generate(doc, "xml")
	assert.EqualError(t, err, `unsupported format "xml"`)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{in: "", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "OpenAPI", want: FormatOpenAPI},
		{in: "Proto", want: FormatProto},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("xml")
	assert.EqualError(t, err, `unsupported format "xml"`)

	assert.Equal(t, "json, yaml, thrift, proto, openapi", FormatNames())
}

func TestGenerateNilDocument(t *testing.T) {
	_, err := NewThriftGenerate().Generate(nil)
	assert.Error(t, err)
	_, err = NewEncoder().Generate(nil)
	assert.Error(t, err)
	_, err = NewOpenAPIGenerate().Generate(nil)
	assert.Error(t, err)
}
