package generate

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/hertz-contrib/swagger-generate/idlunify/converter"
	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
	"github.com/hertz-contrib/swagger-generate/idlunify/utils"
)

const (
	openAPIVersion   = "3.0.3"
	componentsPrefix = "#/components/schemas/"
	uriPrefixKey     = "uri_prefix"
)

var supportedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodPatch:   true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// OpenAPIGenerate builds an OpenAPI route view from the HTTP extension
// config of a resolved document. Functions without both uri and method are
// not routes and are left out.
type OpenAPIGenerate struct {
	doc     *unify.Document
	spec    *openapi3.T
	structs map[string]*unify.StructDefinition // resolved name -> local struct
	enums   map[string]bool
}

// NewOpenAPIGenerate creates a new OpenAPIGenerate instance
func NewOpenAPIGenerate() *OpenAPIGenerate {
	return &OpenAPIGenerate{}
}

// Generate converts the document into an OpenAPI specification
func (g *OpenAPIGenerate) Generate(doc *unify.Document) (*openapi3.T, error) {
	if doc == nil {
		return nil, fmt.Errorf("invalid document: nil")
	}
	g.doc = doc
	g.structs = map[string]*unify.StructDefinition{}
	g.enums = map[string]bool{}
	g.spec = &openapi3.T{
		OpenAPI: openAPIVersion,
		Info: &openapi3.Info{
			Title:   utils.FileAlias(doc.Path),
			Version: "1.0.0",
		},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
	}

	g.indexDefinitions(doc.Statements)
	if err := g.convertComponents(doc.Statements); err != nil {
		return nil, fmt.Errorf("error converting structs to schemas: %w", err)
	}
	for _, service := range doc.Services() {
		if err := g.convertService(service); err != nil {
			return nil, fmt.Errorf("error converting service %s to paths: %w", service.Name.Value, err)
		}
	}
	return g.spec, nil
}

func (g *OpenAPIGenerate) indexDefinitions(stmts []unify.Statement) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *unify.StructDefinition:
			g.structs[s.Name.NamespaceValue] = s
			g.indexDefinitions(s.Nested)
		case *unify.EnumDefinition:
			g.enums[s.Name.NamespaceValue] = true
		}
	}
}

// schemaName strips the namespace from a resolved name
func (g *OpenAPIGenerate) schemaName(resolved string) string {
	name := strings.TrimPrefix(resolved, g.doc.UnifyNamespace+".")
	return strings.ReplaceAll(name, ".", "_")
}

func (g *OpenAPIGenerate) convertComponents(stmts []unify.Statement) error {
	for _, stmt := range stmts {
		s, ok := stmt.(*unify.StructDefinition)
		if !ok {
			continue
		}
		schema := openapi3.NewObjectSchema()
		if lines := commentLines(s.Comments); len(lines) > 0 {
			schema.Description = strings.Join(lines, "\n")
		}
		for _, field := range s.Fields {
			name := field.Name
			if key := field.ExtensionConfig[converter.KeyKey]; key != "" {
				name = key
			}
			schema.Properties[name] = g.schemaRef(field.FieldType)
			if field.Requiredness == "required" {
				schema.Required = append(schema.Required, name)
			}
		}
		g.spec.Components.Schemas[g.schemaName(s.Name.NamespaceValue)] = openapi3.NewSchemaRef("", schema)
		if err := g.convertComponents(s.Nested); err != nil {
			return err
		}
	}
	return nil
}

func (g *OpenAPIGenerate) convertService(service *unify.ServiceDefinition) error {
	prefix := service.ExtensionConfig[uriPrefixKey]
	for _, fn := range service.Functions {
		method := strings.ToUpper(fn.ExtensionConfig[converter.KeyMethod])
		uri := fn.ExtensionConfig[converter.KeyURI]
		if method == "" || uri == "" {
			continue
		}
		if !supportedMethods[method] {
			return fmt.Errorf("unsupported http method %q on %s", method, fn.Name.Value)
		}

		route := utils.ConvertPath(strings.TrimSuffix(prefix, "/") + uri)
		operation := g.convertFunction(service, fn, route, method)

		item := g.spec.Paths.Value(route)
		if item == nil {
			item = &openapi3.PathItem{}
			g.spec.Paths.Set(route, item)
		}
		item.SetOperation(method, operation)
	}
	return nil
}

func (g *OpenAPIGenerate) convertFunction(service *unify.ServiceDefinition, fn *unify.FunctionDefinition, route, method string) *openapi3.Operation {
	operation := openapi3.NewOperation()
	operation.OperationID = utils.ToLowerCamelCase(service.Name.Value + "_" + fn.Name.Value)
	operation.Tags = []string{service.Name.Value}
	if lines := commentLines(fn.Comments); len(lines) > 0 {
		operation.Summary = lines[0]
		operation.Description = strings.Join(lines, "\n")
	}

	declared := map[string]bool{}
	for _, name := range utils.PathParams(route) {
		declared[name] = true
		param := openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema())
		operation.Parameters = append(operation.Parameters, &openapi3.ParameterRef{Value: param})
	}

	body := openapi3.NewObjectSchema()
	for _, field := range g.requestFields(fn) {
		name := field.Name
		if key := field.ExtensionConfig[converter.KeyKey]; key != "" {
			name = key
		}
		schemaRef := g.schemaRef(field.FieldType)

		var param *openapi3.Parameter
		switch field.ExtensionConfig[converter.KeyPosition] {
		case "path":
			if declared[name] {
				continue
			}
			param = openapi3.NewPathParameter(name)
		case "query":
			param = openapi3.NewQueryParameter(name)
		case "header":
			param = openapi3.NewHeaderParameter(name)
		case "cookie":
			param = openapi3.NewCookieParameter(name)
		case "":
			if method == http.MethodGet || method == http.MethodHead {
				param = openapi3.NewQueryParameter(name)
			}
		}
		if param != nil {
			param.Schema = schemaRef
			if field.Requiredness == "required" {
				param.Required = true
			}
			operation.Parameters = append(operation.Parameters, &openapi3.ParameterRef{Value: param})
			continue
		}
		body.Properties[name] = schemaRef
	}
	if len(body.Properties) > 0 {
		operation.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithJSONSchema(body),
		}
	}

	response := openapi3.NewResponse().WithDescription("OK")
	if base, ok := fn.ReturnType.(*unify.BaseType); !ok || base.Name != "void" {
		response = response.WithJSONSchemaRef(g.schemaRef(fn.ReturnType))
	}
	operation.Responses = openapi3.NewResponses()
	operation.Responses.Set("200", &openapi3.ResponseRef{Value: response})
	return operation
}

// requestFields flattens a single struct parameter into its fields
func (g *OpenAPIGenerate) requestFields(fn *unify.FunctionDefinition) []*unify.FieldDefinition {
	if len(fn.Fields) == 1 {
		if id, ok := fn.Fields[0].FieldType.(*unify.Identifier); ok {
			if s, ok := g.structs[id.NamespaceValue]; ok {
				return s.Fields
			}
		}
	}
	return fn.Fields
}

func (g *OpenAPIGenerate) schemaRef(t unify.FieldType) *openapi3.SchemaRef {
	switch t := t.(type) {
	case *unify.BaseType:
		return openapi3.NewSchemaRef("", baseSchema(t.Name))
	case *unify.Identifier:
		if _, ok := g.structs[t.NamespaceValue]; ok {
			return openapi3.NewSchemaRef(componentsPrefix+g.schemaName(t.NamespaceValue), nil)
		}
		if g.enums[t.NamespaceValue] {
			return openapi3.NewSchemaRef("", openapi3.NewInt32Schema())
		}
		return openapi3.NewSchemaRef("", openapi3.NewObjectSchema())
	case *unify.ListType:
		return g.arraySchema(t.ValueType)
	case *unify.SetType:
		ref := g.arraySchema(t.ValueType)
		ref.Value.UniqueItems = true
		return ref
	case *unify.MapType:
		schema := openapi3.NewObjectSchema()
		schema.AdditionalProperties = openapi3.AdditionalProperties{Schema: g.schemaRef(t.ValueType)}
		return openapi3.NewSchemaRef("", schema)
	}
	return openapi3.NewSchemaRef("", openapi3.NewObjectSchema())
}

func (g *OpenAPIGenerate) arraySchema(item unify.FieldType) *openapi3.SchemaRef {
	schema := openapi3.NewArraySchema()
	schema.Items = g.schemaRef(item)
	return openapi3.NewSchemaRef("", schema)
}

func baseSchema(name string) *openapi3.Schema {
	switch name {
	case "bool":
		return openapi3.NewBoolSchema()
	case "byte", "i8", "i16", "i32":
		return openapi3.NewInt32Schema()
	case "i64":
		return openapi3.NewInt64Schema()
	case "double":
		return openapi3.NewFloat64Schema()
	case "binary":
		return openapi3.NewBytesSchema()
	}
	return openapi3.NewStringSchema()
}
