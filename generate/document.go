package generate

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

// Format names an output encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatThrift  Format = "thrift"
	FormatProto   Format = "proto"
	FormatOpenAPI Format = "openapi"
)

// Formats lists every supported format
var Formats = []Format{FormatJSON, FormatYAML, FormatThrift, FormatProto, FormatOpenAPI}

// ParseFormat looks up a format by name, case insensitive. An empty name is
// JSON.
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return FormatJSON, nil
	}
	for _, f := range Formats {
		if strings.EqualFold(name, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q", name)
}

// FormatNames returns the supported format names joined for help text
func FormatNames() string {
	names := make([]string, 0, len(Formats))
	for _, f := range Formats {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// Generate renders doc in format
func Generate(doc *unify.Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return MarshalJSON(doc)
	case FormatYAML:
		return MarshalYAML(doc)
	case FormatThrift:
		out, err := NewThriftGenerate().Generate(doc)
		return []byte(out), err
	case FormatProto:
		out, err := NewEncoder().Generate(doc)
		return []byte(out), err
	case FormatOpenAPI:
		spec, err := NewOpenAPIGenerate().Generate(doc)
		if err != nil {
			return nil, err
		}
		return json.MarshalIndent(spec, "", "  ")
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// MarshalJSON encodes doc as indented JSON with a "type" discriminator on
// every node
func MarshalJSON(doc *unify.Document) ([]byte, error) {
	out, err := json.MarshalIndent(Tree(doc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error marshaling document to json: %w", err)
	}
	return out, nil
}

// MarshalYAML encodes doc as YAML with the same shape as MarshalJSON
func MarshalYAML(doc *unify.Document) ([]byte, error) {
	out, err := yaml.Marshal(Tree(doc))
	if err != nil {
		return nil, fmt.Errorf("error marshaling document to yaml: %w", err)
	}
	return out, nil
}

// Tree converts a document or node into maps, slices and scalars. Struct
// nodes become maps keyed by their json names plus "type".
func Tree(node any) any {
	return tree(reflect.ValueOf(node))
}

func tree(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return tree(v.Elem())
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		if v.Elem().Kind() != reflect.Struct {
			return tree(v.Elem())
		}
		m := map[string]any{"type": unify.SyntaxType(v.Interface())}
		structFields(v.Elem(), m)
		return m
	case reflect.Struct:
		m := map[string]any{}
		structFields(v, m)
		return m
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, tree(v.Index(i)))
		}
		return out
	case reflect.Map:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = tree(iter.Value())
		}
		return out
	}
	return v.Interface()
}

func structFields(v reflect.Value, m map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fv := v.Field(i)
		if f.Anonymous && fv.Kind() == reflect.Struct {
			structFields(fv, m)
			continue
		}

		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if strings.Contains(opts, "omitempty") && isEmpty(fv) {
			continue
		}
		m[name] = tree(fv)
	}
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	}
	return v.IsZero()
}
