/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package generate renders resolved documents for external tooling: as
// Thrift or Proto IDL, as a JSON or YAML tree and as an OpenAPI route view.
package generate

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

const (
	emptyMessage = "google.protobuf.Empty"
	emptyImport  = "google/protobuf/empty.proto"
)

var protoScalarMap = map[string]string{
	"bool":   "bool",
	"byte":   "int32",
	"i8":     "int32",
	"i16":    "int32",
	"i32":    "int32",
	"i64":    "int64",
	"double": "double",
	"string": "string",
	"binary": "bytes",
	"uuid":   "string",
	"void":   emptyMessage,
}

// Encoder is used to handle the encoding context
type Encoder struct {
	dst *strings.Builder // The target for output
}

// NewEncoder creates a new Encoder instance
func NewEncoder() *Encoder {
	return &Encoder{dst: &strings.Builder{}}
}

// Generate converts the document into Proto file content
func (e *Encoder) Generate(doc *unify.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("invalid document: nil")
	}
	return e.ConvertToProtoFile(doc), nil
}

// ConvertToProtoFile converts the document into Proto file content
func (e *Encoder) ConvertToProtoFile(doc *unify.Document) string {
	e.dst.Reset()

	syntax := "proto3"
	if doc.Dialect == unify.DialectProtobuf && doc.Syntax != "" {
		syntax = doc.Syntax
	}
	e.dst.WriteString(fmt.Sprintf("syntax = \"%s\";\n\n", syntax))
	if doc.Namespace != "" {
		e.dst.WriteString(fmt.Sprintf("package %s;\n\n", doc.Namespace))
	}

	// Generate imports
	imports := protoImports(doc)
	for _, importFile := range imports {
		e.dst.WriteString(fmt.Sprintf("import \"%s\";\n", importFile))
	}
	if len(imports) > 0 {
		e.dst.WriteString("\n")
	}

	for _, stmt := range doc.Definitions() {
		switch s := stmt.(type) {
		case *unify.EnumDefinition:
			e.encodeEnum(s, 0)
		case *unify.StructDefinition:
			e.encodeMessage(s, 0)
		case *unify.ServiceDefinition:
			e.encodeService(s)
		}
	}
	return e.dst.String()
}

func protoImports(doc *unify.Document) []string {
	var imports []string
	seen := map[string]bool{}
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			imports = append(imports, p)
		}
	}
	for _, inc := range doc.IncludeDeclarations() {
		p := inc.Path
		if ext := path.Ext(p); ext != ".proto" {
			p = strings.TrimSuffix(p, ext) + ".proto"
		}
		add(p)
	}
	for _, s := range doc.Services() {
		for _, fn := range s.Functions {
			if requestType(fn) == emptyMessage || protoType(fn.ReturnType) == emptyMessage {
				add(emptyImport)
			}
		}
	}
	return imports
}

// encodeEnum encodes enum types
func (e *Encoder) encodeEnum(enum *unify.EnumDefinition, indentLevel int) {
	indent := strings.Repeat("  ", indentLevel)
	writeComments(e.dst, indent, enum.Comments)
	e.dst.WriteString(fmt.Sprintf("%senum %s {\n", indent, enum.Name.Value))

	next := int64(0)
	for _, value := range enum.Members {
		if value.Value != nil {
			next = *value.Value
		}
		writeComments(e.dst, indent+"  ", value.Comments)
		e.dst.WriteString(fmt.Sprintf("%s  %s = %d;\n", indent, value.Name, next))
		next++
	}

	e.dst.WriteString(fmt.Sprintf("%s}\n\n", indent))
}

// encodeMessage recursively encodes messages, including nested messages and enums
func (e *Encoder) encodeMessage(message *unify.StructDefinition, indentLevel int) {
	indent := strings.Repeat("  ", indentLevel)
	writeComments(e.dst, indent, message.Comments)
	e.dst.WriteString(fmt.Sprintf("%smessage %s {\n", indent, message.Name.Value))

	for i, field := range message.Fields {
		writeComments(e.dst, indent+"  ", field.Comments)
		id := field.ID
		if id <= 0 {
			id = i + 1
		}
		e.dst.WriteString(fmt.Sprintf("%s  %s %s = %d", indent, protoFieldType(field), field.Name, id))

		// Generate field-level options
		if options := fieldAnnotations(field); len(options) > 0 {
			parts := make([]string, 0, len(options))
			for _, option := range options {
				parts = append(parts, encodeOption(option))
			}
			e.dst.WriteString(" [" + strings.Join(parts, ", ") + "]")
		}
		e.dst.WriteString(";\n")
	}

	// Recursively handle nested messages and enums
	for _, nested := range message.Nested {
		switch n := nested.(type) {
		case *unify.StructDefinition:
			e.dst.WriteString("\n")
			e.encodeMessage(n, indentLevel+1)
		case *unify.EnumDefinition:
			e.dst.WriteString("\n")
			e.encodeEnum(n, indentLevel+1)
		}
	}

	e.dst.WriteString(fmt.Sprintf("%s}\n\n", indent))
}

func (e *Encoder) encodeService(service *unify.ServiceDefinition) {
	writeComments(e.dst, "", service.Comments)
	e.dst.WriteString(fmt.Sprintf("service %s {\n", service.Name.Value))
	for _, option := range configAnnotations(service.ExtensionConfig) {
		e.dst.WriteString("  option " + encodeOption(option) + ";\n")
	}

	for _, method := range service.Functions {
		writeComments(e.dst, "  ", method.Comments)
		input, output := requestType(method), protoType(method.ReturnType)
		if method.ClientStreaming {
			input = "stream " + input
		}
		if method.ServerStreaming {
			output = "stream " + output
		}
		e.dst.WriteString(fmt.Sprintf("  rpc %s(%s) returns (%s)", method.Name.Value, input, output))

		options := functionAnnotations(method.ExtensionConfig)
		if len(options) == 0 {
			e.dst.WriteString(";\n")
			continue
		}
		e.dst.WriteString(" {\n")
		for _, option := range options {
			e.dst.WriteString("     option " + encodeOption(option) + ";\n")
		}
		e.dst.WriteString("  }\n")
	}
	e.dst.WriteString("}\n\n")
}

// encodeOption encodes a single (api.x) option
func encodeOption(opt annotation) string {
	return fmt.Sprintf("(api.%s) = %s", opt.key, strconv.Quote(opt.value))
}

// requestType is the first parameter type, methods take exactly one
func requestType(fn *unify.FunctionDefinition) string {
	if len(fn.Fields) == 0 {
		return emptyMessage
	}
	return protoType(fn.Fields[0].FieldType)
}

func protoFieldType(field *unify.FieldDefinition) string {
	switch t := field.FieldType.(type) {
	case *unify.ListType:
		return "repeated " + protoType(t.ValueType)
	case *unify.SetType:
		return "repeated " + protoType(t.ValueType)
	case *unify.MapType:
		return protoType(t)
	}
	if field.Requiredness == "optional" {
		return "optional " + protoType(field.FieldType)
	}
	return protoType(field.FieldType)
}

func protoType(t unify.FieldType) string {
	switch t := t.(type) {
	case *unify.BaseType:
		if mapped, ok := protoScalarMap[t.Name]; ok {
			return mapped
		}
		return t.Name
	case *unify.Identifier:
		return t.Value
	case *unify.ListType:
		return protoType(t.ValueType)
	case *unify.SetType:
		return protoType(t.ValueType)
	case *unify.MapType:
		return fmt.Sprintf("map<%s, %s>", protoType(t.KeyType), protoType(t.ValueType))
	}
	return emptyMessage
}
