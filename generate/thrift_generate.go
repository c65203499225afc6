package generate

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

// ThriftGenerate renders a unified document as Thrift IDL
type ThriftGenerate struct {
	dst *strings.Builder // output target
}

// NewThriftGenerate creates a new ThriftGenerate instance
func NewThriftGenerate() *ThriftGenerate {
	return &ThriftGenerate{dst: &strings.Builder{}}
}

// Generate converts the document into Thrift file content
func (e *ThriftGenerate) Generate(doc *unify.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("invalid document: nil")
	}
	e.dst.Reset()

	e.encodeHeader(doc)
	for _, stmt := range doc.Definitions() {
		if err := e.encodeStatement(stmt); err != nil {
			return "", err
		}
	}
	return e.dst.String(), nil
}

func (e *ThriftGenerate) encodeHeader(doc *unify.Document) {
	wrote := false
	if doc.Dialect == unify.DialectThrift {
		for _, stmt := range doc.Statements {
			if ns, ok := stmt.(*unify.NamespaceDeclaration); ok {
				e.dst.WriteString(fmt.Sprintf("namespace %s %s\n", ns.Scope, ns.Name))
				wrote = true
			}
		}
	} else if doc.Namespace != "" {
		e.dst.WriteString(fmt.Sprintf("namespace go %s\n", doc.Namespace))
		wrote = true
	}
	if wrote {
		e.dst.WriteString("\n")
	}

	wrote = false
	for _, inc := range doc.IncludeDeclarations() {
		if strings.HasPrefix(inc.Path, "google/protobuf/") {
			continue
		}
		p := inc.Path
		if ext := path.Ext(p); ext != ".thrift" {
			p = strings.TrimSuffix(p, ext) + ".thrift"
		}
		e.dst.WriteString(fmt.Sprintf("include \"%s\"\n", p))
		wrote = true
	}
	if wrote {
		e.dst.WriteString("\n")
	}
}

func (e *ThriftGenerate) encodeStatement(stmt unify.Statement) error {
	switch s := stmt.(type) {
	case *unify.StructDefinition:
		e.encodeStruct(s)
		for _, nested := range s.Nested {
			if err := e.encodeStatement(nested); err != nil {
				return err
			}
		}
	case *unify.EnumDefinition:
		e.encodeEnum(s)
	case *unify.TypedefDefinition:
		writeComments(e.dst, "", s.Comments)
		e.dst.WriteString(fmt.Sprintf("typedef %s %s\n\n", thriftType(s.DefinitionType), s.Name.Value))
	case *unify.ConstDefinition:
		writeComments(e.dst, "", s.Comments)
		e.dst.WriteString(fmt.Sprintf("const %s %s = %s\n\n", thriftType(s.FieldType), s.Name.Value, thriftValue(s.Initializer)))
	case *unify.ServiceDefinition:
		e.encodeService(s)
	default:
		return fmt.Errorf("unsupported statement %s", unify.SyntaxType(stmt))
	}
	return nil
}

// encodeEnum encodes enum types
func (e *ThriftGenerate) encodeEnum(enum *unify.EnumDefinition) {
	writeComments(e.dst, "", enum.Comments)
	e.dst.WriteString(fmt.Sprintf("enum %s {\n", enum.Name.Value))
	for _, m := range enum.Members {
		writeComments(e.dst, "  ", m.Comments)
		if m.Value != nil {
			e.dst.WriteString(fmt.Sprintf("  %s = %d\n", m.Name, *m.Value))
		} else {
			e.dst.WriteString(fmt.Sprintf("  %s\n", m.Name))
		}
	}
	e.dst.WriteString("}\n\n")
}

// encodeStruct encodes structs, unions, exceptions and messages
func (e *ThriftGenerate) encodeStruct(s *unify.StructDefinition) {
	kind := string(s.Kind)
	if s.Kind == unify.KindMessage {
		kind = string(unify.KindStruct)
	}
	writeComments(e.dst, "", s.Comments)
	e.dst.WriteString(fmt.Sprintf("%s %s {\n", kind, s.Name.Value))
	for _, f := range s.Fields {
		writeComments(e.dst, "  ", f.Comments)
		e.dst.WriteString("  " + e.encodeField(f) + "\n")
	}
	e.dst.WriteString("}\n\n")
}

func (e *ThriftGenerate) encodeField(f *unify.FieldDefinition) string {
	var sb strings.Builder
	if f.ID > 0 {
		sb.WriteString(fmt.Sprintf("%d: ", f.ID))
	}
	if f.Requiredness != "" {
		sb.WriteString(f.Requiredness + " ")
	}
	sb.WriteString(thriftType(f.FieldType) + " " + f.Name)
	if f.DefaultValue != nil {
		sb.WriteString(" = " + thriftValue(f.DefaultValue))
	}
	sb.WriteString(thriftAnnotations(fieldAnnotations(f)))
	return sb.String()
}

func (e *ThriftGenerate) encodeService(s *unify.ServiceDefinition) {
	writeComments(e.dst, "", s.Comments)
	e.dst.WriteString("service " + s.Name.Value)
	if s.Extends != nil {
		e.dst.WriteString(" extends " + s.Extends.Value)
	}
	e.dst.WriteString(" {\n")
	for _, fn := range s.Functions {
		writeComments(e.dst, "  ", fn.Comments)
		e.dst.WriteString("  ")
		if fn.Oneway {
			e.dst.WriteString("oneway ")
		}
		params := make([]string, 0, len(fn.Fields))
		for _, f := range fn.Fields {
			params = append(params, e.encodeField(f))
		}
		e.dst.WriteString(fmt.Sprintf("%s %s(%s)", thriftType(fn.ReturnType), fn.Name.Value, strings.Join(params, ", ")))
		if len(fn.Throws) > 0 {
			throws := make([]string, 0, len(fn.Throws))
			for _, f := range fn.Throws {
				throws = append(throws, e.encodeField(f))
			}
			e.dst.WriteString(fmt.Sprintf(" throws (%s)", strings.Join(throws, ", ")))
		}
		e.dst.WriteString(thriftAnnotations(functionAnnotations(fn.ExtensionConfig)) + "\n")
	}
	e.dst.WriteString("}" + thriftAnnotations(configAnnotations(s.ExtensionConfig)) + "\n\n")
}

func thriftAnnotations(annotations []annotation) string {
	if len(annotations) == 0 {
		return ""
	}
	parts := make([]string, 0, len(annotations))
	for _, a := range annotations {
		parts = append(parts, fmt.Sprintf("api.%s = %s", a.key, strconv.Quote(a.value)))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func thriftType(t unify.FieldType) string {
	switch t := t.(type) {
	case *unify.BaseType:
		return t.Name
	case *unify.Identifier:
		return strings.TrimPrefix(t.Value, ".")
	case *unify.ListType:
		return fmt.Sprintf("list<%s>", thriftType(t.ValueType))
	case *unify.SetType:
		return fmt.Sprintf("set<%s>", thriftType(t.ValueType))
	case *unify.MapType:
		return fmt.Sprintf("map<%s, %s>", thriftType(t.KeyType), thriftType(t.ValueType))
	}
	return "void"
}

func thriftValue(v unify.ConstValue) string {
	switch v := v.(type) {
	case *unify.ConstLiteral:
		if v.Kind == unify.LiteralString {
			return strconv.Quote(v.Value)
		}
		return v.Value
	case *unify.Identifier:
		return v.Value
	case *unify.ConstList:
		elems := make([]string, 0, len(v.Elements))
		for _, el := range v.Elements {
			elems = append(elems, thriftValue(el))
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case *unify.ConstMap:
		props := make([]string, 0, len(v.Properties))
		for _, p := range v.Properties {
			props = append(props, thriftValue(p.Key)+": "+thriftValue(p.Value))
		}
		return "{" + strings.Join(props, ", ") + "}"
	}
	return ""
}
