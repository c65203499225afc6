// Package converter normalizes dialect specific annotations into the
// canonical ExtensionConfig maps carried by services, functions and fields.
package converter

import (
	"reflect"
	"strings"

	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

// ConvertOption controls how field annotations are interpreted
type ConvertOption struct {
	IgnoreGoTag     bool // skip go.tag json parsing
	IgnoreGoTagDash bool // keep fields tagged json:"-"
}

// canonical keys
const (
	KeyMethod    = "method"
	KeyURI       = "uri"
	KeyPosition  = "position"
	KeyKey       = "key"
	KeyTag       = "tag"
	KeyWebType   = "web_type"
	KeyValueType = "value_type"
)

// tag values with a meaning of their own
const (
	TagIgnore    = "ignore"
	TagOmitEmpty = "omitempty"
	TagInt2Str   = "int2str"
	TagRequired  = "required"
)

var integerTypes = map[string]bool{
	"byte": true,
	"i8":   true,
	"i16":  true,
	"i32":  true,
	"i64":  true,
}

var httpVerbs = map[string]bool{
	"get":    true,
	"post":   true,
	"put":    true,
	"delete": true,
	"patch":  true,
}

var fieldPositions = map[string]bool{
	"query":       true,
	"body":        true,
	"path":        true,
	"header":      true,
	"cookie":      true,
	"form":        true,
	"entire_body": true,
	"raw_body":    true,
	"status_code": true,
}

// keyStripper maps a raw annotation key to its canonical form. ok is false
// for annotations outside the recognized namespaces.
type keyStripper func(key string) (canonical string, ok bool)

// ExtensionConverter fills the ExtensionConfig of every service, function
// and field of one local document
type ExtensionConverter struct {
	doc             *unify.Document
	converterOption *ConvertOption
	strip           keyStripper
}

// NewExtensionConverter creates an ExtensionConverter for doc
func NewExtensionConverter(doc *unify.Document, option *ConvertOption) *ExtensionConverter {
	if option == nil {
		option = &ConvertOption{}
	}
	c := &ExtensionConverter{doc: doc, converterOption: option}
	switch doc.Dialect {
	case unify.DialectProtobuf:
		c.strip = stripProtoKey
	default:
		c.strip = stripThriftKey
	}
	return c
}

// Convert normalizes the document in place
func (c *ExtensionConverter) Convert() {
	c.convertStatements(c.doc.Statements)
}

func (c *ExtensionConverter) convertStatements(stmts []unify.Statement) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *unify.ServiceDefinition:
			s.ExtensionConfig = c.ServiceConfig(s.Annotations)
			for _, fn := range s.Functions {
				fn.ExtensionConfig = c.FunctionConfig(fn.Annotations)
				c.convertFields(fn.Fields)
			}
		case *unify.StructDefinition:
			s.Fields = c.filterIgnored(c.convertFields(s.Fields))
			c.convertStatements(s.Nested)
		}
	}
}

func (c *ExtensionConverter) convertFields(fields []*unify.FieldDefinition) []*unify.FieldDefinition {
	for _, field := range fields {
		field.ExtensionConfig = c.FieldConfig(field.Name, field.Annotations)
		switch {
		case c.doc.Dialect == unify.DialectThrift && hasTag(field.ExtensionConfig, TagOmitEmpty):
			field.Requiredness = "optional"
		case c.doc.Dialect == unify.DialectProtobuf && hasTag(field.ExtensionConfig, TagRequired):
			field.Requiredness = "required"
		}
		if hasTag(field.ExtensionConfig, TagInt2Str) {
			field.FieldType = intToString(field.FieldType)
		}
	}
	return fields
}

// intToString turns an integer field into a string one, containers keep
// their shape
func intToString(t unify.FieldType) unify.FieldType {
	switch t := t.(type) {
	case *unify.BaseType:
		if integerTypes[t.Name] {
			return &unify.BaseType{Name: "string"}
		}
	case *unify.ListType:
		return &unify.ListType{ValueType: intToString(t.ValueType)}
	case *unify.SetType:
		return &unify.SetType{ValueType: intToString(t.ValueType)}
	}
	return t
}

func (c *ExtensionConverter) filterIgnored(fields []*unify.FieldDefinition) []*unify.FieldDefinition {
	if c.converterOption.IgnoreGoTagDash {
		return fields
	}
	kept := fields[:0]
	for _, field := range fields {
		if !hasTag(field.ExtensionConfig, TagIgnore) {
			kept = append(kept, field)
		}
	}
	return kept
}

// FunctionConfig normalizes function or method annotations. Verb shorthand
// keys set both method and uri. Keys are applied in declared order, so a
// later key overwrites an earlier one.
func (c *ExtensionConverter) FunctionConfig(annotations []*unify.Annotation) map[string]string {
	config := map[string]string{}
	for _, annotation := range annotations {
		key, ok := c.strip(annotation.Key)
		if !ok {
			continue
		}
		if httpVerbs[key] {
			config[KeyMethod] = strings.ToUpper(key)
			config[KeyURI] = annotation.Value
			continue
		}
		config[key] = annotation.Value
	}
	return config
}

// ServiceConfig normalizes service annotations such as uri_prefix
func (c *ExtensionConverter) ServiceConfig(annotations []*unify.Annotation) map[string]string {
	config := map[string]string{}
	for _, annotation := range annotations {
		if key, ok := c.strip(annotation.Key); ok {
			config[key] = annotation.Value
		}
	}
	return config
}

// FieldConfig normalizes field annotations into position, key, tag,
// web_type and value_type. Any other key is dropped, as is an empty or
// unknown explicit position. Tags accumulate, other keys are
// last-write-wins.
func (c *ExtensionConverter) FieldConfig(fieldName string, annotations []*unify.Annotation) map[string]string {
	config := map[string]string{}
	for _, annotation := range annotations {
		if isGoTag(annotation.Key) {
			if !c.converterOption.IgnoreGoTag {
				mergeConfig(config, goTagConfig(fieldName, annotation.Value))
			}
			continue
		}
		key, ok := c.strip(annotation.Key)
		if !ok {
			continue
		}
		mergeConfig(config, fieldConfig(fieldName, key, annotation.Value))
	}
	return config
}

func fieldConfig(fieldName, key, value string) map[string]string {
	config := map[string]string{}
	switch {
	case fieldPositions[key]:
		config[KeyPosition] = key
		name, tags := splitTagValue(value)
		if name != "" && name != fieldName {
			config[KeyKey] = name
		}
		if tags != "" {
			config[KeyTag] = tags
		}
	case key == "source" || key == "target":
		if value == "http_code" {
			value = "status_code"
		}
		config[KeyPosition] = value
	case key == "js_conv":
		if value != "false" {
			config[KeyTag] = TagInt2Str
		}
	case key == KeyKey:
		if value != fieldName {
			config[KeyKey] = value
		}
	case key == KeyPosition:
		if fieldPositions[value] {
			config[KeyPosition] = value
		}
	case key == KeyTag || key == KeyWebType || key == KeyValueType:
		if value != "" {
			config[key] = value
		}
	}
	return config
}

// goTagConfig reads the json part of a go struct tag
func goTagConfig(fieldName, value string) map[string]string {
	config := map[string]string{}
	jsonTag, ok := reflect.StructTag(value).Lookup("json")
	if !ok {
		return config
	}
	parts := strings.Split(jsonTag, ",")
	switch name := strings.TrimSpace(parts[0]); {
	case name == "-" && len(parts) == 1:
		config[KeyTag] = TagIgnore
		return config
	case name != "" && name != fieldName:
		config[KeyKey] = name
	}
	var tags []string
	for _, opt := range parts[1:] {
		switch opt = strings.TrimSpace(opt); opt {
		case "string":
			config[KeyValueType] = "string"
		case "":
		default:
			tags = append(tags, opt)
		}
	}
	if len(tags) > 0 {
		config[KeyTag] = strings.Join(tags, ",")
	}
	return config
}

// splitTagValue splits "name, omitempty" into the key and the tag list
func splitTagValue(value string) (string, string) {
	parts := strings.Split(value, ",")
	var tags []string
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return strings.TrimSpace(parts[0]), strings.Join(tags, ",")
}

func mergeConfig(dst, src map[string]string) {
	for k, v := range src {
		if k == KeyTag && dst[KeyTag] != "" {
			dst[KeyTag] = mergeTags(dst[KeyTag], v)
			continue
		}
		dst[k] = v
	}
}

func mergeTags(a, b string) string {
	tags := strings.Split(a, ",")
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		seen[t] = true
	}
	for _, t := range strings.Split(b, ",") {
		if !seen[t] {
			tags = append(tags, t)
			seen[t] = true
		}
	}
	return strings.Join(tags, ",")
}

func hasTag(config map[string]string, tag string) bool {
	for _, t := range strings.Split(config[KeyTag], ",") {
		if t == tag {
			return true
		}
	}
	return false
}
