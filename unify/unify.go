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

// Package unify holds the dialect independent document model shared by the
// Thrift and Protobuf front-ends.
package unify

// Dialect identifies the IDL grammar a Document was parsed from
type Dialect string

const (
	DialectThrift   Dialect = "thrift"
	DialectProtobuf Dialect = "proto"
)

// DefaultNamespace is the canonical namespace of files that declare none
const DefaultNamespace = "root"

// Document represents one parsed schema file
type Document struct {
	Path           string            `json:"path"`                   // Key of the file in the supplied contents
	Dialect        Dialect           `json:"dialect"`                // Grammar the file was parsed with
	Namespace      string            `json:"namespace"`              // Namespace as declared, empty if absent
	UnifyNamespace string            `json:"unifyNamespace"`         // Canonical namespace used in resolved names
	Syntax         string            `json:"syntax,omitempty"`       // Protobuf syntax level
	Includes       []string          `json:"includes"`               // Include or import paths as written
	IncludeRefer   map[string]string `json:"includeRefer"`           // Include path as written -> alias
	Options        []*Annotation     `json:"options,omitempty"`      // File level options
	Statements     []Statement       `json:"statements"`             // Statements in source order
}

// Statement is one top-level declaration of a Document
type Statement interface {
	Loc() Location
	statementNode()
}

// Location is a 1-based source position
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (l Location) Loc() Location { return l }

// NamespaceDeclaration represents `namespace <scope> <name>` or `package <name>;`
type NamespaceDeclaration struct {
	Location
	Scope string `json:"scope"` // Target language scope, "proto" for packages
	Name  string `json:"name"`  // Dotted namespace
}

// IncludeDeclaration represents `include "x.thrift"` or `import "x.proto";`
type IncludeDeclaration struct {
	Location
	Path     string `json:"path"`               // Path as written
	Alias    string `json:"alias"`              // Local name other statements use for this file
	Public   bool   `json:"public,omitempty"`   // Protobuf public import
	Weak     bool   `json:"weak,omitempty"`     // Protobuf weak import
	Resolved string `json:"resolved,omitempty"` // Key of the included file in the supplied contents
}

// StructKind distinguishes the struct-like declarations
type StructKind string

const (
	KindStruct    StructKind = "struct"
	KindUnion     StructKind = "union"
	KindException StructKind = "exception"
	KindMessage   StructKind = "message"
)

// StructDefinition represents a Thrift struct, union, exception or a Protobuf message
type StructDefinition struct {
	Location
	Kind        StructKind         `json:"kind"`
	Name        *Identifier        `json:"name"`
	Fields      []*FieldDefinition `json:"fields"`
	Nested      []Statement        `json:"nested,omitempty"` // Protobuf nested messages and enums
	Comments    []Comment          `json:"comments"`
	Annotations []*Annotation      `json:"annotations,omitempty"`
}

// EnumDefinition represents an enum
type EnumDefinition struct {
	Location
	Name        *Identifier   `json:"name"`
	Members     []*EnumMember `json:"members"`
	Comments    []Comment     `json:"comments"`
	Annotations []*Annotation `json:"annotations,omitempty"`
}

// EnumMember represents a value in an enum
type EnumMember struct {
	Location
	Name        string        `json:"name"`
	Value       *int64        `json:"value,omitempty"` // Nil when the Thrift member has no initializer
	Comments    []Comment     `json:"comments"`
	Annotations []*Annotation `json:"annotations,omitempty"`
}

// TypedefDefinition represents a Thrift typedef
type TypedefDefinition struct {
	Location
	Name           *Identifier   `json:"name"`
	DefinitionType FieldType     `json:"definitionType"`
	Comments       []Comment     `json:"comments"`
	Annotations    []*Annotation `json:"annotations,omitempty"`
}

// ConstDefinition represents a Thrift constant
type ConstDefinition struct {
	Location
	Name        *Identifier   `json:"name"`
	FieldType   FieldType     `json:"fieldType"`
	Initializer ConstValue    `json:"initializer"`
	Comments    []Comment     `json:"comments"`
	Annotations []*Annotation `json:"annotations,omitempty"`
}

// ServiceDefinition is a container of functions
type ServiceDefinition struct {
	Location
	Name            *Identifier           `json:"name"`
	Extends         *Identifier           `json:"extends,omitempty"`
	Functions       []*FunctionDefinition `json:"functions"`
	Comments        []Comment             `json:"comments"`
	Annotations     []*Annotation         `json:"annotations,omitempty"`
	ExtensionConfig map[string]string     `json:"extensionConfig"`
}

// FunctionDefinition represents both a Thrift function and a Protobuf rpc method
type FunctionDefinition struct {
	Location
	Name            *Identifier        `json:"name"`
	Oneway          bool               `json:"oneway,omitempty"`
	ReturnType      FieldType          `json:"returnType"`
	Fields          []*FieldDefinition `json:"fields"` // Request parameters
	Throws          []*FieldDefinition `json:"throws,omitempty"`
	ClientStreaming bool               `json:"clientStreaming,omitempty"`
	ServerStreaming bool               `json:"serverStreaming,omitempty"`
	Comments        []Comment          `json:"comments"`
	Annotations     []*Annotation      `json:"annotations,omitempty"` // Raw dialect annotations in declared order
	ExtensionConfig map[string]string  `json:"extensionConfig"`       // Normalized annotations, never nil
}

// FieldDefinition represents a struct field or a function parameter
type FieldDefinition struct {
	Location
	ID              int               `json:"id"`
	Name            string            `json:"name"`
	Requiredness    string            `json:"requiredness,omitempty"` // "required", "optional" or empty
	FieldType       FieldType         `json:"fieldType"`
	DefaultValue    ConstValue        `json:"defaultValue,omitempty"`
	Comments        []Comment         `json:"comments"`
	Annotations     []*Annotation     `json:"annotations,omitempty"`
	ExtensionConfig map[string]string `json:"extensionConfig"`
}

// Annotation is one raw key/value pair as written in the source
type Annotation struct {
	Location
	Key      string    `json:"key"`
	Value    string    `json:"value"`
	Comments []Comment `json:"comments,omitempty"`
}

// FieldType is the type of a field, a return value or a typedef
type FieldType interface {
	fieldTypeNode()
}

// BaseType is a primitive marker such as i32 or string
type BaseType struct {
	Name string `json:"name"`
}

// Identifier is a reference to a named declaration.
//
// Value is the text as written in the source. NamespaceValue equals Value
// until the resolver qualifies it with the canonical namespace of the
// declaring file and sets Resolved.
type Identifier struct {
	Location
	Value          string `json:"value"`
	NamespaceValue string `json:"namespaceValue"`
	Resolved       bool   `json:"-"`
}

// ListType represents list<T> and Protobuf repeated fields
type ListType struct {
	ValueType FieldType `json:"valueType"`
}

// SetType represents set<T>
type SetType struct {
	ValueType FieldType `json:"valueType"`
}

// MapType represents map<K,V>
type MapType struct {
	KeyType   FieldType `json:"keyType"`
	ValueType FieldType `json:"valueType"`
}

// ConstValue is the initializer of a constant or a field default
type ConstValue interface {
	constValueNode()
}

// LiteralKind classifies a ConstLiteral
type LiteralKind string

const (
	LiteralInt    LiteralKind = "int"
	LiteralDouble LiteralKind = "double"
	LiteralString LiteralKind = "string"
	LiteralBool   LiteralKind = "bool"
)

// ConstLiteral is a scalar constant as written
type ConstLiteral struct {
	Kind  LiteralKind `json:"kind"`
	Value string      `json:"value"`
}

// ConstList is `[a, b]`
type ConstList struct {
	Elements []ConstValue `json:"elements"`
}

// ConstMap is `{k: v}`
type ConstMap struct {
	Properties []*ConstProperty `json:"properties"`
}

// ConstProperty is one entry of a ConstMap
type ConstProperty struct {
	Key   ConstValue `json:"key"`
	Value ConstValue `json:"value"`
}

// Comment is a LineComment or a BlockComment
type Comment interface {
	commentNode()
}

// LineComment is a `//` or `#` comment
type LineComment struct {
	Location
	Value string `json:"value"`
}

// BlockComment is a `/* */` comment, one entry per physical line
type BlockComment struct {
	Location
	Value []string `json:"value"`
}

// NewIdentifier returns an unresolved identifier
func NewIdentifier(value string, loc Location) *Identifier {
	return &Identifier{Location: loc, Value: value, NamespaceValue: value}
}

// Resolve sets the canonical namespace qualified name
func (i *Identifier) Resolve(namespaceValue string) {
	i.NamespaceValue = namespaceValue
	i.Resolved = true
}

func (*NamespaceDeclaration) statementNode() {}
func (*IncludeDeclaration) statementNode()   {}
func (*StructDefinition) statementNode()     {}
func (*EnumDefinition) statementNode()       {}
func (*TypedefDefinition) statementNode()    {}
func (*ConstDefinition) statementNode()      {}
func (*ServiceDefinition) statementNode()    {}

func (*BaseType) fieldTypeNode()   {}
func (*Identifier) fieldTypeNode() {}
func (*ListType) fieldTypeNode()   {}
func (*SetType) fieldTypeNode()    {}
func (*MapType) fieldTypeNode()    {}

func (*ConstLiteral) constValueNode() {}
func (*Identifier) constValueNode()   {}
func (*ConstList) constValueNode()    {}
func (*ConstMap) constValueNode()     {}

func (*LineComment) commentNode()  {}
func (*BlockComment) commentNode() {}
