// Package thrift is the Thrift dialect front-end. It turns one .thrift file
// into a local unify.Document whose identifiers are not yet resolved.
package thrift

import (
	"errors"
	"path"
	"strconv"
	"strings"

	"github.com/hertz-contrib/swagger-generate/idlunify/scanner"
	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
	"github.com/hertz-contrib/swagger-generate/idlunify/utils"
)

// Extension is the file extension handled by this front-end
const Extension = ".thrift"

var scanConfig = scanner.Config{HashComments: true, DottedIdents: true}

var baseTypes = map[string]bool{
	"bool":   true,
	"byte":   true,
	"i8":     true,
	"i16":    true,
	"i32":    true,
	"i64":    true,
	"double": true,
	"string": true,
	"binary": true,
	"uuid":   true,
	"void":   true,
}

// namespace scopes whose value is used verbatim, in order of preference
var preferredScopes = []string{"js", "go", "py", "*"}

type parser struct {
	c          *scanner.Cursor
	doc        *unify.Document
	namespaces []*unify.NamespaceDeclaration
}

// ParseFile parses Thrift source into a local document
func ParseFile(filePath, src string) (*unify.Document, error) {
	toks, err := scanner.Tokenize(src, scanConfig)
	if err != nil {
		var lexErr *scanner.Error
		if errors.As(err, &lexErr) {
			return nil, &unify.SyntaxError{Path: filePath, Line: lexErr.Line, Column: lexErr.Col, Message: lexErr.Msg}
		}
		return nil, err
	}

	p := &parser{
		c: scanner.NewCursor(filePath, toks),
		doc: &unify.Document{
			Path:         filePath,
			Dialect:      unify.DialectThrift,
			Includes:     []string{},
			IncludeRefer: map[string]string{},
			Statements:   []unify.Statement{},
		},
	}

	for !p.c.Is(scanner.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			p.doc.Statements = append(p.doc.Statements, stmt)
		}
	}

	if err := p.selectNamespace(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// selectNamespace picks the namespace used to qualify this file's types
func (p *parser) selectNamespace() error {
	if len(p.namespaces) == 0 {
		p.doc.UnifyNamespace = unify.DefaultNamespace
		return nil
	}

	byScope := make(map[string]*unify.NamespaceDeclaration, len(p.namespaces))
	for _, ns := range p.namespaces {
		byScope[ns.Scope] = ns
	}

	for _, scope := range preferredScopes {
		if ns, ok := byScope[scope]; ok {
			p.doc.Namespace = ns.Name
			p.doc.UnifyNamespace = utils.UnifyNamespace(ns.Name)
			return nil
		}
	}
	if ns, ok := byScope["java"]; ok {
		parts := strings.Split(ns.Name, ".")
		p.doc.Namespace = parts[len(parts)-1]
		p.doc.UnifyNamespace = utils.UnifyNamespace(p.doc.Namespace)
		return nil
	}

	first := p.namespaces[0]
	return &unify.SyntaxError{
		Path:    p.doc.Path,
		Line:    first.Line,
		Column:  first.Column,
		Message: "a js namespace should be specified",
	}
}

func (p *parser) parseStatement() (unify.Statement, error) {
	comments := p.c.Leading()
	if p.c.Is(scanner.EOF) {
		return nil, nil
	}

	tok := p.c.Peek()
	if tok.Type != scanner.IDENT {
		return nil, p.c.Unexpected(tok, "a definition")
	}

	switch tok.Text {
	case "include":
		return p.parseInclude()
	case "cpp_include":
		p.c.Next()
		if _, err := p.c.Expect(scanner.STRING, "cpp_include must have a path"); err != nil {
			return nil, err
		}
		return nil, nil
	case "namespace":
		return p.parseNamespace()
	case "typedef":
		return p.parseTypedef(comments)
	case "const":
		return p.parseConst(comments)
	case "enum":
		return p.parseEnum(comments)
	case "struct", "union", "exception":
		return p.parseStruct(comments)
	case "service":
		return p.parseService(comments)
	}
	return nil, p.c.Unexpected(tok, "a definition")
}

func (p *parser) parseInclude() (unify.Statement, error) {
	kw := p.c.Next()
	tok, err := p.c.Expect(scanner.STRING, "Include must have a path")
	if err != nil {
		return nil, err
	}
	alias := strings.TrimSuffix(path.Base(tok.Value), Extension)
	p.doc.Includes = append(p.doc.Includes, tok.Value)
	p.doc.IncludeRefer[tok.Value] = alias
	p.acceptSeparator()
	p.c.Trailing(nil)
	return &unify.IncludeDeclaration{Location: scanner.Loc(kw), Path: tok.Value, Alias: alias}, nil
}

func (p *parser) parseNamespace() (unify.Statement, error) {
	kw := p.c.Next()
	scopeTok := p.c.Next()
	if scopeTok.Type != scanner.IDENT && scopeTok.Type != scanner.STAR {
		return nil, p.c.Errorf(scopeTok, "Namespace must have a scope")
	}
	nameTok := p.c.Next()
	name := nameTok.Text
	switch nameTok.Type {
	case scanner.IDENT:
	case scanner.STRING:
		name = nameTok.Value
	default:
		return nil, p.c.Errorf(nameTok, "Namespace must have a name")
	}
	p.acceptSeparator()
	p.c.Trailing(nil)
	ns := &unify.NamespaceDeclaration{Location: scanner.Loc(kw), Scope: scopeTok.Text, Name: name}
	p.namespaces = append(p.namespaces, ns)
	return ns, nil
}

func (p *parser) parseTypedef(comments []unify.Comment) (unify.Statement, error) {
	kw := p.c.Next()
	defType, err := p.parseFieldType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.c.Expect(scanner.IDENT, "Typedef must have an identifier")
	if err != nil {
		return nil, err
	}
	annotations, err := p.parseAnnotations()
	if err != nil {
		return nil, err
	}
	p.acceptSeparator()
	return &unify.TypedefDefinition{
		Location:       scanner.Loc(kw),
		Name:           unify.NewIdentifier(nameTok.Text, scanner.Loc(nameTok)),
		DefinitionType: defType,
		Comments:       p.c.Trailing(comments),
		Annotations:    annotations,
	}, nil
}

func (p *parser) parseConst(comments []unify.Comment) (unify.Statement, error) {
	kw := p.c.Next()
	fieldType, err := p.parseFieldType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.c.Expect(scanner.IDENT, "Const must have an identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Expect(scanner.ASSIGN, "Const must have an initializer"); err != nil {
		return nil, err
	}
	value, err := p.parseConstValue()
	if err != nil {
		return nil, err
	}
	annotations, err := p.parseAnnotations()
	if err != nil {
		return nil, err
	}
	p.acceptSeparator()
	return &unify.ConstDefinition{
		Location:    scanner.Loc(kw),
		Name:        unify.NewIdentifier(nameTok.Text, scanner.Loc(nameTok)),
		FieldType:   fieldType,
		Initializer: value,
		Comments:    p.c.Trailing(comments),
		Annotations: annotations,
	}, nil
}

func (p *parser) parseEnum(comments []unify.Comment) (unify.Statement, error) {
	kw := p.c.Next()
	nameTok, err := p.c.Expect(scanner.IDENT, "Enum must have an identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Expect(scanner.LBRACE, "Enum must have a body"); err != nil {
		return nil, err
	}

	enum := &unify.EnumDefinition{
		Location: scanner.Loc(kw),
		Name:     unify.NewIdentifier(nameTok.Text, scanner.Loc(nameTok)),
		Members:  []*unify.EnumMember{},
	}
	for {
		memberComments := p.c.Leading()
		if p.c.Accept(scanner.RBRACE) {
			break
		}
		member, err := p.parseEnumMember(memberComments)
		if err != nil {
			return nil, err
		}
		enum.Members = append(enum.Members, member)
	}

	if enum.Annotations, err = p.parseAnnotations(); err != nil {
		return nil, err
	}
	p.acceptSeparator()
	enum.Comments = p.c.Trailing(comments)
	return enum, nil
}

func (p *parser) parseEnumMember(comments []unify.Comment) (*unify.EnumMember, error) {
	nameTok, err := p.c.Expect(scanner.IDENT, "EnumMember must have an identifier")
	if err != nil {
		return nil, err
	}
	member := &unify.EnumMember{Location: scanner.Loc(nameTok), Name: nameTok.Text}
	if p.c.Accept(scanner.ASSIGN) {
		valueTok, err := p.c.Expect(scanner.INT, "EnumMember initializer must be an integer")
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(valueTok.Text, 0, 64)
		if err != nil {
			return nil, p.c.Errorf(valueTok, "invalid enum value %s", valueTok.Text)
		}
		member.Value = &v
	}
	if member.Annotations, err = p.parseAnnotations(); err != nil {
		return nil, err
	}
	p.acceptSeparator()
	member.Comments = p.c.Trailing(comments)
	return member, nil
}

func (p *parser) parseStruct(comments []unify.Comment) (unify.Statement, error) {
	kw := p.c.Next()
	nameTok := p.c.Peek()
	if nameTok.Type != scanner.IDENT {
		return nil, p.c.Errorf(nameTok, "Struct-like must have an identifier")
	}
	p.c.Next()
	p.c.AcceptIdent("xsd_all")

	if _, err := p.c.Expect(scanner.LBRACE, "Struct-like must have a body"); err != nil {
		return nil, err
	}

	fields, err := p.parseFieldList(scanner.RBRACE)
	if err != nil {
		return nil, err
	}
	annotations, err := p.parseAnnotations()
	if err != nil {
		return nil, err
	}
	p.acceptSeparator()

	return &unify.StructDefinition{
		Location:    scanner.Loc(kw),
		Kind:        unify.StructKind(kw.Text),
		Name:        unify.NewIdentifier(nameTok.Text, scanner.Loc(nameTok)),
		Fields:      fields,
		Comments:    p.c.Trailing(comments),
		Annotations: annotations,
	}, nil
}

// parseFieldList parses fields up to and including closer
func (p *parser) parseFieldList(closer scanner.TokenType) ([]*unify.FieldDefinition, error) {
	fields := []*unify.FieldDefinition{}
	for {
		comments := p.c.Leading()
		if p.c.Accept(closer) {
			return fields, nil
		}
		field, err := p.parseField(comments, len(fields))
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
}

func (p *parser) parseField(comments []unify.Comment, index int) (*unify.FieldDefinition, error) {
	start := p.c.Peek()
	field := &unify.FieldDefinition{
		Location:        scanner.Loc(start),
		ID:              -(index + 1),
		ExtensionConfig: map[string]string{},
	}

	if start.Type == scanner.INT {
		p.c.Next()
		id, err := strconv.ParseInt(start.Text, 0, 32)
		if err != nil {
			return nil, p.c.Errorf(start, "invalid field id %s", start.Text)
		}
		field.ID = int(id)
		if _, err := p.c.Expect(scanner.COLON, "FieldID must be followed by ':'"); err != nil {
			return nil, err
		}
	}

	if p.c.IsIdent("required", "optional") {
		field.Requiredness = p.c.Next().Text
	}

	var err error
	if field.FieldType, err = p.parseFieldType(); err != nil {
		return nil, err
	}
	nameTok, err := p.c.Expect(scanner.IDENT, "Field must have an identifier")
	if err != nil {
		return nil, err
	}
	field.Name = nameTok.Text

	if p.c.Accept(scanner.ASSIGN) {
		if field.DefaultValue, err = p.parseConstValue(); err != nil {
			return nil, err
		}
	}
	if field.Annotations, err = p.parseAnnotations(); err != nil {
		return nil, err
	}
	p.acceptSeparator()
	field.Comments = p.c.Trailing(comments)
	return field, nil
}

func (p *parser) parseService(comments []unify.Comment) (unify.Statement, error) {
	kw := p.c.Next()
	nameTok := p.c.Peek()
	if nameTok.Type != scanner.IDENT {
		return nil, p.c.Errorf(nameTok, "Service must have an identifier")
	}
	p.c.Next()

	service := &unify.ServiceDefinition{
		Location:        scanner.Loc(kw),
		Name:            unify.NewIdentifier(nameTok.Text, scanner.Loc(nameTok)),
		Functions:       []*unify.FunctionDefinition{},
		ExtensionConfig: map[string]string{},
	}
	if p.c.AcceptIdent("extends") {
		extTok, err := p.c.Expect(scanner.IDENT, "Service must extend an identifier")
		if err != nil {
			return nil, err
		}
		service.Extends = unify.NewIdentifier(extTok.Text, scanner.Loc(extTok))
	}

	if _, err := p.c.Expect(scanner.LBRACE, "Service must have a body"); err != nil {
		return nil, err
	}
	for {
		funcComments := p.c.Leading()
		if p.c.Accept(scanner.RBRACE) {
			break
		}
		fn, err := p.parseFunction(funcComments)
		if err != nil {
			return nil, err
		}
		service.Functions = append(service.Functions, fn)
	}

	var err error
	if service.Annotations, err = p.parseAnnotations(); err != nil {
		return nil, err
	}
	p.acceptSeparator()
	service.Comments = p.c.Trailing(comments)
	return service, nil
}

func (p *parser) parseFunction(comments []unify.Comment) (*unify.FunctionDefinition, error) {
	start := p.c.Peek()
	fn := &unify.FunctionDefinition{
		Location:        scanner.Loc(start),
		Throws:          []*unify.FieldDefinition{},
		ExtensionConfig: map[string]string{},
	}
	fn.Oneway = p.c.AcceptIdent("oneway")

	var err error
	if fn.ReturnType, err = p.parseFieldType(); err != nil {
		return nil, err
	}
	nameTok, err := p.c.Expect(scanner.IDENT, "Function must have an identifier")
	if err != nil {
		return nil, err
	}
	fn.Name = unify.NewIdentifier(nameTok.Text, scanner.Loc(nameTok))

	if _, err := p.c.Expect(scanner.LPAREN, "Function must have a parameter list"); err != nil {
		return nil, err
	}
	if fn.Fields, err = p.parseFieldList(scanner.RPAREN); err != nil {
		return nil, err
	}
	if p.c.AcceptIdent("throws") {
		if _, err := p.c.Expect(scanner.LPAREN, "Throws must have a field list"); err != nil {
			return nil, err
		}
		if fn.Throws, err = p.parseFieldList(scanner.RPAREN); err != nil {
			return nil, err
		}
	}
	if fn.Annotations, err = p.parseAnnotations(); err != nil {
		return nil, err
	}
	p.acceptSeparator()
	fn.Comments = p.c.Trailing(comments)
	return fn, nil
}

func (p *parser) parseFieldType() (unify.FieldType, error) {
	tok := p.c.Peek()
	if tok.Type != scanner.IDENT {
		return nil, p.c.Unexpected(tok, "a field type")
	}
	p.c.Next()

	var fieldType unify.FieldType
	switch tok.Text {
	case "list", "set":
		if _, err := p.c.Expect(scanner.LANGLE, "Container type must be followed by '<'"); err != nil {
			return nil, err
		}
		valueType, err := p.parseFieldType()
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Expect(scanner.RANGLE, "Container type must be closed by '>'"); err != nil {
			return nil, err
		}
		if tok.Text == "list" {
			fieldType = &unify.ListType{ValueType: valueType}
		} else {
			fieldType = &unify.SetType{ValueType: valueType}
		}
	case "map":
		if _, err := p.c.Expect(scanner.LANGLE, "Map type must be followed by '<'"); err != nil {
			return nil, err
		}
		keyType, err := p.parseFieldType()
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Expect(scanner.COMMA, "Map type must separate key and value with ','"); err != nil {
			return nil, err
		}
		valueType, err := p.parseFieldType()
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Expect(scanner.RANGLE, "Map type must be closed by '>'"); err != nil {
			return nil, err
		}
		fieldType = &unify.MapType{KeyType: keyType, ValueType: valueType}
	default:
		if baseTypes[tok.Text] {
			fieldType = &unify.BaseType{Name: tok.Text}
		} else {
			fieldType = unify.NewIdentifier(tok.Text, scanner.Loc(tok))
		}
	}

	// type annotations such as list<string> (go.type = "x") carry no meaning here
	if _, err := p.parseAnnotations(); err != nil {
		return nil, err
	}
	return fieldType, nil
}

// parseAnnotations parses an optional `(k = "v", ...)` list
func (p *parser) parseAnnotations() ([]*unify.Annotation, error) {
	if !p.c.Is(scanner.LPAREN) {
		return nil, nil
	}
	p.c.Next()

	annotations := []*unify.Annotation{}
	for !p.c.Accept(scanner.RPAREN) {
		keyTok, err := p.c.Expect(scanner.IDENT, "Annotation must have a key")
		if err != nil {
			return nil, err
		}
		annotation := &unify.Annotation{Location: scanner.Loc(keyTok), Key: keyTok.Text}
		if p.c.Accept(scanner.ASSIGN) {
			valueTok := p.c.Next()
			switch valueTok.Type {
			case scanner.STRING:
				annotation.Value = valueTok.Value
			case scanner.INT, scanner.FLOAT, scanner.IDENT:
				annotation.Value = valueTok.Text
			default:
				return nil, p.c.Unexpected(valueTok, "an annotation value")
			}
		}
		annotations = append(annotations, annotation)
		p.acceptSeparator()
	}
	return annotations, nil
}

func (p *parser) parseConstValue() (unify.ConstValue, error) {
	tok := p.c.Next()
	switch tok.Type {
	case scanner.INT:
		return &unify.ConstLiteral{Kind: unify.LiteralInt, Value: tok.Text}, nil
	case scanner.FLOAT:
		return &unify.ConstLiteral{Kind: unify.LiteralDouble, Value: tok.Text}, nil
	case scanner.STRING:
		return &unify.ConstLiteral{Kind: unify.LiteralString, Value: tok.Value}, nil
	case scanner.IDENT:
		if tok.Text == "true" || tok.Text == "false" {
			return &unify.ConstLiteral{Kind: unify.LiteralBool, Value: tok.Text}, nil
		}
		return unify.NewIdentifier(tok.Text, scanner.Loc(tok)), nil
	case scanner.LBRACKET:
		list := &unify.ConstList{Elements: []unify.ConstValue{}}
		for !p.c.Accept(scanner.RBRACKET) {
			elem, err := p.parseConstValue()
			if err != nil {
				return nil, err
			}
			list.Elements = append(list.Elements, elem)
			p.acceptSeparator()
		}
		return list, nil
	case scanner.LBRACE:
		m := &unify.ConstMap{Properties: []*unify.ConstProperty{}}
		for !p.c.Accept(scanner.RBRACE) {
			key, err := p.parseConstValue()
			if err != nil {
				return nil, err
			}
			if _, err := p.c.Expect(scanner.COLON, "Map entry must separate key and value with ':'"); err != nil {
				return nil, err
			}
			value, err := p.parseConstValue()
			if err != nil {
				return nil, err
			}
			m.Properties = append(m.Properties, &unify.ConstProperty{Key: key, Value: value})
			p.acceptSeparator()
		}
		return m, nil
	}
	return nil, p.c.Unexpected(tok, "a constant value")
}

func (p *parser) acceptSeparator() {
	if !p.c.Accept(scanner.COMMA) {
		p.c.Accept(scanner.SEMICOLON)
	}
}
