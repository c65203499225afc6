// Package protobuf is the Protocol Buffers dialect front-end. It turns one
// .proto file into a local unify.Document whose identifiers are not yet
// resolved.
package protobuf

import (
	"errors"
	"strconv"
	"strings"

	"github.com/hertz-contrib/swagger-generate/idlunify/scanner"
	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
	"github.com/hertz-contrib/swagger-generate/idlunify/utils"
)

// Extension is the file extension handled by this front-end
const Extension = ".proto"

// PackageScope is the NamespaceDeclaration scope used for `package`
const PackageScope = "proto"

var scanConfig = scanner.Config{DottedIdents: true}

// scalar types mapped onto the shared primitive markers
var baseTypeConvertMap = map[string]string{
	"int32":    "i32",
	"uint32":   "i32",
	"sint32":   "i32",
	"fixed32":  "i32",
	"sfixed32": "i32",
	"int64":    "i64",
	"uint64":   "i64",
	"sint64":   "i64",
	"fixed64":  "i64",
	"sfixed64": "i64",
	"string":   "string",
	"double":   "double",
	"float":    "double",
	"bool":     "bool",
	"bytes":    "binary",
}

type parser struct {
	c      *scanner.Cursor
	doc    *unify.Document
	proto3 bool
}

// ParseFile parses Protobuf source into a local document
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
			Path:           filePath,
			Dialect:        unify.DialectProtobuf,
			UnifyNamespace: unify.DefaultNamespace,
			Includes:       []string{},
			IncludeRefer:   map[string]string{},
			Statements:     []unify.Statement{},
		},
	}

	for !p.c.Is(scanner.EOF) {
		stmt, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			p.doc.Statements = append(p.doc.Statements, stmt)
		}
	}
	return p.doc, nil
}

func (p *parser) parseTopLevel() (unify.Statement, error) {
	comments := p.c.Leading()
	if p.c.Is(scanner.EOF) {
		return nil, nil
	}
	if p.c.Accept(scanner.SEMICOLON) {
		return nil, nil
	}

	tok := p.c.Peek()
	if tok.Type != scanner.IDENT {
		return nil, p.c.Unexpected(tok, "a top-level statement")
	}

	switch tok.Text {
	case "syntax", "edition":
		return nil, p.parseSyntax()
	case "package":
		return p.parsePackage()
	case "import":
		return p.parseImport()
	case "option":
		option, err := p.parseOptionStatement(comments)
		if err != nil {
			return nil, err
		}
		p.doc.Options = append(p.doc.Options, option)
		return nil, nil
	case "message":
		return p.parseMessage(comments)
	case "enum":
		return p.parseEnum(comments)
	case "service":
		return p.parseService(comments)
	case "extend":
		return nil, p.skipExtend()
	}
	return nil, p.c.Unexpected(tok, "a top-level statement")
}

func (p *parser) parseSyntax() error {
	p.c.Next()
	if _, err := p.c.Expect(scanner.ASSIGN, "illegal token, '=' expected"); err != nil {
		return err
	}
	tok, err := p.c.Expect(scanner.STRING, "syntax must be a string")
	if err != nil {
		return err
	}
	p.doc.Syntax = tok.Value
	p.proto3 = tok.Value == "proto3"
	return p.expectSemicolon()
}

func (p *parser) parsePackage() (unify.Statement, error) {
	kw := p.c.Next()
	name, err := p.parseFullIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	p.c.Trailing(nil)
	p.doc.Namespace = name
	p.doc.UnifyNamespace = utils.UnifyNamespace(name)
	return &unify.NamespaceDeclaration{Location: scanner.Loc(kw), Scope: PackageScope, Name: name}, nil
}

func (p *parser) parseImport() (unify.Statement, error) {
	kw := p.c.Next()
	decl := &unify.IncludeDeclaration{Location: scanner.Loc(kw)}
	switch {
	case p.c.AcceptIdent("public"):
		decl.Public = true
	case p.c.AcceptIdent("weak"):
		decl.Weak = true
	}
	tok, err := p.c.Expect(scanner.STRING, "import must have a path")
	if err != nil {
		return nil, err
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	p.c.Trailing(nil)

	decl.Path = tok.Value
	decl.Alias = utils.FileAlias(tok.Value)
	p.doc.Includes = append(p.doc.Includes, tok.Value)
	p.doc.IncludeRefer[tok.Value] = decl.Alias
	return decl, nil
}

// parseFullIdent parses `a.b.c`, optionally with a leading dot
func (p *parser) parseFullIdent() (string, error) {
	prefix := ""
	if p.c.Accept(scanner.DOT) {
		prefix = "."
	}
	tok, err := p.c.Expect(scanner.IDENT, "identifier expected")
	if err != nil {
		return "", p.c.Unexpected(tok, "an identifier")
	}
	return prefix + tok.Text, nil
}

// parseOptionName parses `deprecated`, `(api.get)` or `(api_method).get`
func (p *parser) parseOptionName() (string, error) {
	var sb strings.Builder
	tok := p.c.Peek()
	switch tok.Type {
	case scanner.LPAREN:
		p.c.Next()
		name, err := p.parseFullIdent()
		if err != nil {
			return "", err
		}
		if _, err := p.c.Expect(scanner.RPAREN, "option name must be closed by ')'"); err != nil {
			return "", err
		}
		sb.WriteString("(" + name + ")")
	case scanner.IDENT:
		p.c.Next()
		sb.WriteString(tok.Text)
	default:
		return "", p.c.Unexpected(tok, "an option name")
	}

	for p.c.Is(scanner.DOT) {
		p.c.Next()
		sub, err := p.c.Expect(scanner.IDENT, "option name expected")
		if err != nil {
			return "", err
		}
		sb.WriteString("." + sub.Text)
	}
	return sb.String(), nil
}

// parseOptionValue returns strings unquoted, scalars as written and
// aggregate `{...}` values as their space separated tokens
func (p *parser) parseOptionValue() (string, error) {
	tok := p.c.Next()
	switch tok.Type {
	case scanner.STRING:
		value := tok.Value
		// adjacent string literals concatenate
		for p.c.Is(scanner.STRING) {
			value += p.c.Next().Value
		}
		return value, nil
	case scanner.INT, scanner.FLOAT, scanner.IDENT:
		return tok.Text, nil
	case scanner.LBRACE:
		parts := []string{"{"}
		depth := 1
		for depth > 0 {
			t := p.c.Next()
			switch t.Type {
			case scanner.EOF:
				return "", p.c.Unexpected(t, "'}'")
			case scanner.LBRACE:
				depth++
			case scanner.RBRACE:
				depth--
			}
			parts = append(parts, t.Text)
		}
		return strings.Join(parts, " "), nil
	}
	return "", p.c.Unexpected(tok, "an option value")
}

func (p *parser) parseOption() (*unify.Annotation, error) {
	start := p.c.Peek()
	name, err := p.parseOptionName()
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Expect(scanner.ASSIGN, "illegal token, '=' expected"); err != nil {
		return nil, err
	}
	value, err := p.parseOptionValue()
	if err != nil {
		return nil, err
	}
	return &unify.Annotation{Location: scanner.Loc(start), Key: name, Value: value}, nil
}

// parseOptionStatement parses `option name = value;`. Leading and same
// line comments belong to the option.
func (p *parser) parseOptionStatement(comments []unify.Comment) (*unify.Annotation, error) {
	p.c.Next()
	option, err := p.parseOption()
	if err != nil {
		return nil, err
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	if comments = p.c.Trailing(comments); len(comments) > 0 {
		option.Comments = comments
	}
	return option, nil
}

// parseFieldOptions parses an optional `[a = b, (c) = d]`
func (p *parser) parseFieldOptions() ([]*unify.Annotation, error) {
	if !p.c.Accept(scanner.LBRACKET) {
		return nil, nil
	}
	options := []*unify.Annotation{}
	for {
		option, err := p.parseOption()
		if err != nil {
			return nil, err
		}
		options = append(options, option)
		if p.c.Accept(scanner.RBRACKET) {
			return options, nil
		}
		if _, err := p.c.Expect(scanner.COMMA, "illegal token, ',' expected"); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseType() (unify.FieldType, error) {
	start := p.c.Peek()
	name, err := p.parseFullIdent()
	if err != nil {
		return nil, err
	}
	if base, ok := baseTypeConvertMap[name]; ok {
		return &unify.BaseType{Name: base}, nil
	}
	return unify.NewIdentifier(name, scanner.Loc(start)), nil
}

func (p *parser) parseMessage(comments []unify.Comment) (*unify.StructDefinition, error) {
	kw := p.c.Next()
	nameTok, err := p.c.Expect(scanner.IDENT, "message must have a name")
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Expect(scanner.LBRACE, "illegal token, '{' expected"); err != nil {
		return nil, err
	}

	msg := &unify.StructDefinition{
		Location: scanner.Loc(kw),
		Kind:     unify.KindMessage,
		Name:     unify.NewIdentifier(nameTok.Text, scanner.Loc(nameTok)),
		Fields:   []*unify.FieldDefinition{},
	}
	if err := p.parseMessageBody(msg, false); err != nil {
		return nil, err
	}
	p.c.Accept(scanner.SEMICOLON)
	msg.Comments = p.c.Trailing(comments)
	return msg, nil
}

// parseMessageBody parses message elements up to and including the closing
// brace. Fields of a oneof are flattened into msg.
func (p *parser) parseMessageBody(msg *unify.StructDefinition, inOneof bool) error {
	for {
		comments := p.c.Leading()
		if p.c.Accept(scanner.RBRACE) {
			return nil
		}
		if p.c.Accept(scanner.SEMICOLON) {
			continue
		}

		tok := p.c.Peek()
		if tok.Type == scanner.EOF {
			return p.c.Unexpected(tok, "'}'")
		}

		switch {
		case tok.Type == scanner.IDENT && tok.Text == "option":
			option, err := p.parseOptionStatement(comments)
			if err != nil {
				return err
			}
			msg.Annotations = append(msg.Annotations, option)
		case inOneof:
			field, err := p.parseField(comments)
			if err != nil {
				return err
			}
			field.Requiredness = "optional"
			msg.Fields = append(msg.Fields, field)
		case tok.Type == scanner.IDENT && tok.Text == "message" && p.c.PeekN(1).Type == scanner.IDENT:
			nested, err := p.parseMessage(comments)
			if err != nil {
				return err
			}
			msg.Nested = append(msg.Nested, nested)
		case tok.Type == scanner.IDENT && tok.Text == "enum" && p.c.PeekN(1).Type == scanner.IDENT:
			nested, err := p.parseEnum(comments)
			if err != nil {
				return err
			}
			msg.Nested = append(msg.Nested, nested)
		case tok.Type == scanner.IDENT && tok.Text == "oneof" && p.c.PeekN(1).Type == scanner.IDENT:
			p.c.Next()
			p.c.Next()
			if _, err := p.c.Expect(scanner.LBRACE, "illegal token, '{' expected"); err != nil {
				return err
			}
			if err := p.parseMessageBody(msg, true); err != nil {
				return err
			}
		case tok.Type == scanner.IDENT && (tok.Text == "reserved" || tok.Text == "extensions") && p.c.PeekN(1).Type != scanner.IDENT:
			if err := p.skipStatement(); err != nil {
				return err
			}
		case tok.Type == scanner.IDENT && tok.Text == "extend" && p.c.PeekN(2).Type == scanner.LBRACE:
			if err := p.skipExtend(); err != nil {
				return err
			}
		case tok.Type == scanner.IDENT && tok.Text == "map" && p.c.PeekN(1).Type == scanner.LANGLE:
			field, err := p.parseMapField(comments)
			if err != nil {
				return err
			}
			msg.Fields = append(msg.Fields, field)
		default:
			field, err := p.parseField(comments)
			if err != nil {
				return err
			}
			msg.Fields = append(msg.Fields, field)
		}
	}
}

func (p *parser) parseField(comments []unify.Comment) (*unify.FieldDefinition, error) {
	start := p.c.Peek()
	field := &unify.FieldDefinition{Location: scanner.Loc(start), ExtensionConfig: map[string]string{}}

	label := ""
	if p.c.IsIdent("repeated", "optional", "required") {
		label = p.c.Next().Text
	}

	fieldType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if label == "repeated" {
		fieldType = &unify.ListType{ValueType: fieldType}
	}
	field.FieldType = fieldType

	switch {
	case label == "required":
		field.Requiredness = "required"
	case label == "optional":
		field.Requiredness = "optional"
	case !p.proto3 && label == "":
		field.Requiredness = "required"
	}

	if err := p.finishField(field); err != nil {
		return nil, err
	}
	field.Comments = p.c.Trailing(comments)
	return field, nil
}

func (p *parser) parseMapField(comments []unify.Comment) (*unify.FieldDefinition, error) {
	start := p.c.Next()
	p.c.Next()
	keyType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Expect(scanner.COMMA, "illegal token, ',' expected"); err != nil {
		return nil, err
	}
	valueType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Expect(scanner.RANGLE, "illegal token, '>' expected"); err != nil {
		return nil, err
	}

	field := &unify.FieldDefinition{
		Location:        scanner.Loc(start),
		FieldType:       &unify.MapType{KeyType: keyType, ValueType: valueType},
		ExtensionConfig: map[string]string{},
	}
	if err := p.finishField(field); err != nil {
		return nil, err
	}
	field.Comments = p.c.Trailing(comments)
	return field, nil
}

// finishField parses `name = N [options];`
func (p *parser) finishField(field *unify.FieldDefinition) error {
	nameTok, err := p.c.Expect(scanner.IDENT, "field must have a name")
	if err != nil {
		return err
	}
	field.Name = nameTok.Text
	if _, err := p.c.Expect(scanner.ASSIGN, "illegal token, '=' expected"); err != nil {
		return err
	}
	idTok, err := p.c.Expect(scanner.INT, "illegal token, field id expected")
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(idTok.Text, 0, 32)
	if err != nil {
		return p.c.Errorf(idTok, "invalid field id %s", idTok.Text)
	}
	field.ID = int(id)

	if field.Annotations, err = p.parseFieldOptions(); err != nil {
		return err
	}
	return p.expectSemicolon()
}

func (p *parser) parseEnum(comments []unify.Comment) (*unify.EnumDefinition, error) {
	kw := p.c.Next()
	nameTok, err := p.c.Expect(scanner.IDENT, "enum must have a name")
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Expect(scanner.LBRACE, "illegal token, '{' expected"); err != nil {
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
		if p.c.Accept(scanner.SEMICOLON) {
			continue
		}
		switch {
		case p.c.IsIdent("option"):
			option, err := p.parseOptionStatement(memberComments)
			if err != nil {
				return nil, err
			}
			enum.Annotations = append(enum.Annotations, option)
		case p.c.IsIdent("reserved") && p.c.PeekN(1).Type != scanner.ASSIGN:
			if err := p.skipStatement(); err != nil {
				return nil, err
			}
		default:
			member, err := p.parseEnumValue(memberComments)
			if err != nil {
				return nil, err
			}
			enum.Members = append(enum.Members, member)
		}
	}
	p.c.Accept(scanner.SEMICOLON)
	enum.Comments = p.c.Trailing(comments)
	return enum, nil
}

func (p *parser) parseEnumValue(comments []unify.Comment) (*unify.EnumMember, error) {
	nameTok, err := p.c.Expect(scanner.IDENT, "enum value must have a name")
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Expect(scanner.ASSIGN, "illegal token, '=' expected"); err != nil {
		return nil, err
	}
	valueTok, err := p.c.Expect(scanner.INT, "enum value must be an integer")
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseInt(valueTok.Text, 0, 64)
	if err != nil {
		return nil, p.c.Errorf(valueTok, "invalid enum value %s", valueTok.Text)
	}

	member := &unify.EnumMember{Location: scanner.Loc(nameTok), Name: nameTok.Text, Value: &v}
	if member.Annotations, err = p.parseFieldOptions(); err != nil {
		return nil, err
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	member.Comments = p.c.Trailing(comments)
	return member, nil
}

func (p *parser) parseService(comments []unify.Comment) (*unify.ServiceDefinition, error) {
	kw := p.c.Next()
	nameTok, err := p.c.Expect(scanner.IDENT, "service must have a name")
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Expect(scanner.LBRACE, "illegal token, '{' expected"); err != nil {
		return nil, err
	}

	service := &unify.ServiceDefinition{
		Location:        scanner.Loc(kw),
		Name:            unify.NewIdentifier(nameTok.Text, scanner.Loc(nameTok)),
		Functions:       []*unify.FunctionDefinition{},
		ExtensionConfig: map[string]string{},
	}
	for {
		methodComments := p.c.Leading()
		if p.c.Accept(scanner.RBRACE) {
			break
		}
		if p.c.Accept(scanner.SEMICOLON) {
			continue
		}
		switch {
		case p.c.IsIdent("option"):
			option, err := p.parseOptionStatement(methodComments)
			if err != nil {
				return nil, err
			}
			service.Annotations = append(service.Annotations, option)
		case p.c.IsIdent("rpc"):
			fn, err := p.parseRPC(methodComments)
			if err != nil {
				return nil, err
			}
			service.Functions = append(service.Functions, fn)
		default:
			return nil, p.c.Unexpected(p.c.Peek(), "'rpc'")
		}
	}
	p.c.Accept(scanner.SEMICOLON)
	service.Comments = p.c.Trailing(comments)
	return service, nil
}

func (p *parser) parseRPC(comments []unify.Comment) (*unify.FunctionDefinition, error) {
	kw := p.c.Next()
	nameTok, err := p.c.Expect(scanner.IDENT, "rpc must have a name")
	if err != nil {
		return nil, err
	}

	fn := &unify.FunctionDefinition{
		Location:        scanner.Loc(kw),
		Name:            unify.NewIdentifier(nameTok.Text, scanner.Loc(nameTok)),
		Throws:          []*unify.FieldDefinition{},
		ExtensionConfig: map[string]string{},
	}

	requestType, clientStreaming, err := p.parseRPCType()
	if err != nil {
		return nil, err
	}
	if _, err := p.c.ExpectIdent("returns"); err != nil {
		return nil, err
	}
	responseType, serverStreaming, err := p.parseRPCType()
	if err != nil {
		return nil, err
	}
	fn.ReturnType = responseType
	fn.ClientStreaming = clientStreaming
	fn.ServerStreaming = serverStreaming
	fn.Fields = []*unify.FieldDefinition{{
		Location:        scanner.Loc(nameTok),
		ID:              1,
		Name:            "request",
		FieldType:       requestType,
		Comments:        []unify.Comment{},
		ExtensionConfig: map[string]string{},
	}}

	if p.c.Accept(scanner.LBRACE) {
		for {
			comments := p.c.Leading()
			if p.c.Accept(scanner.RBRACE) {
				break
			}
			if p.c.Accept(scanner.SEMICOLON) {
				continue
			}
			if !p.c.IsIdent("option") {
				return nil, p.c.Unexpected(p.c.Peek(), "'option'")
			}
			option, err := p.parseOptionStatement(comments)
			if err != nil {
				return nil, err
			}
			fn.Annotations = append(fn.Annotations, option)
		}
		p.c.Accept(scanner.SEMICOLON)
	} else if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	fn.Comments = p.c.Trailing(comments)
	return fn, nil
}

// parseRPCType parses `( [stream] Type )`
func (p *parser) parseRPCType() (unify.FieldType, bool, error) {
	if _, err := p.c.Expect(scanner.LPAREN, "illegal token, '(' expected"); err != nil {
		return nil, false, err
	}
	stream := false
	if p.c.IsIdent("stream") && p.c.PeekN(1).Type != scanner.RPAREN {
		p.c.Next()
		stream = true
	}
	fieldType, err := p.parseType()
	if err != nil {
		return nil, false, err
	}
	if _, err := p.c.Expect(scanner.RPAREN, "illegal token, ')' expected"); err != nil {
		return nil, false, err
	}
	return fieldType, stream, nil
}

// skipStatement consumes tokens through the next semicolon
func (p *parser) skipStatement() error {
	for {
		tok := p.c.Next()
		switch tok.Type {
		case scanner.EOF:
			return p.c.Unexpected(tok, "';'")
		case scanner.SEMICOLON:
			p.c.Trailing(nil)
			return nil
		}
	}
}

// skipExtend consumes an `extend Foo { ... }` block
func (p *parser) skipExtend() error {
	p.c.Next()
	if _, err := p.parseFullIdent(); err != nil {
		return err
	}
	if _, err := p.c.Expect(scanner.LBRACE, "illegal token, '{' expected"); err != nil {
		return err
	}
	if err := p.c.SkipBalanced(scanner.LBRACE, scanner.RBRACE); err != nil {
		return err
	}
	p.c.Trailing(nil)
	return nil
}

func (p *parser) expectSemicolon() error {
	tok := p.c.Peek()
	if tok.Type != scanner.SEMICOLON {
		return p.c.Unexpected(tok, "';'")
	}
	p.c.Next()
	return nil
}
