// Package resolver qualifies every type reference of a set of local
// documents with the canonical namespace of the file that declares it.
//
// Resolution runs in two passes. The collection pass builds a symbol table
// keyed by canonical namespace and local name. The rewrite pass walks each
// document and sets Identifier.NamespaceValue for declarations and
// references alike.
package resolver

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
	"github.com/hertz-contrib/swagger-generate/idlunify/utils"
)

const googleProtobufPackage = "google.protobuf"

// Resolver resolves one parse call's documents. It is not safe for
// concurrent use; each parse call creates its own.
type Resolver struct {
	docs   map[string]*unify.Document
	order  []string
	logger *slog.Logger

	// canonical namespace -> local name -> declared
	symbols map[string]map[string]bool
	// file path -> local names declared in that file
	fileSymbols map[string]map[string]bool
}

// New returns a resolver over docs keyed by path
func New(docs map[string]*unify.Document, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	order := make([]string, 0, len(docs))
	for p := range docs {
		order = append(order, p)
	}
	sort.Strings(order)
	return &Resolver{
		docs:        docs,
		order:       order,
		logger:      logger,
		symbols:     map[string]map[string]bool{},
		fileSymbols: map[string]map[string]bool{},
	}
}

// Resolve runs both passes over every document
func (r *Resolver) Resolve() error {
	for _, p := range r.order {
		r.collect(r.docs[p])
	}
	for _, p := range r.order {
		if err := r.rewrite(r.docs[p]); err != nil {
			return err
		}
	}
	return nil
}

// Lookup reports whether namespace declares name
func (r *Resolver) Lookup(namespace, name string) bool {
	return r.symbols[namespace][name]
}

func (r *Resolver) declare(doc *unify.Document, name string) {
	ns := doc.UnifyNamespace
	if r.symbols[ns] == nil {
		r.symbols[ns] = map[string]bool{}
	}
	if r.fileSymbols[doc.Path] == nil {
		r.fileSymbols[doc.Path] = map[string]bool{}
	}
	if r.symbols[ns][name] {
		r.logger.Debug("duplicate declaration", "namespace", ns, "name", name, "file", doc.Path)
	}
	r.symbols[ns][name] = true
	r.fileSymbols[doc.Path][name] = true
}

func (r *Resolver) collect(doc *unify.Document) {
	r.collectStatements(doc, "", doc.Statements)
}

func (r *Resolver) collectStatements(doc *unify.Document, prefix string, stmts []unify.Statement) {
	for _, stmt := range stmts {
		name := unify.DeclarationName(stmt)
		if name == nil {
			continue
		}
		local := prefix + name.Value
		r.declare(doc, local)

		switch s := stmt.(type) {
		case *unify.EnumDefinition:
			for _, m := range s.Members {
				r.declare(doc, local+"."+m.Name)
			}
		case *unify.StructDefinition:
			r.collectStatements(doc, local+".", s.Nested)
		}
	}
}

// scope is the lexical context a reference is resolved in
type scope struct {
	doc      *unify.Document
	messages []string // enclosing message names, outermost first
}

func (r *Resolver) rewrite(doc *unify.Document) error {
	return r.rewriteStatements(scope{doc: doc}, doc.Statements)
}

func (r *Resolver) rewriteStatements(sc scope, stmts []unify.Statement) error {
	ns := sc.doc.UnifyNamespace
	prefix := ""
	if len(sc.messages) > 0 {
		prefix = strings.Join(sc.messages, ".") + "."
	}

	for _, stmt := range stmts {
		if name := unify.DeclarationName(stmt); name != nil {
			name.Resolve(ns + "." + prefix + name.Value)
		}

		var err error
		switch s := stmt.(type) {
		case *unify.StructDefinition:
			inner := scope{doc: sc.doc, messages: append(append([]string{}, sc.messages...), s.Name.Value)}
			if err = r.rewriteFields(inner, s.Fields); err == nil {
				err = r.rewriteStatements(inner, s.Nested)
			}
		case *unify.TypedefDefinition:
			err = r.rewriteType(sc, s.DefinitionType)
		case *unify.ConstDefinition:
			if err = r.rewriteType(sc, s.FieldType); err == nil {
				err = r.rewriteValue(sc, s.Initializer)
			}
		case *unify.ServiceDefinition:
			err = r.rewriteService(sc, s)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) rewriteService(sc scope, s *unify.ServiceDefinition) error {
	ns := sc.doc.UnifyNamespace
	if s.Extends != nil {
		if err := r.resolveIdentifier(sc, s.Extends); err != nil {
			return err
		}
	}
	for _, fn := range s.Functions {
		// a method is scoped by its service, a Thrift function is not
		if sc.doc.Dialect == unify.DialectProtobuf {
			fn.Name.Resolve(ns + "." + s.Name.Value + "." + fn.Name.Value)
		} else {
			fn.Name.Resolve(ns + "." + fn.Name.Value)
		}
		if err := r.rewriteType(sc, fn.ReturnType); err != nil {
			return err
		}
		if err := r.rewriteFields(sc, fn.Fields); err != nil {
			return err
		}
		if err := r.rewriteFields(sc, fn.Throws); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) rewriteFields(sc scope, fields []*unify.FieldDefinition) error {
	for _, f := range fields {
		if err := r.rewriteType(sc, f.FieldType); err != nil {
			return err
		}
		if err := r.rewriteValue(sc, f.DefaultValue); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) rewriteType(sc scope, t unify.FieldType) error {
	switch t := t.(type) {
	case *unify.Identifier:
		return r.resolveIdentifier(sc, t)
	case *unify.ListType:
		return r.rewriteType(sc, t.ValueType)
	case *unify.SetType:
		return r.rewriteType(sc, t.ValueType)
	case *unify.MapType:
		if err := r.rewriteType(sc, t.KeyType); err != nil {
			return err
		}
		return r.rewriteType(sc, t.ValueType)
	}
	return nil
}

func (r *Resolver) rewriteValue(sc scope, v unify.ConstValue) error {
	switch v := v.(type) {
	case *unify.Identifier:
		return r.resolveIdentifier(sc, v)
	case *unify.ConstList:
		for _, e := range v.Elements {
			if err := r.rewriteValue(sc, e); err != nil {
				return err
			}
		}
	case *unify.ConstMap:
		for _, p := range v.Properties {
			if err := r.rewriteValue(sc, p.Key); err != nil {
				return err
			}
			if err := r.rewriteValue(sc, p.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) resolveIdentifier(sc scope, id *unify.Identifier) error {
	var (
		resolved string
		ok       bool
	)
	if sc.doc.Dialect == unify.DialectProtobuf {
		resolved, ok = r.resolveProto(sc, id.Value)
	} else {
		resolved, ok = r.resolveThrift(sc.doc, id.Value)
	}
	if !ok {
		return &unify.ResolveError{Path: sc.doc.Path, Identifier: id.Value, Location: id.Location}
	}
	id.Resolve(resolved)
	return nil
}

// resolveThrift qualifies a Thrift reference. A dotted reference whose head
// is a local enum or an unknown alias stays in the file's own namespace.
func (r *Resolver) resolveThrift(doc *unify.Document, value string) (string, bool) {
	ns := doc.UnifyNamespace
	head, tail, dotted := utils.SplitQualified(value)
	switch {
	case !dotted:
	case r.fileSymbols[doc.Path][head]:
	default:
		if target := r.aliasTarget(doc, head); target != nil {
			ns, value = target.UnifyNamespace, tail
		}
	}
	if !r.Lookup(ns, value) {
		return "", false
	}
	return ns + "." + value, true
}

func (r *Resolver) aliasTarget(doc *unify.Document, alias string) *unify.Document {
	var target *unify.Document
	for _, inc := range doc.IncludeDeclarations() {
		if inc.Alias == alias && inc.Resolved != "" {
			target = r.docs[inc.Resolved]
		}
	}
	return target
}

// resolveProto follows protobuf scoping: candidates are tried from the
// innermost enclosing message outward to the package root, and each is
// looked up in the file and the files it can see.
func (r *Resolver) resolveProto(sc scope, value string) (string, bool) {
	if strings.HasPrefix(strings.TrimPrefix(value, "."), googleProtobufPackage+".") {
		name := strings.TrimPrefix(strings.TrimPrefix(value, "."), googleProtobufPackage+".")
		return utils.UnifyNamespace(googleProtobufPackage) + "." + name, true
	}

	var candidates []string
	if strings.HasPrefix(value, ".") {
		candidates = []string{value[1:]}
	} else {
		var outer []string
		if sc.doc.Namespace != "" {
			outer = strings.Split(sc.doc.Namespace, ".")
		}
		outer = append(outer, sc.messages...)
		for i := len(outer); i >= 0; i-- {
			candidates = append(candidates, strings.Join(append(append([]string{}, outer[:i]...), value), "."))
		}
	}

	visible := r.visibleFiles(sc.doc)
	for _, full := range candidates {
		if resolved, ok := r.lookupProto(visible, full); ok {
			return resolved, true
		}
	}
	// files of the same package are searched even when not imported
	same := r.samePackageFiles(sc.doc)
	for _, full := range candidates {
		if resolved, ok := r.lookupProto(same, full); ok {
			return resolved, true
		}
	}
	return "", false
}

// lookupProto finds the fully qualified name full in docs, matching the
// longest package first
func (r *Resolver) lookupProto(docs []*unify.Document, full string) (string, bool) {
	for _, d := range docs {
		local := full
		if d.Namespace != "" {
			if !strings.HasPrefix(full, d.Namespace+".") {
				continue
			}
			local = full[len(d.Namespace)+1:]
		}
		if r.fileSymbols[d.Path][local] {
			return d.UnifyNamespace + "." + local, true
		}
	}
	return "", false
}

// visibleFiles is doc, its imports and whatever those import publicly,
// ordered by descending package length
func (r *Resolver) visibleFiles(doc *unify.Document) []*unify.Document {
	seen := map[string]bool{doc.Path: true}
	files := []*unify.Document{doc}

	var walkPublic func(d *unify.Document)
	walkPublic = func(d *unify.Document) {
		for _, inc := range d.IncludeDeclarations() {
			if !inc.Public || inc.Resolved == "" || seen[inc.Resolved] {
				continue
			}
			if target := r.docs[inc.Resolved]; target != nil {
				seen[inc.Resolved] = true
				files = append(files, target)
				walkPublic(target)
			}
		}
	}
	for _, inc := range doc.IncludeDeclarations() {
		if inc.Resolved == "" || seen[inc.Resolved] {
			continue
		}
		if target := r.docs[inc.Resolved]; target != nil {
			seen[inc.Resolved] = true
			files = append(files, target)
			walkPublic(target)
		}
	}
	sortByPackage(files)
	return files
}

func (r *Resolver) samePackageFiles(doc *unify.Document) []*unify.Document {
	var files []*unify.Document
	for _, p := range r.order {
		d := r.docs[p]
		if p != doc.Path && d.Dialect == doc.Dialect && d.Namespace == doc.Namespace {
			files = append(files, d)
		}
	}
	return files
}

func sortByPackage(files []*unify.Document) {
	sort.SliceStable(files, func(i, j int) bool {
		return len(files[i].Namespace) > len(files[j].Namespace)
	})
}

// Resolve resolves docs in place
func Resolve(docs map[string]*unify.Document, logger *slog.Logger) error {
	if err := New(docs, logger).Resolve(); err != nil {
		return fmt.Errorf("resolve namespaces: %w", err)
	}
	return nil
}
