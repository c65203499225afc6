// Package parser is the entry point of idlunify. It discovers every file
// reachable from an entry through includes, parses each with the front-end
// of its dialect, normalizes annotations and resolves namespaces.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/hertz-contrib/swagger-generate/idlunify/converter"
	"github.com/hertz-contrib/swagger-generate/idlunify/protobuf"
	"github.com/hertz-contrib/swagger-generate/idlunify/resolver"
	"github.com/hertz-contrib/swagger-generate/idlunify/thrift"
	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

// ErrInvalidPath is returned for an entry whose extension names no dialect
var ErrInvalidPath = errors.New("invalid filePath")

// Options controls one Parse call
type Options struct {
	Cache           bool     // reuse work from earlier calls with identical content
	IgnoreGoTag     bool     // skip go.tag parsing in field annotations
	IgnoreGoTagDash bool     // keep fields tagged json:"-"
	SearchPaths     []string // extra prefixes tried when an include is not found
}

type frontEnd func(filePath, src string) (*unify.Document, error)

var frontEnds = map[string]frontEnd{
	thrift.Extension:   thrift.ParseFile,
	protobuf.Extension: protobuf.ParseFile,
}

// imports satisfied by the protobuf runtime, never required in the contents
const wellKnownImportPrefix = "google/protobuf/"

// Parser parses schema sets. It is safe for concurrent use.
type Parser struct {
	cache  *Cache
	logger *slog.Logger
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// WithCache shares cache between parsers
func WithCache(cache *Cache) Option {
	return func(p *Parser) { p.cache = cache }
}

// New returns a Parser with its own cache
func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = NewCache()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Cache returns the parser's cache
func (p *Parser) Cache() *Cache { return p.cache }

var defaultParser = New()

// Parse parses entryPath and everything it includes from fileContents using
// a process wide parser
func Parse(entryPath string, opts Options, fileContents map[string]string) (*unify.Document, error) {
	return defaultParser.Parse(entryPath, opts, fileContents)
}

// Parse returns the resolved document of entryPath. fileContents maps every
// reachable path to its source. The call either fully resolves or fails.
func (p *Parser) Parse(entryPath string, opts Options, fileContents map[string]string) (*unify.Document, error) {
	start := time.Now()
	dialect, err := dialectOf(entryPath)
	if err != nil {
		ParseErrorsTotal.Inc()
		return nil, err
	}
	defer func() {
		ParseDuration.WithLabelValues(string(dialect)).Observe(time.Since(start).Seconds())
	}()

	doc, err := p.parse(entryPath, opts, fileContents)
	if err != nil {
		ParseErrorsTotal.Inc()
		p.logger.Debug("parse failed", "entry", entryPath, "error", err)
		return nil, err
	}
	return doc, nil
}

func dialectOf(filePath string) (unify.Dialect, error) {
	switch path.Ext(filePath) {
	case thrift.Extension:
		return unify.DialectThrift, nil
	case protobuf.Extension:
		return unify.DialectProtobuf, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPath, filePath)
}

func (p *Parser) parse(entryPath string, opts Options, fileContents map[string]string) (*unify.Document, error) {
	if _, ok := fileContents[entryPath]; !ok {
		return nil, &unify.MissingFileError{Path: entryPath}
	}

	docs, hashes, err := p.discover(entryPath, opts, fileContents)
	if err != nil {
		return nil, err
	}

	if !opts.Cache {
		return p.resolve(entryPath, opts, docs)
	}

	key := resultKey(entryPath, opts, hashes)
	if doc, ok := p.cache.document(key); ok {
		CacheHitsTotal.WithLabelValues(layerDocument).Inc()
		p.logger.Debug("document cache hit", "entry", entryPath, "files", len(hashes))
		return doc, nil
	}
	CacheMissesTotal.WithLabelValues(layerDocument).Inc()

	v, err, shared := p.cache.group.Do(strconv.FormatUint(key, 16), func() (any, error) {
		doc, err := p.resolve(entryPath, opts, docs)
		if err != nil {
			return nil, err
		}
		p.cache.storeDocument(key, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	doc := v.(*unify.Document)
	if shared {
		doc = doc.Clone()
	}
	return doc, nil
}

// discover parses every file reachable from entryPath breadth first and
// links each include to the key of the file it names
func (p *Parser) discover(entryPath string, opts Options, fileContents map[string]string) (map[string]*unify.Document, map[string]uint64, error) {
	docs := map[string]*unify.Document{}
	hashes := map[string]uint64{}
	queue := []string{entryPath}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, done := docs[cur]; done {
			continue
		}

		src := fileContents[cur]
		hash := ContentHash(src)
		doc, err := p.local(cur, src, hash, opts.Cache)
		if err != nil {
			return nil, nil, err
		}
		docs[cur] = doc
		hashes[cur] = hash

		for _, inc := range doc.IncludeDeclarations() {
			target, ok := lookupInclude(cur, inc.Path, opts.SearchPaths, fileContents)
			if !ok {
				if doc.Dialect == unify.DialectProtobuf && strings.HasPrefix(inc.Path, wellKnownImportPrefix) {
					continue
				}
				return nil, nil, &unify.MissingFileError{Path: inc.Path, ReferencedBy: cur}
			}
			inc.Resolved = target
			if _, done := docs[target]; !done {
				queue = append(queue, target)
			}
		}
	}
	return docs, hashes, nil
}

// local returns the unresolved document of one file
func (p *Parser) local(filePath, src string, hash uint64, useCache bool) (*unify.Document, error) {
	if useCache {
		if doc, ok := p.cache.file(filePath, hash); ok {
			CacheHitsTotal.WithLabelValues(layerFile).Inc()
			return doc, nil
		}
		CacheMissesTotal.WithLabelValues(layerFile).Inc()
	}

	parse, ok := frontEnds[path.Ext(filePath)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, filePath)
	}
	doc, err := parse(filePath, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	FilesParsedTotal.WithLabelValues(string(doc.Dialect)).Inc()
	p.logger.Debug("parsed file", "path", filePath, "dialect", doc.Dialect, "statements", len(doc.Statements))

	if useCache {
		p.cache.storeFile(filePath, hash, doc)
	}
	return doc, nil
}

// lookupInclude finds the key of an included file: relative to the
// including file, then as written, then under each search path
func lookupInclude(from, include string, searchPaths []string, fileContents map[string]string) (string, bool) {
	candidates := []string{
		path.Join(path.Dir(from), include),
		path.Clean(include),
	}
	for _, sp := range searchPaths {
		candidates = append(candidates, path.Join(sp, include))
	}
	for _, c := range candidates {
		if _, ok := fileContents[c]; ok {
			return c, true
		}
	}
	return "", false
}

func (p *Parser) resolve(entryPath string, opts Options, docs map[string]*unify.Document) (*unify.Document, error) {
	option := &converter.ConvertOption{
		IgnoreGoTag:     opts.IgnoreGoTag,
		IgnoreGoTagDash: opts.IgnoreGoTagDash,
	}
	for _, doc := range docs {
		converter.NewExtensionConverter(doc, option).Convert()
	}
	if err := resolver.Resolve(docs, p.logger); err != nil {
		return nil, err
	}
	return docs[entryPath], nil
}
