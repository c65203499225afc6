package parser

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

// Cache memoizes parse work across Parse calls. Local documents are keyed
// by path and invalidated when the content hash changes. Resolved entry
// documents are keyed by the entry, the options and the content hash of
// every reachable file. Documents never leave the cache except as clones.
type Cache struct {
	mu    sync.Mutex
	files map[string]fileEntry
	docs  map[uint64]*unify.Document
	group singleflight.Group
}

type fileEntry struct {
	hash uint64
	doc  *unify.Document
}

// NewCache returns an empty cache
func NewCache() *Cache {
	return &Cache{
		files: map[string]fileEntry{},
		docs:  map[uint64]*unify.Document{},
	}
}

// ContentHash is the content identity used for invalidation
func ContentHash(src string) uint64 {
	return xxhash.Sum64String(src)
}

func (c *Cache) file(path string, hash uint64) (*unify.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.files[path]
	if !ok || entry.hash != hash {
		return nil, false
	}
	return entry.doc.Clone(), true
}

func (c *Cache) storeFile(path string, hash uint64, doc *unify.Document) {
	clone := doc.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = fileEntry{hash: hash, doc: clone}
}

func (c *Cache) document(key uint64) (*unify.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[key]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

func (c *Cache) storeDocument(key uint64, doc *unify.Document) {
	clone := doc.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[key] = clone
}

// Len returns the number of cached local and resolved documents
func (c *Cache) Len() (files, docs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files), len(c.docs)
}

// Reset drops every cached document
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = map[string]fileEntry{}
	c.docs = map[uint64]*unify.Document{}
}

// Forget drops the local document of path and every resolved document,
// since any of them may have reached path
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, path)
	c.docs = map[uint64]*unify.Document{}
}

// resultKey identifies a resolved parse result
func resultKey(entry string, opts Options, hashes map[string]uint64) uint64 {
	paths := make([]string, 0, len(hashes))
	for p := range hashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	d := xxhash.New()
	_, _ = d.WriteString(entry)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(opts.fingerprint())
	for _, p := range paths {
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(p)
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(strconv.FormatUint(hashes[p], 16))
	}
	return d.Sum64()
}

func (o Options) fingerprint() string {
	return strconv.FormatBool(o.IgnoreGoTag) + "|" +
		strconv.FormatBool(o.IgnoreGoTagDash) + "|" +
		strings.Join(o.SearchPaths, ":")
}
