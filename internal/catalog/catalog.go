// Package catalog is the hosting application's read view of the manifest:
// lookup, category grouping, recent documents and metadata search.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/starford/docsite/internal/apperr"
	"github.com/starford/docsite/internal/models"
)

// Defaults for list sizes.
const (
	DefaultRecent      = 6
	DefaultSearchLimit = 10
)

// Category groups documents sharing a category, in manifest order.
type Category struct {
	Name      string            `json:"name"`
	Documents []models.Document `json:"documents"`
}

// Catalog is an immutable snapshot of one manifest.
type Catalog struct {
	docs   models.Manifest
	bySlug map[string]int
}

// New indexes docs. The slice is not copied.
func New(docs models.Manifest) *Catalog {
	c := &Catalog{docs: docs, bySlug: make(map[string]int, len(docs))}
	for i, d := range docs {
		if _, dup := c.bySlug[d.Slug]; !dup {
			c.bySlug[d.Slug] = i
		}
	}
	return c
}

// Decode parses manifest JSON.
func Decode(data []byte) (models.Manifest, error) {
	var docs models.Manifest
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("catalog: decode manifest: %w", err)
	}
	for i := range docs {
		if docs[i].Tags == nil {
			docs[i].Tags = []string{}
		}
	}
	return docs, nil
}

// Load reads the manifest at path. A missing or malformed manifest yields
// an empty catalog; the failure is logged, not returned.
func Load(path string, logger *slog.Logger) *Catalog {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("manifest not found, catalog is empty", slog.String("path", path))
		} else {
			logger.Error("failed to read manifest", slog.String("path", path), slog.String("error", err.Error()))
		}
		return New(nil)
	}
	docs, err := Decode(data)
	if err != nil {
		logger.Error("failed to parse manifest", slog.String("path", path), slog.String("error", err.Error()))
		return New(nil)
	}
	return New(docs)
}

// Documents returns every document in manifest order. Never nil.
func (c *Catalog) Documents() models.Manifest {
	if c.docs == nil {
		return models.Manifest{}
	}
	return c.docs
}

// Len returns the number of documents.
func (c *Catalog) Len() int { return len(c.docs) }

// Find returns the document with the given slug.
func (c *Catalog) Find(slug string) (models.Document, error) {
	i, ok := c.bySlug[slug]
	if !ok {
		return models.Document{}, fmt.Errorf("catalog: document %q: %w", slug, apperr.ErrNotFound)
	}
	return c.docs[i], nil
}

// Categories groups documents by category. The default category comes
// first, the rest are sorted by name.
func (c *Catalog) Categories() []Category {
	groups := make(map[string][]models.Document)
	var names []string
	for _, d := range c.docs {
		name := d.Category
		if name == "" {
			name = models.DefaultCategory
		}
		if _, ok := groups[name]; !ok {
			names = append(names, name)
		}
		groups[name] = append(groups[name], d)
	}
	sort.Slice(names, func(i, j int) bool {
		switch {
		case names[i] == models.DefaultCategory:
			return names[j] != models.DefaultCategory
		case names[j] == models.DefaultCategory:
			return false
		}
		return names[i] < names[j]
	})

	out := make([]Category, 0, len(names))
	for _, name := range names {
		out = append(out, Category{Name: name, Documents: groups[name]})
	}
	return out
}

// InCategory returns the documents of one category in manifest order.
func (c *Catalog) InCategory(name string) models.Manifest {
	out := models.Manifest{}
	for _, d := range c.docs {
		cat := d.Category
		if cat == "" {
			cat = models.DefaultCategory
		}
		if cat == name {
			out = append(out, d)
		}
	}
	return out
}

// Recent returns the first n documents; the manifest is already newest
// first. n <= 0 means DefaultRecent.
func (c *Catalog) Recent(n int) models.Manifest {
	if n <= 0 {
		n = DefaultRecent
	}
	if n > len(c.docs) {
		n = len(c.docs)
	}
	out := make(models.Manifest, n)
	copy(out, c.docs[:n])
	return out
}

// Search matches query case-insensitively as a substring of the title,
// description, category or any tag. A blank query matches nothing. At most
// limit results are returned; limit <= 0 means DefaultSearchLimit.
func (c *Catalog) Search(query string, limit int) models.Manifest {
	out := models.Manifest{}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return out
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	for _, d := range c.docs {
		if len(out) == limit {
			break
		}
		if matches(d, q) {
			out = append(out, d)
		}
	}
	return out
}

func matches(d models.Document, q string) bool {
	if strings.Contains(strings.ToLower(d.Title), q) ||
		strings.Contains(strings.ToLower(d.Description), q) ||
		strings.Contains(strings.ToLower(d.Category), q) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Store holds the current catalog and swaps it when the manifest changes.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	cur *Catalog
}

// NewStore loads the manifest at path.
func NewStore(path string, logger *slog.Logger) *Store {
	s := &Store{path: path, logger: logger}
	s.Reload()
	return s
}

// Current returns the active snapshot.
func (s *Store) Current() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Path returns the manifest file backing the store.
func (s *Store) Path() string { return s.path }

// Reload re-reads the manifest and returns the new snapshot.
func (s *Store) Reload() *Catalog {
	c := Load(s.path, s.logger)
	s.mu.Lock()
	s.cur = c
	s.mu.Unlock()
	s.logger.Info("catalog loaded", slog.Int("documents", c.Len()))
	return c
}

// Set replaces the active snapshot with docs.
func (s *Store) Set(docs models.Manifest) {
	s.mu.Lock()
	s.cur = New(docs)
	s.mu.Unlock()
}
