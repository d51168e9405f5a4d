// Package docservice coordinates the manifest, content storage, index,
// preferences and render engine behind the HTTP and MCP surfaces.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/docsite/internal/apperr"
	"github.com/starford/docsite/internal/catalog"
	"github.com/starford/docsite/internal/index"
	"github.com/starford/docsite/internal/manifest"
	"github.com/starford/docsite/internal/models"
	"github.com/starford/docsite/internal/prefs"
	"github.com/starford/docsite/internal/render"
	"github.com/starford/docsite/internal/scaffold"
	"github.com/starford/docsite/internal/storage"
)

// DocDetail is a document's manifest record plus its rendered page.
type DocDetail struct {
	models.Document
	HTML    string                `json:"html"`
	Outline []render.OutlineEntry `json:"outline"`
	Class   string                `json:"class"`
	Theme   render.Theme          `json:"theme"`
}

// Deps are the collaborators of a Service. DB and Prefs may be nil.
type Deps struct {
	Store   storage.Provider
	DB      *index.DB
	Catalog *catalog.Store
	Prefs   *prefs.Store
	Builder *manifest.Builder
	Engine  *render.Engine
	Logger  *slog.Logger

	// SearchLimit caps metadata search results when the caller passes no
	// limit. Zero means catalog.DefaultSearchLimit.
	SearchLimit int
}

// Service coordinates storage, manifest and index operations.
type Service struct {
	store   storage.Provider
	db      *index.DB
	catalog *catalog.Store
	prefs   *prefs.Store
	builder *manifest.Builder
	engine  *render.Engine
	logger  *slog.Logger
	now     func() time.Time

	searchLimit int

	rebuildMu sync.Mutex // one Build/Set/Sync at a time
}

// NewService creates a new document service.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Engine == nil {
		d.Engine = render.NewEngine(render.DefaultFormatters())
	}
	if d.Prefs == nil {
		d.Prefs = prefs.Open("", prefs.Defaults(), d.Logger)
	}
	return &Service{
		store:   d.Store,
		db:      d.DB,
		catalog: d.Catalog,
		prefs:   d.Prefs,
		builder: d.Builder,
		engine:  d.Engine,
		logger:  d.Logger,
		now:     time.Now,

		searchLimit: d.SearchLimit,
	}
}

// Manifest returns every document, newest first.
func (s *Service) Manifest(_ context.Context) models.Manifest {
	return s.catalog.Current().Documents()
}

// List returns all documents, or those of one category when category is set.
func (s *Service) List(_ context.Context, category string) models.Manifest {
	c := s.catalog.Current()
	if category == "" {
		return c.Documents()
	}
	return c.InCategory(category)
}

// Find returns the manifest record for slug.
func (s *Service) Find(_ context.Context, slug string) (models.Document, error) {
	return s.catalog.Current().Find(slug)
}

// Raw returns the document's source text. A record whose file cannot be
// read is reported as not found.
func (s *Service) Raw(ctx context.Context, slug string) (string, error) {
	doc, err := s.Find(ctx, slug)
	if err != nil {
		return "", err
	}
	data, err := s.store.Read(doc.FilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("docservice: %s: %w", doc.FilePath, apperr.ErrNotFound)
		}
		return "", err
	}
	return string(data), nil
}

// Get renders the document with theme.
func (s *Service) Get(ctx context.Context, slug string, theme render.Theme) (*DocDetail, error) {
	doc, err := s.Find(ctx, slug)
	if err != nil {
		return nil, err
	}
	raw, err := s.Raw(ctx, slug)
	if err != nil {
		return nil, err
	}
	theme = theme.WithDefaults()
	page, err := s.engine.RenderDocument(raw, theme)
	if err != nil {
		return nil, err
	}
	return &DocDetail{
		Document: doc,
		HTML:     page.HTML,
		Outline:  page.Outline,
		Class:    page.Class,
		Theme:    theme,
	}, nil
}

// Outline returns the level 2-4 headings of the document.
func (s *Service) Outline(ctx context.Context, slug string) ([]render.OutlineEntry, error) {
	raw, err := s.Raw(ctx, slug)
	if err != nil {
		return nil, err
	}
	return render.Outline(render.Strip(raw)), nil
}

// Categories groups the manifest by category.
func (s *Service) Categories(_ context.Context) []catalog.Category {
	return s.catalog.Current().Categories()
}

// Recent returns the n newest documents.
func (s *Service) Recent(_ context.Context, n int) models.Manifest {
	return s.catalog.Current().Recent(n)
}

// Search filters manifest metadata.
func (s *Service) Search(_ context.Context, query string, limit int) models.Manifest {
	if limit <= 0 {
		limit = s.searchLimit
	}
	return s.catalog.Current().Search(query, limit)
}

// FullText searches document bodies. Without an index it returns no hits.
func (s *Service) FullText(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return []index.SearchResult{}, nil
	}
	return s.db.Search(query, limit)
}

// Preferences returns the stored presentation preferences.
func (s *Service) Preferences(_ context.Context) prefs.Preferences {
	return s.prefs.Get()
}

// UpdatePreferences applies patch and persists it.
func (s *Service) UpdatePreferences(_ context.Context, patch prefs.Patch) (prefs.Preferences, error) {
	return s.prefs.Update(patch)
}

// CycleColorScheme advances light → dark → system and persists the result.
func (s *Service) CycleColorScheme(_ context.Context) prefs.Preferences {
	return s.prefs.CycleColorScheme()
}

// ResolveTheme overlays explicit theme names on the stored preferences.
// Unknown names are rejected with apperr.ErrInvalidTheme.
func (s *Service) ResolveTheme(markdown, highlight string) (render.Theme, error) {
	t := s.prefs.Theme()
	if markdown != "" {
		if !render.IsMarkdownTheme(markdown) {
			return t, fmt.Errorf("docservice: markdown theme %q: %w", markdown, apperr.ErrInvalidTheme)
		}
		t.Markdown = markdown
	}
	if highlight != "" {
		if !render.IsHighlightTheme(highlight) {
			return t, fmt.Errorf("docservice: highlight theme %q: %w", highlight, apperr.ErrInvalidTheme)
		}
		t.Highlight = highlight
	}
	return t, nil
}

// Create scaffolds a new document, rebuilds the manifest and returns the
// new record.
func (s *Service) Create(ctx context.Context, title, category string) (models.Document, error) {
	res, err := scaffold.Create(s.store.Root(), title, category, s.now())
	if err != nil {
		return models.Document{}, err
	}
	s.logger.Info("document created", slog.String("path", res.Path), slog.String("slug", res.Slug))

	docs, err := s.Rebuild(ctx)
	if err != nil {
		return models.Document{}, err
	}
	for _, d := range docs {
		if d.FilePath == res.Slug+".md" {
			return d, nil
		}
	}
	return models.Document{}, fmt.Errorf("docservice: %s missing from manifest: %w", res.Slug, apperr.ErrNotFound)
}

// Rebuild regenerates the manifest, swaps it into the catalog and brings
// the index up to date.
func (s *Service) Rebuild(ctx context.Context) (models.Manifest, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	docs, err := s.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	s.catalog.Set(docs)
	if s.db != nil {
		if err := index.Sync(s.db, s.store, docs, s.logger); err != nil {
			s.logger.Warn("index sync failed", slog.String("error", err.Error()))
		}
	}
	return docs, nil
}

// SlugForPath maps a content path to its slug in the current manifest.
func (s *Service) SlugForPath(path string) string {
	for _, d := range s.catalog.Current().Documents() {
		if d.FilePath == path {
			return d.Slug
		}
	}
	return ""
}
