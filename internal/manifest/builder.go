// Package manifest scans a content tree and produces the document manifest.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/starford/docsite/internal/frontmatter"
	"github.com/starford/docsite/internal/models"
	"github.com/starford/docsite/internal/slug"
	"github.com/starford/docsite/internal/storage"
)

// DefaultFile is the manifest file name under the content root.
const DefaultFile = "manifest.json"

// Builder turns a content root into a Manifest. A Builder is used from a
// single goroutine; each Build starts from scratch.
type Builder struct {
	Root         string
	ManifestFile string
	Logger       *slog.Logger
	Now          func() time.Time
}

// NewBuilder returns a Builder for root writing DefaultFile.
func NewBuilder(root string, logger *slog.Logger) *Builder {
	return &Builder{
		Root:         root,
		ManifestFile: DefaultFile,
		Logger:       logger,
		Now:          time.Now,
	}
}

// Path returns the manifest file location.
func (b *Builder) Path() string {
	name := b.ManifestFile
	if name == "" {
		name = DefaultFile
	}
	return filepath.Join(b.Root, name)
}

// Scan returns every .md file under root, descending into subdirectories
// and following symlinks. A missing root yields no files. Unreadable
// subdirectories are skipped.
func Scan(root string) ([]string, error) {
	var files []string
	err := storage.Walk(root, func(p string, d fs.DirEntry) error {
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			files = append(files, p)
		}
		return nil
	}, nil)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: scan %s: %w", root, err)
	}
	return files, nil
}

// ParseDocument reads one file and derives its manifest record.
func (b *Builder) ParseDocument(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("manifest: stat %s: %w", path, err)
	}

	raw := string(data)
	header, body, err := frontmatter.Parse(raw)
	if err != nil {
		return models.Document{}, fmt.Errorf("manifest: %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), ".md")
	docSlug := slug.Make(name)
	if docSlug == "" {
		return models.Document{}, fmt.Errorf("manifest: %s: file name yields an empty slug", path)
	}

	rel, err := filepath.Rel(b.Root, path)
	if err != nil {
		return models.Document{}, fmt.Errorf("manifest: relative path %s: %w", path, err)
	}

	doc := models.Document{
		Slug:         docSlug,
		Title:        firstNonEmpty(header.Title, FirstHeading(raw), name),
		Category:     firstNonEmpty(header.Category, models.DefaultCategory),
		Tags:         header.Tags,
		Date:         header.Date,
		Description:  firstNonEmpty(header.Description, Description(body)),
		ReadingTime:  ReadingTime(body),
		LastModified: frontmatter.FormatTime(info.ModTime()),
		FilePath:     filepath.ToSlash(rel),
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.Date == "" {
		doc.Date = frontmatter.FormatTime(b.now())
	}
	return doc, nil
}

// Build scans the root, parses every document, sorts the result and
// overwrites the manifest file. A file that fails to parse is logged and
// left out; only a failure to write the manifest is returned.
func (b *Builder) Build(ctx context.Context) (models.Manifest, error) {
	logger := b.logger()
	logger.Info("scanning for markdown files", slog.String("root", b.Root))

	files, err := Scan(b.Root)
	if err != nil {
		logger.Warn("scan failed", slog.String("root", b.Root), slog.String("error", err.Error()))
	}

	docs := make(models.Manifest, 0, len(files))
	var seen slug.Deduper
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := b.ParseDocument(path)
		if err != nil {
			logger.Error("document skipped", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if unique := seen.Unique(doc.Slug); unique != doc.Slug {
			logger.Warn("duplicate slug renamed",
				slog.String("path", doc.FilePath),
				slog.String("slug", doc.Slug),
				slog.String("renamed", unique))
			doc.Slug = unique
		}
		docs = append(docs, doc)
		logger.Info("document processed",
			slog.String("title", doc.Title),
			slog.String("category", doc.Category),
			slog.String("path", doc.FilePath))
	}

	Sort(docs)

	if err := b.write(docs); err != nil {
		return nil, err
	}
	logger.Info("manifest generated",
		slog.Int("documents", len(docs)),
		slog.String("manifest", b.Path()))
	return docs, nil
}

// Sort orders docs by date, most recent first. Equal or unparseable dates
// keep their relative order; unparseable dates sort last.
func Sort(docs models.Manifest) {
	sort.SliceStable(docs, func(i, j int) bool {
		return parseDate(docs[i].Date).After(parseDate(docs[j].Date))
	})
}

// Encode renders the manifest the way it is stored on disk.
func Encode(docs models.Manifest) ([]byte, error) {
	if docs == nil {
		docs = models.Manifest{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	return append(data, '\n'), nil
}

func (b *Builder) write(docs models.Manifest) error {
	data, err := Encode(docs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.Path()), 0o755); err != nil {
		return fmt.Errorf("manifest: create dir: %w", err)
	}
	if err := atomic.WriteFile(b.Path(), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("manifest: write %s: %w", b.Path(), err)
	}
	return nil
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate returns the zero time for dates it cannot read, which places
// them after every real date.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
