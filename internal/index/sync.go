package index

import (
	"fmt"
	"log/slog"

	"github.com/starford/docsite/internal/frontmatter"
	"github.com/starford/docsite/internal/models"
	"github.com/starford/docsite/internal/storage"
)

// Sync brings the index in line with a freshly built manifest:
//   - documents whose file changed (checksum) or whose slug moved are upserted
//   - indexed paths no longer in the manifest are deleted
//
// Per-document failures are logged and skipped.
func Sync(db *DB, store storage.Provider, docs models.Manifest, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return fmt.Errorf("index: list content: %w", err)
	}
	onDisk := make(map[string]models.FileMetadata, len(metas))
	for _, m := range metas {
		onDisk[m.Path] = m
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}
	slugs, err := db.slugs()
	if err != nil {
		return err
	}

	keep := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		meta, ok := onDisk[d.FilePath]
		if !ok {
			logger.Warn("sync: manifest entry has no file", slog.String("path", d.FilePath))
			continue
		}
		keep[d.FilePath] = struct{}{}

		if checksums[d.FilePath] == meta.Checksum && slugs[d.FilePath] == d.Slug {
			continue
		}
		if err := indexDoc(db, store, d, meta); err != nil {
			logger.Warn("sync: index failed", slog.String("path", d.FilePath), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: indexed", slog.String("path", d.FilePath))
	}

	for p := range checksums {
		if _, ok := keep[p]; ok {
			continue
		}
		if err := db.DeleteDoc(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}
	return nil
}

// indexDoc reads the document body and upserts it with its manifest metadata.
func indexDoc(db *DB, store storage.Provider, d models.Document, meta models.FileMetadata) error {
	data, err := store.Read(d.FilePath)
	if err != nil {
		return err
	}
	row := DocRow{
		Path:        d.FilePath,
		Slug:        d.Slug,
		Title:       d.Title,
		Category:    d.Category,
		Tags:        d.Tags,
		Description: d.Description,
		Date:        d.Date,
		Checksum:    storage.Checksum(data),
		UpdatedAt:   meta.UpdatedAt,
	}
	return db.UpsertDoc(row, frontmatter.Strip(string(data)))
}

func (db *DB) slugs() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, slug FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("index: slugs: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, s string
		if err := rows.Scan(&p, &s); err != nil {
			return nil, err
		}
		out[p] = s
	}
	return out, rows.Err()
}
