package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/docsite/internal/apperr"
)

// DefaultSearchLimit caps full-text results when no limit is given.
const DefaultSearchLimit = 20

// DocRow represents a row in the docs table.
type DocRow struct {
	Path        string
	Slug        string
	Title       string
	Category    string
	Tags        []string
	Description string
	Date        string
	Checksum    string
	UpdatedAt   time.Time
}

// SearchResult represents one full-text hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertDoc inserts or replaces a document and its FTS entry within a transaction.
func (db *DB) UpsertDoc(d DocRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if d.Tags == nil {
		d.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(d.Tags)

	_, err = tx.Exec(`
		INSERT INTO docs (path, slug, title, category, tags, description, date, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			slug        = excluded.slug,
			title       = excluded.title,
			category    = excluded.category,
			tags        = excluded.tags,
			description = excluded.description,
			date        = excluded.date,
			checksum    = excluded.checksum,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, d.Path, d.Slug, d.Title, d.Category, string(tagsJSON), d.Description, d.Date, d.Checksum, body, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert doc: %w", err)
	}

	// No-op when the FTS5 tag is absent.
	if err := ftsUpsert(tx, d, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDoc removes a document and its FTS entry.
func (db *DB) DeleteDoc(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM docs WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete doc: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or "" if it is
// not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM docs WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetDoc returns the indexed metadata for slug.
func (db *DB) GetDoc(slug string) (*DocRow, error) {
	var (
		d       DocRow
		tagsRaw string
	)
	err := db.conn.QueryRow(`
		SELECT path, slug, title, category, tags, description, date, checksum, updated_at
		FROM docs WHERE slug = ?
		ORDER BY path LIMIT 1
	`, slug).Scan(&d.Path, &d.Slug, &d.Title, &d.Category, &tagsRaw, &d.Description, &d.Date, &d.Checksum, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: doc %q: %w", slug, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get doc: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsRaw), &d.Tags); err != nil {
		d.Tags = []string{}
	}
	return &d, nil
}

// AllChecksums returns path -> checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Count returns the number of indexed documents.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM docs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
