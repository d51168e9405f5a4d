package index

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/docsite/internal/apperr"
	"github.com/starford/docsite/internal/models"
	"github.com/starford/docsite/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "docsite-test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM docs`).Scan(&count); err != nil {
		t.Fatalf("docs table missing: %v", err)
	}
}

func TestUpsertAndGetDoc(t *testing.T) {
	db := testDB(t)
	row := DocRow{
		Path:        "guides/hello.md",
		Slug:        "hello",
		Title:       "Hello World",
		Category:    "Guides",
		Tags:        []string{"go", "test"},
		Description: "A greeting.",
		Date:        "2024-01-01",
		Checksum:    "abc123",
		UpdatedAt:   time.Now(),
	}
	if err := db.UpsertDoc(row, "This is a hello world doc."); err != nil {
		t.Fatalf("UpsertDoc: %v", err)
	}
	cs, err := db.GetChecksum("guides/hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}

	got, err := db.GetDoc("hello")
	if err != nil {
		t.Fatalf("GetDoc: %v", err)
	}
	if got.Title != "Hello World" || got.Category != "Guides" || got.Path != "guides/hello.md" {
		t.Errorf("doc = %+v", got)
	}
	if diff := cmp.Diff([]string{"go", "test"}, got.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestGetDoc_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetDoc("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteDoc(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDoc(DocRow{Path: "del.md", Slug: "del", Checksum: "x", UpdatedAt: time.Now()}, "body")

	if err := db.DeleteDoc("del.md"); err != nil {
		t.Fatalf("DeleteDoc: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted doc still has checksum %q", cs)
	}
	if n, _ := db.Count(); n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDoc(DocRow{Path: "up.md", Slug: "up", Title: "Old", Checksum: "1", UpdatedAt: now}, "old body")
	_ = db.UpsertDoc(DocRow{Path: "up.md", Slug: "up", Title: "New", Checksum: "2", UpdatedAt: now}, "new body")

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	if n, _ := db.Count(); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDoc(DocRow{Path: "s.md", Slug: "s", Title: "Search Me", Checksum: "1", UpdatedAt: time.Now()}, "uniqueword appears here")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Slug != "s" || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}

func TestSearch_BlankQuery(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDoc(DocRow{Path: "s.md", Slug: "s", Checksum: "1", UpdatedAt: time.Now()}, "text")
	results, err := db.Search("  ", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("blank query returned %+v", results)
	}
}

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSync_IndexesManifestAndRemovesStale(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)

	writeDoc(t, root, "a.md", "---\ntitle: A\n---\nalpha body")
	writeDoc(t, root, "sub/b.md", "bravo body")
	docs := models.Manifest{
		{Slug: "a", Title: "A", Category: "General", FilePath: "a.md", Tags: []string{}},
		{Slug: "b", Title: "b", Category: "General", FilePath: "sub/b.md", Tags: []string{}},
		{Slug: "ghost", Title: "Ghost", FilePath: "ghost.md"},
	}
	if err := Sync(db, store, docs, discard()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n, _ := db.Count(); n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}
	results, _ := db.Search("bravo", 10)
	if len(results) != 1 || results[0].Slug != "b" {
		t.Errorf("search after sync = %+v", results)
	}
	// The header block is not indexed as body text.
	if results, _ := db.Search("title", 10); len(results) != 0 {
		t.Errorf("header block indexed: %+v", results)
	}

	if err := Sync(db, store, docs[:1], discard()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("sub/b.md"); cs != "" {
		t.Error("stale doc not removed")
	}
}

func TestSync_ReindexesRenamedSlug(t *testing.T) {
	root := t.TempDir()
	store, _ := storage.NewFS(root)
	db := testDB(t)
	writeDoc(t, root, "setup.md", "body")

	_ = Sync(db, store, models.Manifest{{Slug: "setup", FilePath: "setup.md"}}, discard())
	_ = Sync(db, store, models.Manifest{{Slug: "setup-1", FilePath: "setup.md"}}, discard())

	if _, err := db.GetDoc("setup-1"); err != nil {
		t.Errorf("GetDoc(setup-1): %v", err)
	}
}

func TestSync_UnreadableFileDoesNotBlockOthers(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	store.Logger = discard()
	db := testDB(t)

	writeDoc(t, root, "open.md", "zephyr body")
	writeDoc(t, root, "locked.md", "hidden body")
	locked := filepath.Join(root, "locked.md")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	docs := models.Manifest{
		{Slug: "open", Title: "Open", FilePath: "open.md", Tags: []string{}},
		{Slug: "locked", Title: "Locked", FilePath: "locked.md", Tags: []string{}},
	}
	if err := Sync(db, store, docs, discard()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	results, err := db.Search("zephyr", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Slug != "open" {
		t.Errorf("search = %+v, want open", results)
	}
	if n, _ := db.Count(); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestSync_DanglingLinkDoesNotBlockOthers(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	store.Logger = discard()
	db := testDB(t)

	writeDoc(t, root, "open.md", "zephyr body")
	if err := os.Symlink(filepath.Join(root, "gone.md"), filepath.Join(root, "broken.md")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	docs := models.Manifest{{Slug: "open", Title: "Open", FilePath: "open.md", Tags: []string{}}}
	if err := Sync(db, store, docs, discard()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	results, err := db.Search("zephyr", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Slug != "open" {
		t.Errorf("search = %+v, want open", results)
	}
}
