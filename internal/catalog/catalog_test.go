package catalog

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/docsite/internal/apperr"
	"github.com/starford/docsite/internal/models"
)

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func sample() models.Manifest {
	return models.Manifest{
		{Slug: "release", Title: "Release Notes", Category: "News", Tags: []string{"changelog"}, Description: "What shipped."},
		{Slug: "intro", Title: "Introduction", Category: "General", Tags: []string{}, Description: "Start here."},
		{Slug: "api", Title: "API Reference", Category: "Reference", Tags: []string{"http", "Go"}, Description: "Endpoints."},
		{Slug: "faq", Title: "FAQ", Category: "General", Tags: []string{}, Description: "Common questions about the API."},
	}
}

func slugs(docs models.Manifest) []string {
	out := []string{}
	for _, d := range docs {
		out = append(out, d.Slug)
	}
	return out
}

func TestLoad_MissingFile(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "manifest.json"), discard())
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if c.Documents() == nil {
		t.Error("Documents must not be nil")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if c := Load(p, discard()); c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestLoad_Valid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "manifest.json")
	data := `[{"slug":"a","title":"A","category":"General","date":"2024-01-01"}]`
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c := Load(p, discard())
	d, err := c.Find("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Title != "A" || d.Tags == nil {
		t.Errorf("doc = %+v", d)
	}
}

func TestFind_NotFound(t *testing.T) {
	_, err := New(sample()).Find("missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCategories_GeneralFirst(t *testing.T) {
	cats := New(sample()).Categories()
	var names []string
	for _, c := range cats {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"General", "News", "Reference"}, names); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"intro", "faq"}, slugs(cats[0].Documents)); diff != "" {
		t.Errorf("General documents mismatch (-want +got):\n%s", diff)
	}
}

func TestInCategory(t *testing.T) {
	got := slugs(New(sample()).InCategory("Reference"))
	if diff := cmp.Diff([]string{"api"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRecent(t *testing.T) {
	c := New(sample())
	if got := slugs(c.Recent(2)); !cmp.Equal(got, []string{"release", "intro"}) {
		t.Errorf("Recent(2) = %v", got)
	}
	if got := c.Recent(0); len(got) != 4 {
		t.Errorf("Recent(0) len = %d, want 4", len(got))
	}
}

func TestSearch(t *testing.T) {
	c := New(sample())
	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"title case-insensitive", "introduction", 0, []string{"intro"}},
		{"description", "api", 0, []string{"api", "faq"}},
		{"category", "news", 0, []string{"release"}},
		{"tag", "go", 0, []string{"api"}},
		{"blank", "   ", 0, []string{}},
		{"limit", "e", 2, []string{"release", "intro"}},
		{"no match", "zzz", 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slugs(c.Search(tt.query, tt.limit))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Search(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestSearch_DefaultCap(t *testing.T) {
	var docs models.Manifest
	for i := 0; i < 25; i++ {
		docs = append(docs, models.Document{Slug: string(rune('a' + i)), Title: "Doc"})
	}
	if got := New(docs).Search("doc", 0); len(got) != DefaultSearchLimit {
		t.Errorf("len = %d, want %d", len(got), DefaultSearchLimit)
	}
}

func TestStore_Reload(t *testing.T) {
	p := filepath.Join(t.TempDir(), "manifest.json")
	s := NewStore(p, discard())
	if s.Current().Len() != 0 {
		t.Fatal("expected empty catalog")
	}
	if err := os.WriteFile(p, []byte(`[{"slug":"x","title":"X"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if c := s.Reload(); c.Len() != 1 {
		t.Errorf("Len after reload = %d, want 1", c.Len())
	}
	if _, err := s.Current().Find("x"); err != nil {
		t.Errorf("Find after reload: %v", err)
	}
}
