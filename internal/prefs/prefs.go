// Package prefs keeps the reader's presentation preferences: color scheme,
// prose theme and code theme. Preferences are loaded once, updated on user
// action and persisted on every change.
package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/natefinch/atomic"

	"github.com/starford/docsite/internal/apperr"
	"github.com/starford/docsite/internal/render"
)

// Color schemes.
const (
	SchemeLight  = "light"
	SchemeDark   = "dark"
	SchemeSystem = "system"
)

// Preferences is the persisted preference record.
type Preferences struct {
	ColorScheme    string `json:"colorScheme"`
	MarkdownTheme  string `json:"markdownTheme"`
	HighlightTheme string `json:"highlightTheme"`
}

// Defaults returns the preferences used before anything is stored.
func Defaults() Preferences {
	t := render.DefaultTheme()
	return Preferences{
		ColorScheme:    SchemeSystem,
		MarkdownTheme:  t.Markdown,
		HighlightTheme: t.Highlight,
	}
}

// Validate checks every field against the known values.
func (p Preferences) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ColorScheme, validation.Required, validation.In(SchemeLight, SchemeDark, SchemeSystem)),
		validation.Field(&p.MarkdownTheme, validation.Required, validation.In(names(render.MarkdownThemes)...)),
		validation.Field(&p.HighlightTheme, validation.Required, validation.In(names(render.HighlightThemes)...)),
	)
}

// Theme is the render theme selected by p.
func (p Preferences) Theme() render.Theme {
	return render.Theme{Markdown: p.MarkdownTheme, Highlight: p.HighlightTheme}.WithDefaults()
}

// NextColorScheme cycles light, dark, system.
func NextColorScheme(current string) string {
	switch current {
	case SchemeLight:
		return SchemeDark
	case SchemeDark:
		return SchemeSystem
	default:
		return SchemeLight
	}
}

// Patch is a partial update; empty fields are left unchanged.
type Patch struct {
	ColorScheme    string `json:"colorScheme,omitempty"`
	MarkdownTheme  string `json:"markdownTheme,omitempty"`
	HighlightTheme string `json:"highlightTheme,omitempty"`
}

func (p Patch) apply(cur Preferences) Preferences {
	if p.ColorScheme != "" {
		cur.ColorScheme = p.ColorScheme
	}
	if p.MarkdownTheme != "" {
		cur.MarkdownTheme = p.MarkdownTheme
	}
	if p.HighlightTheme != "" {
		cur.HighlightTheme = p.HighlightTheme
	}
	return cur
}

// Store owns the current preferences. When the backing file cannot be read
// or written the store keeps working in memory for the session.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	cur Preferences
}

// Open loads preferences from path. An empty path keeps everything in
// memory. Missing, unreadable or invalid files fall back to fallback.
func Open(path string, fallback Preferences, logger *slog.Logger) *Store {
	if fallback.Validate() != nil {
		fallback = Defaults()
	}
	s := &Store{path: path, logger: logger, cur: fallback}
	if path == "" {
		return s
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s
	case err != nil:
		logger.Warn("preferences unreadable, using defaults", slog.String("path", path), slog.String("error", err.Error()))
		return s
	}

	var stored Preferences
	if err := json.Unmarshal(data, &stored); err != nil {
		logger.Warn("preferences malformed, using defaults", slog.String("path", path), slog.String("error", err.Error()))
		return s
	}
	// Fields missing from older files keep their fallback values.
	stored = Patch(stored).apply(fallback)
	if err := stored.Validate(); err != nil {
		logger.Warn("preferences invalid, using defaults", slog.String("path", path), slog.String("error", err.Error()))
		return s
	}
	s.cur = stored
	return s
}

// Get returns the current preferences.
func (s *Store) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Theme returns the render theme for the current preferences.
func (s *Store) Theme() render.Theme {
	return s.Get().Theme()
}

// Update applies patch, validates the result and persists it. Unknown
// values are rejected with apperr.ErrInvalidTheme and nothing changes.
// A failed write is logged; the new value stays active in memory.
func (s *Store) Update(patch Patch) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := patch.apply(s.cur)
	if err := next.Validate(); err != nil {
		return s.cur, fmt.Errorf("prefs: %w: %s", apperr.ErrInvalidTheme, err.Error())
	}
	s.cur = next
	s.persist(next)
	return next, nil
}

// CycleColorScheme advances the color scheme and persists it.
func (s *Store) CycleColorScheme() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.ColorScheme = NextColorScheme(s.cur.ColorScheme)
	s.persist(s.cur)
	return s.cur
}

func (s *Store) persist(p Preferences) {
	if s.path == "" {
		return
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		s.logger.Error("failed to encode preferences", slog.String("error", err.Error()))
		return
	}
	err = os.MkdirAll(filepath.Dir(s.path), 0o755)
	if err == nil {
		err = atomic.WriteFile(s.path, bytes.NewReader(data))
	}
	if err != nil {
		s.logger.Warn("preferences not persisted", slog.String("path", s.path), slog.String("error", err.Error()))
	}
}

func names(opts []render.ThemeOption) []any {
	out := make([]any, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Name)
	}
	return out
}
