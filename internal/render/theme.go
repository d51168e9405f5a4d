package render

import (
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/starford/docsite/internal/apperr"
)

// Markdown (prose) themes.
const (
	MarkdownDefault  = "default"
	MarkdownOcean    = "ocean"
	MarkdownSunset   = "sunset"
	MarkdownForest   = "forest"
	MarkdownMidnight = "midnight"
)

// Code highlight themes.
const (
	HighlightGitHubDark = "github-dark"
	HighlightMonokai    = "monokai"
	HighlightNord       = "nord"
	HighlightDracula    = "dracula"
	HighlightTokyoNight = "tokyo-night"
)

// ThemeOption is a selectable theme with its display label.
type ThemeOption struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// MarkdownThemes lists the prose themes in display order.
var MarkdownThemes = []ThemeOption{
	{MarkdownDefault, "Default Elegant"},
	{MarkdownOcean, "Ocean Blue"},
	{MarkdownSunset, "Sunset Warm"},
	{MarkdownForest, "Forest Nature"},
	{MarkdownMidnight, "Midnight Dark"},
}

// HighlightThemes lists the code themes in display order.
var HighlightThemes = []ThemeOption{
	{HighlightGitHubDark, "GitHub Dark"},
	{HighlightMonokai, "Monokai"},
	{HighlightNord, "Nord"},
	{HighlightDracula, "Dracula"},
	{HighlightTokyoNight, "Tokyo Night"},
}

// chroma style backing each highlight theme.
var chromaStyles = map[string]string{
	HighlightGitHubDark: "github-dark",
	HighlightMonokai:    "monokai",
	HighlightNord:       "nord",
	HighlightDracula:    "dracula",
	HighlightTokyoNight: "tokyonight-night",
}

// Theme is the active presentation state handed to every render call.
type Theme struct {
	Markdown  string `json:"markdown"`
	Highlight string `json:"highlight"`
}

// DefaultTheme is used when no preference has been stored.
func DefaultTheme() Theme {
	return Theme{Markdown: MarkdownDefault, Highlight: HighlightGitHubDark}
}

// WithDefaults replaces unknown or empty theme names with the defaults.
func (t Theme) WithDefaults() Theme {
	d := DefaultTheme()
	if !IsMarkdownTheme(t.Markdown) {
		t.Markdown = d.Markdown
	}
	if !IsHighlightTheme(t.Highlight) {
		t.Highlight = d.Highlight
	}
	return t
}

// ProseClass is the class list for the element wrapping rendered markup.
func (t Theme) ProseClass() string {
	return "prose markdown-body prose-theme-" + t.WithDefaults().Markdown
}

// CodeClass is the theme class stamped on highlighted code elements.
func (t Theme) CodeClass() string {
	return "highlight-theme-" + t.WithDefaults().Highlight
}

// IsMarkdownTheme reports whether name is a known prose theme.
func IsMarkdownTheme(name string) bool {
	return hasOption(MarkdownThemes, name)
}

// IsHighlightTheme reports whether name is a known code theme.
func IsHighlightTheme(name string) bool {
	return hasOption(HighlightThemes, name)
}

// HighlightCSS returns the stylesheet for a highlight theme, scoped to
// elements carrying that theme's class.
func HighlightCSS(name string) (string, error) {
	styleName, ok := chromaStyles[name]
	if !ok {
		return "", fmt.Errorf("render: highlight theme %q: %w", name, apperr.ErrInvalidTheme)
	}
	var b strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&b, styles.Get(styleName)); err != nil {
		return "", fmt.Errorf("render: write css for %s: %w", name, err)
	}
	return strings.ReplaceAll(b.String(), ".chroma", ".highlight-theme-"+name), nil
}

func hasOption(opts []ThemeOption, name string) bool {
	for _, o := range opts {
		if o.Name == name {
			return true
		}
	}
	return false
}
