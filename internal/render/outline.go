package render

import (
	"iter"
	"regexp"
	"strings"

	"github.com/starford/docsite/internal/slug"
)

// OutlineEntry is one heading in a document's navigation outline.
type OutlineEntry struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Slug  string `json:"slug"`
}

// Outline levels.
const (
	MinOutlineLevel = 2
	MaxOutlineLevel = 4
)

var (
	atxHeading    = regexp.MustCompile(`^( {0,3})(#{1,6})\s+(.+)$`)
	closingHashes = regexp.MustCompile(`\s+#+$`)
)

// Headings yields the level 2-4 headings of body in document order. Only
// headings starting in column 0 are listed, but every ATX heading, at any
// level and with up to three spaces of indent, feeds the anchor counter so
// slugs match the ids assigned by Render. Lines inside fenced code are
// ignored. Each range re-scans body.
func Headings(body string) iter.Seq[OutlineEntry] {
	return func(yield func(OutlineEntry) bool) {
		var (
			ids   slug.Deduper
			fence string
		)
		for line := range strings.Lines(body) {
			line = strings.TrimRight(line, "\r\n")
			if marker := fenceMarker(line); marker != "" {
				switch {
				case fence == "":
					fence = marker
				case marker[0] == fence[0] && len(marker) >= len(fence):
					fence = ""
				}
				continue
			}
			if fence != "" {
				continue
			}

			m := atxHeading.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			level := len(m[2])
			text := strings.TrimSpace(closingHashes.ReplaceAllString(m[3], ""))
			id := ids.Unique(slug.Make(text))
			if m[1] != "" || level < MinOutlineLevel || level > MaxOutlineLevel {
				continue
			}
			if !yield(OutlineEntry{Level: level, Text: text, Slug: id}) {
				return
			}
		}
	}
}

// Outline collects Headings into a slice. Never nil.
func Outline(body string) []OutlineEntry {
	out := []OutlineEntry{}
	for e := range Headings(body) {
		out = append(out, e)
	}
	return out
}

// fenceMarker returns the run of backticks or tildes opening line, or "".
func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return ""
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return ""
	}
	return trimmed[:n]
}
