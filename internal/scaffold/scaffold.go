// Package scaffold creates new document stubs in the content tree.
package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/docsite/internal/apperr"
	"github.com/starford/docsite/internal/models"
	"github.com/starford/docsite/internal/slug"
)

// ErrEmptyTitle is returned when the title yields no usable file name.
var ErrEmptyTitle = errors.New("scaffold: title must contain a letter or digit")

const body = `
# %s

Write your content here...

## Section 1

Content for section 1.

## Section 2

Content for section 2.

## Conclusion

Summary and key takeaways.
`

// Result describes a created document.
type Result struct {
	Slug     string
	Path     string
	Title    string
	Category string
}

// Create writes <root>/<slug>.md for title. An existing file is never
// overwritten: apperr.ErrAlreadyExists is returned and nothing is written.
// An empty category means the default one.
func Create(root, title, category string, now time.Time) (Result, error) {
	title = strings.Join(strings.Fields(title), " ")
	s := slug.Make(title)
	if s == "" {
		return Result{}, ErrEmptyTitle
	}
	if strings.TrimSpace(category) == "" {
		category = models.DefaultCategory
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return Result{}, fmt.Errorf("scaffold: create content dir: %w", err)
	}

	p := filepath.Join(root, s+".md")
	content, err := Template(title, category, now)
	if err != nil {
		return Result{}, err
	}

	// O_EXCL keeps a concurrent writer from being clobbered.
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return Result{}, fmt.Errorf("scaffold: %s.md: %w", s, apperr.ErrAlreadyExists)
		}
		return Result{}, fmt.Errorf("scaffold: create %s: %w", p, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(p)
		return Result{}, fmt.Errorf("scaffold: write %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("scaffold: close %s: %w", p, err)
	}
	return Result{Slug: s, Path: p, Title: title, Category: category}, nil
}

// Template renders the stub for a new document dated now.
func Template(title, category string, now time.Time) (string, error) {
	t, err := scalar(title)
	if err != nil {
		return "", err
	}
	c, err := scalar(category)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", t)
	fmt.Fprintf(&b, "category: %s\n", c)
	b.WriteString("tags: []\n")
	fmt.Fprintf(&b, "date: %s\n", now.UTC().Format(time.DateOnly))
	b.WriteString("---\n")
	fmt.Fprintf(&b, body, title)
	return b.String(), nil
}

// scalar encodes s as a single-line YAML scalar, quoting only when needed.
func scalar(s string) (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("scaffold: encode %q: %w", s, err)
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}
