// Package slug derives URL-safe identifiers for documents and headings.
package slug

import (
	"strconv"
	"strings"
)

// Make lowercases s and collapses every run of characters outside [a-z0-9]
// into a single hyphen. Leading and trailing hyphens are dropped, so the
// result may be empty.
func Make(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Deduper hands out unique slugs within one scope (a document's headings,
// or the documents of one manifest). The zero value is ready to use.
type Deduper struct {
	used map[string]struct{}
	next map[string]int
}

// Unique returns s the first time it is seen and s-1, s-2, ... afterwards.
// An empty s is treated as "section".
func (d *Deduper) Unique(s string) string {
	if s == "" {
		s = "section"
	}
	if d.used == nil {
		d.used = make(map[string]struct{})
		d.next = make(map[string]int)
	}
	for n := d.next[s]; ; n++ {
		candidate := s
		if n > 0 {
			candidate = s + "-" + strconv.Itoa(n)
		}
		if _, taken := d.used[candidate]; taken {
			continue
		}
		d.used[candidate] = struct{}{}
		d.next[s] = n + 1
		return candidate
	}
}
