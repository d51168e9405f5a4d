// Package frontmatter splits the YAML header block from a markdown document
// and decodes the fields the manifest cares about.
package frontmatter

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// ISOLayout is the timestamp layout used for every date written to the manifest.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// Header holds the known header-block fields. Values that were absent or
// empty are left as zero values.
type Header struct {
	Title       string
	Category    string
	Tags        []string
	Date        string
	Description string
	Extra       map[string]any
}

// FormatTime renders t the way the manifest stores dates.
func FormatTime(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// Split separates a leading header block from the body. A block exists only
// when the first line is "---" and a later line is "---"; otherwise the input
// is returned unchanged as the body. Blank lines right after the closing
// delimiter are not part of the body.
func Split(raw string) (block, body string, ok bool) {
	first, _, found := strings.Cut(raw, "\n")
	if !found || !isDelimiter(first) {
		return "", raw, false
	}

	start := len(first) + 1
	for pos := start; pos < len(raw); {
		end := strings.IndexByte(raw[pos:], '\n')
		line := raw[pos:]
		if end >= 0 {
			line = raw[pos : pos+end]
		}
		if isDelimiter(line) {
			block = raw[start:pos]
			if end < 0 {
				return block, "", true
			}
			return block, strings.TrimLeft(raw[pos+end+1:], "\r\n"), true
		}
		if end < 0 {
			break
		}
		pos += end + 1
	}

	// No closing delimiter: everything is body.
	return "", raw, false
}

// Strip returns raw without its header block.
func Strip(raw string) string {
	_, body, _ := Split(raw)
	return body
}

// Parse splits raw and decodes its header block. Documents without a block
// yield an empty Header. Malformed YAML is reported as an error.
func Parse(raw string) (Header, string, error) {
	block, body, ok := Split(raw)
	if !ok {
		return Header{}, body, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(block), &fields); err != nil {
		return Header{}, body, fmt.Errorf("frontmatter: decode header block: %w", err)
	}

	h := Header{
		Title:       scalar(fields["title"]),
		Category:    scalar(fields["category"]),
		Tags:        tags(fields["tags"]),
		Date:        scalar(fields["date"]),
		Description: scalar(fields["description"]),
		Extra:       make(map[string]any),
	}
	if ts, ok := timestamp(block); ok {
		h.Date = FormatTime(ts)
	}
	for k, v := range fields {
		switch k {
		case "title", "category", "tags", "date", "description":
		default:
			h.Extra[k] = v
		}
	}
	return h, body, nil
}

// timestamp reports the date field when it is an unquoted YAML timestamp.
// Decoding into map[string]any keeps such values as strings.
func timestamp(block string) (time.Time, bool) {
	var doc struct {
		Date yaml.Node `yaml:"date"`
	}
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return time.Time{}, false
	}
	if doc.Date.Kind != yaml.ScalarNode || doc.Date.ShortTag() != "!!timestamp" {
		return time.Time{}, false
	}
	var ts time.Time
	if err := doc.Date.Decode(&ts); err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == delim
}

// scalar flattens a decoded YAML value into a string. Timestamps are
// normalised to ISOLayout.
func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case time.Time:
		return FormatTime(x)
	default:
		return fmt.Sprint(x)
	}
}

// tags accepts a YAML sequence or a comma-separated string.
func tags(v any) []string {
	out := []string{}
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if s := scalar(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(x, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
