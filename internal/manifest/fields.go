package manifest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// WordsPerMinute is the reading speed used for ReadingTime.
const WordsPerMinute = 200

// MaxDescription is the hard cut applied to derived descriptions.
const MaxDescription = 200

var firstHeadingRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// ReadingTime returns ceil(words/200) for body. An empty body reads in 0 minutes.
func ReadingTime(body string) int {
	words := len(strings.Fields(body))
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// FirstHeading returns the text of the first level-1 heading in raw, or "".
// The scan runs over the raw text, header block included.
func FirstHeading(raw string) string {
	m := firstHeadingRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Description returns the first non-blank body line that is not a heading,
// cut to MaxDescription characters.
func Description(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return truncate(line, MaxDescription)
	}
	return ""
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
