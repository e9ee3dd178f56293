package invoice

import (
	"regexp"
	"strings"
)

var (
	reLineBreak = regexp.MustCompile(`\r\n|\r|\n`)
	reSpaces    = regexp.MustCompile(`\s+`)
	reColumnGap = regexp.MustCompile(`\s{2,}|\t`)
)

// SplitLines breaks OCR text into trimmed, non-blank lines.
func SplitLines(text string) []string {
	raw := reLineBreak.Split(text, -1)
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// head returns at most the first n lines; n <= 0 means all of them.
func head(lines []string, n int) []string {
	if n <= 0 || n >= len(lines) {
		return lines
	}
	return lines[:n]
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// firstColumn cuts s at the first wide gap, which in OCR output separates columns.
func firstColumn(s string) string {
	s = strings.TrimSpace(s)
	if loc := reColumnGap.FindStringIndex(s); loc != nil {
		return s[:loc[0]]
	}
	return s
}
