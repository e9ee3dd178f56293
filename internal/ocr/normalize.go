package ocr

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reZeroWidth  = regexp.MustCompile("[\u200B\u200C\u200D\u2060\uFEFF]")
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// Normalize folds compatibility characters and line endings. Runs of spaces
// are kept because they separate table columns.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = norm.NFKC.String(s)
	s = reZeroWidth.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\t", "  ")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}
