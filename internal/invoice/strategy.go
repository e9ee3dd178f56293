package invoice

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// matcher yields candidate values for a field in priority order.
type matcher func(lines []string) []string

// strategy is one self-contained extraction attempt with an optional
// acceptance test of its own on top of the field-wide validator.
type strategy struct {
	name   string
	match  matcher
	accept func(string) bool
}

// fieldRule is the declarative cascade for one scalar field.
type fieldRule struct {
	clean      func(string) string
	valid      func(string) bool
	strategies []strategy
}

// run returns the first candidate that survives cleaning, the strategy's own
// acceptance test and the field validator, along with the strategy name.
func (r fieldRule) run(lines []string) (string, string) {
	for _, s := range r.strategies {
		for _, c := range s.match(lines) {
			if r.clean != nil {
				c = r.clean(c)
			}
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if s.accept != nil && !s.accept(c) {
				continue
			}
			if r.valid != nil && !r.valid(c) {
				continue
			}
			return c, s.name
		}
	}
	return constants.NotFound, ""
}

// literal yields value when re matches any of the first n lines.
func literal(n int, re *regexp.Regexp, value string) matcher {
	return func(lines []string) []string {
		for _, l := range head(lines, n) {
			if re.MatchString(l) {
				return []string{value}
			}
		}
		return nil
	}
}

// inline yields the first capture group of every pattern match, line by line.
func inline(n int, res ...*regexp.Regexp) matcher {
	return func(lines []string) []string {
		var out []string
		for _, l := range head(lines, n) {
			out = appendCaptures(out, l, res)
		}
		return out
	}
}

// labeled finds each occurrence of label and yields values captured after it
// on the same line, then on the following line. Occurrences whose preceding
// text matches skipPrefix are ignored.
func labeled(n int, label, skipPrefix *regexp.Regexp, values ...*regexp.Regexp) matcher {
	return func(lines []string) []string {
		var out []string
		for i, l := range head(lines, n) {
			for _, loc := range label.FindAllStringIndex(l, -1) {
				if skipPrefix != nil && skipPrefix.MatchString(l[:loc[0]]) {
					continue
				}
				out = appendCaptures(out, l[loc[1]:], values)
				if i+1 < len(lines) {
					out = appendCaptures(out, lines[i+1], values)
				}
			}
		}
		return out
	}
}

// nextLine handles a label standing alone on its line with the value on one
// of the following lookahead lines.
func nextLine(n int, label, value *regexp.Regexp, lookahead int) matcher {
	return func(lines []string) []string {
		var out []string
		for i, l := range head(lines, n) {
			if !label.MatchString(l) {
				continue
			}
			for j := i + 1; j <= i+lookahead && j < len(lines); j++ {
				if m := value.FindStringSubmatch(lines[j]); len(m) > 1 {
					out = append(out, m[1])
				}
			}
		}
		return out
	}
}

func appendCaptures(out []string, s string, res []*regexp.Regexp) []string {
	for _, re := range res {
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			if len(m) > 1 && m[1] != "" {
				out = append(out, m[1])
			}
		}
	}
	return out
}

func lengthBetween(lo, hi int) func(string) bool {
	return func(s string) bool {
		n := len([]rune(s))
		return n >= lo && n <= hi
	}
}

func matches(re *regexp.Regexp) func(string) bool {
	return func(s string) bool { return re.MatchString(s) }
}

func rejects(re *regexp.Regexp) func(string) bool {
	return func(s string) bool { return !re.MatchString(s) }
}

func all(preds ...func(string) bool) func(string) bool {
	return func(s string) bool {
		for _, p := range preds {
			if !p(s) {
				return false
			}
		}
		return true
	}
}
