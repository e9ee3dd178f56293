package invoice

import (
	"strings"
)

// DefaultHeaderScanLines bounds the header search to the top of the document.
const DefaultHeaderScanLines = 50

// minHeaderRoles is how many distinct roles a line needs to count as a header.
const minHeaderRoles = 3

// TableAnalyzer locates the line-item header and the end of the table body.
type TableAnalyzer struct {
	lib       *Library
	scanLines int
}

// NewTableAnalyzer creates an analyzer scanning the first scanLines lines for
// a header. Non-positive values select DefaultHeaderScanLines.
func NewTableAnalyzer(lib *Library, scanLines int) *TableAnalyzer {
	if lib == nil {
		lib = DefaultLibrary()
	}
	if scanLines <= 0 {
		scanLines = DefaultHeaderScanLines
	}
	return &TableAnalyzer{lib: lib, scanLines: scanLines}
}

// Analyze picks the first line naming at least three column roles as the
// header and ends the table at the first summary line after it.
func (a *TableAnalyzer) Analyze(lines []string) TableStructure {
	ts := newTableStructure()
	for i, l := range head(lines, a.scanLines) {
		cols := a.headerColumns(l)
		if len(cols) < minHeaderRoles {
			continue
		}
		ts.HeaderRow = i
		for role, pos := range cols {
			ts.Columns[role] = pos
		}
		break
	}
	if !ts.Detected() {
		return ts
	}

	ts.EndRow = len(lines)
	for i := ts.HeaderRow + 1; i < len(lines); i++ {
		if a.lib.tableEnd.MatchString(lines[i]) {
			ts.EndRow = i
			break
		}
	}
	return ts
}

// isHeader reports whether l reads like a column header line.
func (a *TableAnalyzer) isHeader(l string) bool {
	return len(a.headerColumns(l)) >= minHeaderRoles
}

// headerColumns maps the roles named on a line to the position of the token
// that first named them. Token pairs are tried before single tokens so that
// "Unit Price" is a rate rather than a UOM followed by a rate.
func (a *TableAnalyzer) headerColumns(l string) map[ColumnRole]int {
	tokens := strings.Fields(strings.ToUpper(l))
	cols := make(map[ColumnRole]int)
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			pair := tokens[i] + " " + tokens[i+1]
			if a.lib.serialHeader.MatchString(pair) {
				i++
				continue
			}
			if role, ok := a.matchRole(pair, true); ok {
				if _, seen := cols[role]; !seen {
					cols[role] = i
				}
				i++
				continue
			}
		}
		tok := tokens[i]
		if a.lib.serialHeader.MatchString(tok) {
			continue
		}
		if role, ok := a.matchRole(tok, false); ok {
			if _, seen := cols[role]; !seen {
				cols[role] = i
			}
		}
	}
	return cols
}

// matchRole finds the first role with a synonym of the requested arity that
// fits s. Short synonyms must equal the token; longer ones may be contained in it.
func (a *TableAnalyzer) matchRole(s string, pair bool) (ColumnRole, bool) {
	bare := strings.Trim(s, ".:,;()")
	for _, rs := range a.lib.roles {
		for _, w := range rs.words {
			if strings.Contains(w, " ") != pair {
				continue
			}
			if len(w) <= 2 {
				if bare == w {
					return rs.role, true
				}
				continue
			}
			if strings.Contains(s, w) {
				return rs.role, true
			}
		}
	}
	return 0, false
}
