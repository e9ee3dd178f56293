package invoice

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// DefaultMaxMergeLines bounds how many continuation lines one row may absorb.
const DefaultMaxMergeLines = 2

// maxLineAmount drops reference numbers (phone, TRN) that leak into rows.
const maxLineAmount = 1_000_000

var (
	reToken       = regexp.MustCompile(`\S+`)
	rePlainNumber = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	reGroupNumber = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
	rePercentTok  = regexp.MustCompile(`^(\d{1,2}(?:\.\d{1,2})?)%$`)
)

// RowParser turns one table row, possibly spread over several OCR lines,
// into a LineItem.
type RowParser struct {
	lib      *Library
	maxMerge int
	scoring  bool
}

// NewRowParser creates a row parser. Non-positive maxMerge selects DefaultMaxMergeLines.
func NewRowParser(lib *Library, maxMerge int, arithmeticScoring bool) *RowParser {
	if lib == nil {
		lib = DefaultLibrary()
	}
	if maxMerge <= 0 {
		maxMerge = DefaultMaxMergeLines
	}
	return &RowParser{lib: lib, maxMerge: maxMerge, scoring: arithmeticScoring}
}

// ParseRow parses lines[i] together with any continuation lines. It returns
// the item, the number of lines consumed and whether the item is valid.
func (p *RowParser) ParseRow(lines []string, i int) (LineItem, int, bool) {
	if i < 0 || i >= len(lines) {
		return LineItem{}, 0, false
	}
	line, consumed := p.merge(lines, i)
	item := p.ParseLine(line)
	return item, consumed, item.Valid()
}

// merge joins following lines onto lines[i] while it lacks a trailing amount.
func (p *RowParser) merge(lines []string, i int) (string, int) {
	line := lines[i]
	consumed := 1
	for j := i + 1; j < len(lines) && consumed <= p.maxMerge; j++ {
		if p.lib.terminalAmount.MatchString(line) || !p.continues(lines[j]) {
			break
		}
		line += " " + lines[j]
		consumed++
	}
	return line, consumed
}

func (p *RowParser) continues(next string) bool {
	if !strings.ContainsAny(next, "0123456789") {
		return false
	}
	if p.lib.tableEnd.MatchString(next) || p.lib.mergeStop.MatchString(next) || p.lib.nonItem.MatchString(next) {
		return false
	}
	return !p.startsItem(next)
}

// startsItem reports whether l opens a new row: a serial followed by a word,
// a serial or line start followed by a code, or a long capitalised word.
func (p *RowParser) startsItem(l string) bool {
	if p.lib.codeStart.MatchString(l) {
		return true
	}
	if m := p.lib.newItemStart.FindStringSubmatch(l); m != nil {
		if _, isUOM := constants.CanonicalUOM(m[1]); !isUOM {
			return true
		}
	}
	letters := 0
	for _, r := range l {
		if r < 'A' || r > 'Z' {
			break
		}
		letters++
	}
	return letters >= 5
}

// ParseLine extracts every column from a single logical row.
func (p *RowParser) ParseLine(line string) LineItem {
	var item LineItem

	bodyStart := 0
	if loc := p.lib.rowSerial.FindStringIndex(line); loc != nil {
		bodyStart = loc[1]
	}

	work := line
	if code, start, end := p.itemCode(line, bodyStart); code != "" {
		item.ItemCode = code
		work = line[:start] + strings.Repeat(" ", end-start) + line[end:]
	}

	descStart, descEnd, desc := p.description(work, bodyStart)
	item.Description = desc

	uomFrom := bodyStart
	if descEnd > 0 {
		uomFrom = descEnd
	}
	if m := p.lib.uom.FindStringSubmatch(work[uomFrom:]); m != nil {
		if u, ok := constants.CanonicalUOM(m[1]); ok {
			item.UOM = u
		}
	}

	nums := p.numbers(work, bodyStart, descStart, descEnd)
	explicitPct := ""
	if m := p.lib.vatPercent.FindStringSubmatch(work[bodyStart:]); m != nil {
		explicitPct = m[1]
	}
	applyBinding(&item, nums, p.binding(nums), explicitPct)
	return item
}

// itemCode returns the first plausible product code after the serial with its
// byte offsets in line. Numbers carrying the tax-ID prefix are never codes.
func (p *RowParser) itemCode(line string, from int) (string, int, int) {
	body := line[from:]
	for _, re := range p.lib.itemCodes {
		for _, m := range re.FindAllStringSubmatchIndex(body, -1) {
			code := body[m[2]:m[3]]
			if len(code) < 4 || len(code) > 15 || strings.HasPrefix(code, p.lib.taxIDPrefix) {
				continue
			}
			return code, from + m[2], from + m[3]
		}
	}
	return "", 0, 0
}

// description returns the description and its byte span in work. The span is
// zero when nothing was found.
func (p *RowParser) description(work string, bodyStart int) (int, int, string) {
	rest := work[bodyStart:]
	lead := bodyStart + len(rest) - len(strings.TrimLeft(rest, " \t"))
	seg := work[lead:]

	for _, re := range p.lib.descriptions {
		m := re.FindStringSubmatchIndex(seg)
		if m == nil {
			continue
		}
		if d := cleanDescription(seg[m[2]:m[3]]); d != "" {
			return lead + m[2], lead + m[3], d
		}
	}

	// Fall back to the leading alphabetic tokens.
	const maxTokens = 10
	var words []string
	start, end := 0, 0
	for _, loc := range reToken.FindAllStringIndex(seg, -1) {
		tok := seg[loc[0]:loc[1]]
		if p.lib.longNumber.MatchString(tok) {
			break
		}
		if _, isUOM := constants.CanonicalUOM(tok); isUOM && len(words) > 0 {
			break
		}
		if !p.lib.letters.MatchString(tok) {
			continue
		}
		if len(words) == 0 {
			start = lead + loc[0]
		}
		words = append(words, tok)
		end = lead + loc[1]
		if len(words) == maxTokens {
			break
		}
	}
	if d := cleanDescription(strings.Join(words, " ")); d != "" {
		return start, end, d
	}
	return 0, 0, ""
}

func cleanDescription(s string) string {
	s = collapseSpaces(s)
	s = reLeadingSerial.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.TrimRight(s, ":;,- "))
}

// numbers collects the numeric tokens of a row in order, skipping the serial
// and anything inside the description span. Percent tokens keep only their value.
func (p *RowParser) numbers(work string, bodyStart, descStart, descEnd int) []string {
	var out []string
	for _, loc := range reToken.FindAllStringIndex(work, -1) {
		if loc[0] < bodyStart || (descEnd > 0 && loc[0] >= descStart && loc[1] <= descEnd) {
			continue
		}
		tok := strings.TrimRight(work[loc[0]:loc[1]], ",;:")
		var v string
		switch {
		case rePlainNumber.MatchString(tok):
			v = tok
		case reGroupNumber.MatchString(tok):
			v = strings.ReplaceAll(tok, ",", "")
		default:
			if m := rePercentTok.FindStringSubmatch(tok); m != nil {
				v = m[1]
			}
		}
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err != nil || f >= maxLineAmount {
			continue
		}
		out = append(out, v)
	}
	return out
}
