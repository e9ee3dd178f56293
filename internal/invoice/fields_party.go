package invoice

import (
	"regexp"
	"strings"
)

// knownLiteral pins a recurring vendor or person whose OCR rendering varies.
type knownLiteral struct {
	pattern *regexp.Regexp
	value   string
}

const legalSuffix = `(?i:L\.?\s?L\.?\s?C\.?|Ltd\.?|Limited|Inc\.?|Incorporated|Corp\.?|Corporation|Co\.|Company|PLC|FZE|FZCO|FZ-LLC)`

var (
	reCompanySkip     = regexp.MustCompile(`(?i)^(?:Invoice|Tax\s*Invoice|Date|Total|TRN|VAT|Amount|Payment|Tel|Phone|Fax|E-?mail|P\.?\s*O\b|Address|Bill\s*To|Ship\s*To|Sold\s*To|Customer|Page|Welding|Industrial|Description|Qty|Quantity|Item\s*(?:Code|Desc)|S[LR]?\.?\s*No\b)`)
	rePunctOnly       = regexp.MustCompile(`^[\d\s,.\-/:]+$`)
	reLeadingSerial   = regexp.MustCompile(`^\d+\s+`)
	reLegalSuffix     = regexp.MustCompile(`\b` + legalSuffix + `(?:[\s,]|$)`)
	reLegalCapture    = regexp.MustCompile(`^([A-Z][^,\d]*?\b` + legalSuffix + `(?:\s+` + legalSuffix + `)*)(?:[\s,]|$)`)
	reContactToken    = regexp.MustCompile(`(?i)\b(?:Tel|Fax|Email|Phone|Mob|Box|Address)\b|\d{7,}|@`)
	reBusinessWord    = regexp.MustCompile(`(?i)\b(?:Trading|Enterprises?|Group|Industries|International|Piping|Engineering|Contracting|Establishment)\b`)
	reBusinessCapture = regexp.MustCompile(`^([A-Z][^,]*?)(?:,|\s\d{5,}|$)`)
	reGenericCapture  = regexp.MustCompile(`^([A-Z][^,\d]*?)(?:,|\d{5,}|\b(?:TRN|VAT|Tel|Fax)\b|$)`)
	reLongWord        = regexp.MustCompile(`[A-Za-z]{8,}`)
	reCompanyNoise    = regexp.MustCompile(`[|\\]`)
)

func cleanCompanyName(s string) string {
	s = reCompanyNoise.ReplaceAllString(s, "")
	s = collapseSpaces(s)
	s = reLeadingSerial.ReplaceAllString(s, "")
	return strings.TrimRight(s, "-, ")
}

func companyNameRule(known []knownLiteral) fieldRule {
	strategies := make([]strategy, 0, len(known)+3)
	for _, k := range known {
		strategies = append(strategies, strategy{name: "known-vendor", match: literal(30, k.pattern, k.value)})
	}
	strategies = append(strategies,
		strategy{name: "legal-suffix", match: companyLines(30, legalSuffixLine)},
		strategy{name: "business-word", match: companyLines(30, businessWordLine)},
		strategy{name: "capitalized", match: companyLines(15, capitalizedLine)},
	)
	return fieldRule{
		clean:      cleanCompanyName,
		valid:      all(lengthBetween(10, 100), rejects(rePunctOnly)),
		strategies: strategies,
	}
}

// companyLines applies pick to every plausible header line within the first n.
func companyLines(n int, pick func(string) (string, bool)) matcher {
	return func(lines []string) []string {
		var out []string
		for _, l := range head(lines, n) {
			if len(l) < 5 || rePunctOnly.MatchString(l) || reCompanySkip.MatchString(l) {
				continue
			}
			l = reLeadingSerial.ReplaceAllString(l, "")
			if reCompanySkip.MatchString(l) {
				continue
			}
			if v, ok := pick(l); ok {
				out = append(out, v)
			}
		}
		return out
	}
}

func legalSuffixLine(l string) (string, bool) {
	if !reLegalSuffix.MatchString(l) {
		return "", false
	}
	if m := reLegalCapture.FindStringSubmatch(l); m != nil {
		return m[1], true
	}
	if len(l) < 80 && !reContactToken.MatchString(l) {
		return l, true
	}
	return "", false
}

func businessWordLine(l string) (string, bool) {
	if !reBusinessWord.MatchString(l) {
		return "", false
	}
	if m := reBusinessCapture.FindStringSubmatch(l); m != nil {
		return m[1], true
	}
	return "", false
}

func capitalizedLine(l string) (string, bool) {
	if len(l) < 15 || len(l) > 100 || !reLongWord.MatchString(l) {
		return "", false
	}
	if m := reGenericCapture.FindStringSubmatch(l); m != nil {
		return m[1], true
	}
	return "", false
}

const salesLabel = `(?i:Sales\s*(?:man|person|rep(?:resentative)?|name|agent|executive))`

var (
	reSalesInline    = regexp.MustCompile(`\b` + salesLabel + `(?:\s*(?i:name))?\s*[:.\-]?\s*([A-Z][A-Za-z .]{2,50})`)
	reSalesAlone     = regexp.MustCompile(`^` + salesLabel + `(?:\s*(?i:name))?\s*[:.]?$`)
	reSalesNextValue = regexp.MustCompile(`^([A-Z][A-Za-z .]{2,49})$`)
	reNameShape      = regexp.MustCompile(`\b([A-Z]{3,}\s+[A-Z]\.\s*[A-Z]{3,})\b`)
	rePersonName     = regexp.MustCompile(`^[A-Z][A-Za-z\s.]+$`)
	reSalesKeyword   = regexp.MustCompile(`(?i)\b(?:Payment|Terms|Date|Ship|Invoice|Total|Customer|Number|TRN|Tax|Delivery|Rate|Amount|Qty|Price|UOM|Legal|Industrial|Code)\b`)
	reTrailingNoise  = regexp.MustCompile(`[^A-Za-z.]+$`)
)

// salesWindow bounds the salesperson search to the upper part of the document,
// where the header block lives, without starving short documents.
func salesWindow(total int) int {
	return min(max(total*7/10, min(total, 20)), 120)
}

func salespersonRule(known []knownLiteral) fieldRule {
	strategies := make([]strategy, 0, len(known)+3)
	for _, k := range known {
		strategies = append(strategies, strategy{name: "known-person", match: literal(0, k.pattern, k.value)})
	}
	strategies = append(strategies,
		strategy{name: "labeled", match: within(salesWindow, inline(0, reSalesInline))},
		strategy{name: "next-line", match: within(salesWindow, nextLine(0, reSalesAlone, reSalesNextValue, 3))},
		strategy{name: "name-shape", match: within(salesWindow, inline(0, reNameShape))},
	)
	return fieldRule{
		clean: func(s string) string {
			return strings.TrimSpace(reTrailingNoise.ReplaceAllString(collapseSpaces(firstColumn(s)), ""))
		},
		valid:      all(lengthBetween(3, 50), matches(rePersonName), rejects(reSalesKeyword)),
		strategies: strategies,
	}
}

// within restricts m to a prefix of the document sized by window.
func within(window func(total int) int, m matcher) matcher {
	return func(lines []string) []string {
		return m(head(lines, window(len(lines))))
	}
}
