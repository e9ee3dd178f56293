package invoice

import (
	"regexp"
	"strings"
)

var (
	reHasDigit      = regexp.MustCompile(`\d`)
	reDateLike      = regexp.MustCompile(`^\d{1,2}[-/.]\d{1,2}`)
	reInvoiceKeywrd = regexp.MustCompile(`(?i)^(?:date|tax|total|amount|ref|number|no|customer|value|salesman|legal|invoice|page|original|copy)$`)
	reSixDigits     = regexp.MustCompile(`\b(\d{6})\b`)
	reInvoiceWord   = regexp.MustCompile(`(?i)\b(?:invoice|inv|tax)\b`)
)

func invoiceNumberRule() fieldRule {
	const value = `([A-Z0-9][A-Z0-9\-/]{2,19})`
	const sep = `\s*[:.#\-]?\s*`
	return fieldRule{
		clean: func(s string) string { return strings.TrimRight(s, "-/") },
		valid: all(lengthBetween(3, 20), matches(reHasDigit), rejects(reDateLike), rejects(reInvoiceKeywrd)),
		strategies: []strategy{
			{
				name: "labeled",
				match: inline(50,
					regexp.MustCompile(`(?i)\bInvoice\s*(?:No\.?|Number|#)`+sep+value),
					regexp.MustCompile(`(?i)\bInv\.?\s*(?:No\.?|Number|#)`+sep+value),
					regexp.MustCompile(`(?i)\bTax\s*Invoice\s*(?:No\.?|Number|#)?`+sep+value),
				),
			},
			{
				name: "next-line",
				match: nextLine(50,
					regexp.MustCompile(`(?i)^(?:Tax\s*)?(?:Invoice|Inv\.?)\s*(?:No\.?|Number|#)\s*[:.]?$`),
					regexp.MustCompile(`^([A-Z0-9][A-Z0-9\-/]{2,19})(?:\s|$)`),
					1,
				),
			},
			{
				name:  "six-digit",
				match: sixDigitNearInvoiceWord(30),
			},
		},
	}
}

// sixDigitNearInvoiceWord looks for a bare six digit number on a line that, or
// whose predecessor, mentions an invoice. Lines carrying a date are skipped.
func sixDigitNearInvoiceWord(n int) matcher {
	return func(lines []string) []string {
		var out []string
		w := head(lines, n)
		for i, l := range w {
			if hasDate(l) {
				continue
			}
			if !reInvoiceWord.MatchString(l) && (i == 0 || !reInvoiceWord.MatchString(w[i-1])) {
				continue
			}
			if m := reSixDigits.FindStringSubmatch(l); m != nil {
				out = append(out, m[1])
			}
		}
		return out
	}
}

func trnRule() fieldRule {
	const sep = `\s*[:.#\-]?\s*`
	const digits = `(\d{9,20})\b`
	return fieldRule{
		valid: matches(regexp.MustCompile(`^\d{9,20}$`)),
		strategies: []strategy{
			{name: "trn-label", match: inline(0, regexp.MustCompile(`(?i)\b(?:VAT\s*)?TRN\s*(?:No\.?|Number|#)?`+sep+digits))},
			{name: "tax-registration", match: inline(0, regexp.MustCompile(`(?i)\bTax\s*Registration\s*(?:No\.?|Number|#)?`+sep+digits))},
			{name: "vat-number", match: inline(0, regexp.MustCompile(`(?i)\bVAT\s*(?:Reg(?:istration)?\.?\s*)?(?:No\.?|Number|#)`+sep+digits))},
			{name: "tax-id", match: inline(0, regexp.MustCompile(`(?i)\bTax\s*(?:ID|No\.?|Number)`+sep+digits))},
			{name: "uae-prefix", match: inline(0, regexp.MustCompile(`\b(100\d{12,15})\b`))},
			{name: "fifteen-digits", match: inline(0, regexp.MustCompile(`\b(\d{15})\b`))},
			{name: "digit-run", match: inline(0, regexp.MustCompile(`\b(\d{9,20})\b`))},
		},
	}
}

// orderNumberRule builds the DO and SO cascades, which differ only in labels.
func orderNumberRule(labels ...string) fieldRule {
	strategies := make([]strategy, 0, len(labels))
	for _, l := range labels {
		strategies = append(strategies, strategy{
			name:  "labeled",
			match: inline(0, regexp.MustCompile(l+`\s*[:.#\-]?\s*(\d{5,12})\b`)),
		})
	}
	return fieldRule{
		valid:      matches(regexp.MustCompile(`^\d{5,12}$`)),
		strategies: strategies,
	}
}

func doNumberRule() fieldRule {
	return orderNumberRule(
		`(?i)\bD\.?\s*O\.?\s*(?:No\.?|Number|#)`,
		`(?i)\bDelivery\s*(?:Order|Note)\s*(?:No\.?|Number|#)?`,
		`\bDO\b`,
	)
}

func soNumberRule() fieldRule {
	return orderNumberRule(
		`(?i)\bS\.?\s*O\.?\s*(?:No\.?|Number|#)`,
		`(?i)\bSales\s*Order\s*(?:No\.?|Number|#)?`,
		`\bSO\b`,
		`(?i)\bP\.?\s*O\.?\s*(?:No\.?|Number|#)`,
	)
}
