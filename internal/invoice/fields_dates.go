package invoice

import (
	"regexp"
	"strings"
)

const monthNames = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec`

// dateShapes are the literal date forms tried in order.
var dateShapes = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:` + monthNames + `)[a-z]*[,\s]+\d{4})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2}[-/](?:` + monthNames + `)[-/]\d{2,4})\b`),
	regexp.MustCompile(`\b(\d{4}[-/.]\d{1,2}[-/.]\d{1,2})\b`),
}

func hasDate(s string) bool {
	for _, re := range dateShapes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

var (
	reInvoiceDateLabel = regexp.MustCompile(`(?i)\b(?:Invoice\s*Date|Inv\.?\s*Date|Dated|Date)(?:\s|:|\.|$)`)
	reOtherDatePrefix  = regexp.MustCompile(`(?i)\b(?:Ship(?:ping)?|Delivery|Dispatch|Due|Expiry|Validity|LPO|P\.?O\.?)\s*$`)
	reShipDateLabel    = regexp.MustCompile(`(?i)\b(?:Ship(?:ping)?|Delivery|Dispatch)\s*Date(?:\s|:|\.|$)`)
)

func invoiceDateRule() fieldRule {
	return fieldRule{
		strategies: []strategy{
			{name: "labeled", match: labeled(50, reInvoiceDateLabel, reOtherDatePrefix, dateShapes...)},
			{name: "first-date", match: inline(50, dateShapes...)},
		},
	}
}

func shipDateRule() fieldRule {
	return fieldRule{
		strategies: []strategy{
			{name: "labeled", match: labeled(0, reShipDateLabel, nil, dateShapes...)},
		},
	}
}

var (
	rePaymentTermsLabel = regexp.MustCompile(`(?i)\bPayment\s*Terms?\b\s*[:\-]?\s*(\S.*)$`)
	reTermsDays         = regexp.MustCompile(`(?i)\bTerms\s*[:\-]?\s*(\d+\s*(?:Days?|Net))\b`)
	reDaysPDC           = regexp.MustCompile(`(?i)\b(\d+\s*days?\s*PDC(?:\s+on\s+delivery)?)\b`)
	reNDays             = regexp.MustCompile(`(?i)\b(\d+\s*Days?)\b`)
	reNetN              = regexp.MustCompile(`(?i)\b(Net\s*\d+)\b`)
	rePaymentTermsAlone = regexp.MustCompile(`(?i)^Payment\s*Terms?\s*:?$`)
	reWholeLine         = regexp.MustCompile(`^(.+)$`)
)

func paymentTermsRule() fieldRule {
	return fieldRule{
		clean: func(s string) string {
			return collapseSpaces(strings.Trim(firstColumn(s), ":-. "))
		},
		valid: lengthBetween(2, 50),
		strategies: []strategy{
			{name: "pdc", match: inline(0, reDaysPDC)},
			{name: "labeled", match: inline(0, rePaymentTermsLabel)},
			{name: "next-line", match: nextLine(0, rePaymentTermsAlone, reWholeLine, 1)},
			{name: "terms-days", match: inline(0, reTermsDays)},
			{name: "n-days", match: inline(0, reNDays)},
			{name: "net-n", match: inline(0, reNetN)},
		},
	}
}
