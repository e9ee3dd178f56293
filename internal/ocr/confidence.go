package ocr

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

var (
	reDate   = regexp.MustCompile(`\b\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}\b|\b20\d{2}[-/.]\d{1,2}[-/.]\d{1,2}\b`)
	reCurr   = regexp.MustCompile(`\b(aed|usd|eur|gbp|sar|inr)\b|[$£€]`)
	reAmount = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+\.\d{2}\b`)
	reVAT    = regexp.MustCompile(`\b(vat|trn|tax invoice)\b`)
)

func hasDatePattern(s string) bool     { return reDate.MatchString(s) }
func hasCurrencyPattern(s string) bool { return reCurr.MatchString(s) }
func hasAmountPattern(s string) bool   { return reAmount.MatchString(s) }

// TextConfidence scores how invoice-like raw text looks before extraction.
func TextConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2)
	if hasDatePattern(txtL) {
		score += 0.2
	}
	if hasCurrencyPattern(txtL) {
		score += 0.15
	}
	if hasAmountPattern(txtL) {
		score += 0.15
	}
	if reVAT.MatchString(txtL) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	}
	return clamp(score)
}

// Confidence scores an extraction: the share of header fields found carries
// most weight, then whether line items were recovered and a table was seen.
func Confidence(res invoice.Result, text string) float32 {
	fieldShare := float32(res.Fields.Found()) / float32(len(constants.AllFields))
	score := 0.5*fieldShare + 0.2*TextConfidence(text)
	if len(res.LineItems) > 0 {
		score += 0.2
	}
	if res.Table.Detected() || res.Strategy != "" {
		score += 0.1
	}
	return clamp(score)
}

func clamp(f float32) float32 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
