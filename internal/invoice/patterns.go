package invoice

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// LibraryVersion identifies the pattern set; bump it whenever a pattern changes
// so stored extractions can be traced to the rules that produced them.
const LibraryVersion = "2024.12"

// KnownValue is a recurring literal recognised before any generic heuristic.
type KnownValue struct {
	Pattern string
	Value   string
}

// DefaultVendors are the recurring suppliers whose names OCR tends to mangle.
var DefaultVendors = []KnownValue{
	{Pattern: `(?i)Techno\s*King\s*Trading\s*Co\.?\s*L\.?\s?L\.?\s?C`, Value: "Techno King Trading Co. LLC"},
	{Pattern: `(?i)\bZAKER\s+TRADING\b`, Value: "ZAKER TRADING L. LLC"},
	{Pattern: `(?i)GF\s+Corys\s+Piping\s+Systems`, Value: "GF Corys Piping Systems LLC - Dubai"},
}

// DefaultSalespeople are known sales staff printed without a usable label.
var DefaultSalespeople = []KnownValue{
	{Pattern: `\bMuhammed\b`, Value: "Muhammed"},
}

type roleSynonyms struct {
	role  ColumnRole
	words []string
}

// Library is the immutable pattern and synonym set shared by all extractors.
type Library struct {
	version string
	fields  map[constants.Field]fieldRule

	roles        []roleSynonyms
	serialHeader *regexp.Regexp
	tableEnd     *regexp.Regexp
	nonItem      *regexp.Regexp
	rowSkip      *regexp.Regexp
	bareNumber   *regexp.Regexp

	rowSerial      *regexp.Regexp
	itemCodes      []*regexp.Regexp
	taxIDPrefix    string
	descriptions   []*regexp.Regexp
	uom            *regexp.Regexp
	vatPercent     *regexp.Regexp
	terminalAmount *regexp.Regexp
	mergeStop      *regexp.Regexp
	newItemStart   *regexp.Regexp
	codeStart      *regexp.Regexp
	letters        *regexp.Regexp
	longNumber     *regexp.Regexp
}

var defaultLibrary = sync.OnceValue(func() *Library {
	lib, err := NewLibrary(DefaultVendors, DefaultSalespeople)
	if err != nil {
		panic(fmt.Sprintf("invoice: default library: %v", err))
	}
	return lib
})

// DefaultLibrary returns the process-wide library built from the default data.
func DefaultLibrary() *Library { return defaultLibrary() }

// NewLibrary compiles a library with the given known vendors and salespeople.
func NewLibrary(vendors, salespeople []KnownValue) (*Library, error) {
	knownVendors, err := compileKnown(vendors)
	if err != nil {
		return nil, fmt.Errorf("vendors: %w", err)
	}
	knownPeople, err := compileKnown(salespeople)
	if err != nil {
		return nil, fmt.Errorf("salespeople: %w", err)
	}

	const uomWords = `EA|EACH|PCS?|PIECES?|UNITS?|KGS?|KILOGRAMS?|MTRS?|METERS?|METRES?|SETS?|BOX(?:ES)?|PACKS?|NOS?|TONS?|TONNES?`
	// A quantity printed directly before the unit ends the description.
	const qtyThenUOM = `(?:\s+\d+(?:[.,]\d+)?)?\s+(?:` + uomWords + `)\b`
	// Without a unit the description ends at the first run of numbers, at a
	// two-decimal amount or at a multi-digit number.
	const numberRun = `\s+\d+(?:[.,]\d+)*\s+\d+(?:[.,]\d+)*%?(?:\s|$)`
	const amount = `\s+\d+[.,]\d{2}(?:\s|$)`

	return &Library{
		version: LibraryVersion,
		fields: map[constants.Field]fieldRule{
			constants.CompanyName:   companyNameRule(knownVendors),
			constants.InvoiceNumber: invoiceNumberRule(),
			constants.InvoiceDate:   invoiceDateRule(),
			constants.TRN:           trnRule(),
			constants.Salesperson:   salespersonRule(knownPeople),
			constants.PaymentTerms:  paymentTermsRule(),
			constants.ShipDate:      shipDateRule(),
			constants.DONumber:      doNumberRule(),
			constants.SONumber:      soNumberRule(),
		},

		// Multi-word synonyms are tried on token pairs before single tokens.
		// Role order settles tokens that fit more than one role.
		roles: []roleSynonyms{
			{RoleItemCode, []string{"ITEM CODE", "PRODUCT CODE", "PART NO", "PART NUMBER", "ITEM NO", "CODE", "SKU", "ITEM#", "PART#"}},
			{RoleVATAmount, []string{"VAT AMOUNT", "VAT AMT", "TAX AMOUNT", "TAX AMT", "TAX"}},
			{RoleAmountInclVAT, []string{"TOTAL (INCL", "TOTAL INCL", "GRAND TOTAL", "NET TOTAL", "INCL"}},
			{RoleVATPercent, []string{"VAT %", "TAX %", "VAT%", "TAX%", "VAT", "%"}},
			{RoleDescription, []string{"ITEM DESCRIPTION", "PRODUCT DESCRIPTION", "DESCRIPTION", "DESC", "PARTICULARS", "DETAILS", "PRODUCT", "ITEM"}},
			{RoleQuantity, []string{"QUANTITY", "QTY", "QUAN", "NOS", "NO", "PCS"}},
			{RoleUOM, []string{"UOM", "U/M", "UNITS", "UNIT", "UM"}},
			{RoleRate, []string{"UNIT RATE", "UNIT PRICE", "RATE/UNIT", "RATE", "PRICE"}},
			{RoleAmountExclVAT, []string{"TOTAL (EXCL", "TOTAL EXCL", "SUBTOTAL", "AMOUNT", "AMT", "TOTAL", "VALUE"}},
		},
		serialHeader: regexp.MustCompile(`^(?:S|SL|SR)\.?\s*NO\.?$|^#$|^SERIAL$`),
		tableEnd:     regexp.MustCompile(`(?i)^(?:total\b|sub\s*-?\s*total|grand\s*total|net\s*total|freight|exchange\s*rate|amount\s*(?:due|in\s*words)|balance\b|miscellaneous|invoice\s*value)`),
		nonItem:      regexp.MustCompile(`(?i)^(?:bill\s*to|ship\s*to|sold\s*to|customer|e-?mail|phone|tel\b|fax|address|attention|attn|p\.?\s*o\.?\s*box)|@`),
		rowSkip:      regexp.MustCompile(`(?i)^(?:total|sub\s*total|grand|vat|tax|freight|misc|exchange|s\.?\s*no|sl\.?\s*no|sr\.?\s*no|code|description|uom|qty|quantity|rate|amount|price|units)\b`),
		bareNumber:   regexp.MustCompile(`^\d{1,3}$`),

		rowSerial: regexp.MustCompile(`^\d{1,2}[.)]?\s+`),
		itemCodes: []*regexp.Regexp{
			regexp.MustCompile(`\b([A-Z]\d{9,10})\b`),
			regexp.MustCompile(`\b(\d{2}[A-Z]{2}\d[A-Z]\d)\b`),
			regexp.MustCompile(`\b([A-Z]{2,5}\d{1,10}[A-Z]{0,3})\b`),
			regexp.MustCompile(`\b([A-Z]\d{6,12})\b`),
			regexp.MustCompile(`\b([A-Z]{1,3}-\d{3,10})\b`),
		},
		taxIDPrefix: "100",
		descriptions: []*regexp.Regexp{
			regexp.MustCompile(`^([A-Za-z][A-Za-z0-9\s\-()°/.:&"',#+*]+?)(?:` + qtyThenUOM + `|` + numberRun + `|` + amount + `|\s+\d{2,}(?:[.,]\d+)*(?:\s|$))`),
			regexp.MustCompile(`^([A-Z][A-Z0-9\s&\-°/.:"']+?)` + qtyThenUOM),
			regexp.MustCompile(`^([A-Za-z][A-Za-z0-9\s\-°/.:"']+?)\s+\d{2,}`),
		},
		uom:            regexp.MustCompile(`(?i)\b(` + uomWords + `)\b`),
		vatPercent:     regexp.MustCompile(`\b(\d{1,2}(?:\.\d{1,2})?)\s?%`),
		terminalAmount: regexp.MustCompile(`\d+[.,]\d{2}\s*$`),
		mergeStop:      regexp.MustCompile(`(?i)^(?:total|sub\s*total|grand|s\.?\s*no|sl\.?\s*no)\b`),
		newItemStart:   regexp.MustCompile(`^\d{1,3}[.)]?\s+([A-Z]{3,})`),
		codeStart:      regexp.MustCompile(`^(?:\d{1,3}[.)]?\s+)?[A-Z]\d{6,12}\b`),
		letters:        regexp.MustCompile(`[A-Za-z]{2,}`),
		longNumber:     regexp.MustCompile(`^\d{2,}(?:[.,]\d+)*$`),
	}, nil
}

// Version reports the pattern set revision.
func (l *Library) Version() string { return l.version }

func compileKnown(values []KnownValue) ([]knownLiteral, error) {
	out := make([]knownLiteral, 0, len(values))
	for _, v := range values {
		re, err := regexp.Compile(v.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", v.Pattern, err)
		}
		out = append(out, knownLiteral{pattern: re, value: v.Value})
	}
	return out, nil
}
