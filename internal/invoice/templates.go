package invoice

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/shopspring/decimal"
)

// Template recognises one vendor layout and extracts its line items directly.
type Template interface {
	Name() string
	Matches(lines []string) bool
	Extract(lines []string) []LineItem
}

// TemplateRegistry holds templates in registration order.
type TemplateRegistry struct {
	mu        sync.RWMutex
	templates []Template
}

// NewTemplateRegistry creates a registry seeded with ts.
func NewTemplateRegistry(ts ...Template) *TemplateRegistry {
	r := &TemplateRegistry{}
	for _, t := range ts {
		r.Register(t)
	}
	return r
}

// DefaultTemplates returns a registry with the built-in vendor layouts.
func DefaultTemplates() *TemplateRegistry {
	return NewTemplateRegistry(NewHorizontalSummaryTemplate(), NewCodedVerticalTemplate())
}

// Register adds t, replacing any template with the same name in place.
func (r *TemplateRegistry) Register(t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.templates {
		if existing.Name() == t.Name() {
			r.templates[i] = t
			return
		}
	}
	r.templates = append(r.templates, t)
}

// Get returns the template registered under name.
func (r *TemplateRegistry) Get(name string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.templates {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Names lists registered template names in order.
func (r *TemplateRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for _, t := range r.templates {
		names = append(names, t.Name())
	}
	return names
}

// Matching returns the templates that recognise lines, in order.
func (r *TemplateRegistry) Matching(lines []string) []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Template
	for _, t := range r.templates {
		if t.Matches(lines) {
			out = append(out, t)
		}
	}
	return out
}

// valueBand assigns a number to role when it falls in [min, max]. A zero max
// leaves the band open-ended.
type valueBand struct {
	role     ColumnRole
	min, max decimal.Decimal
	exclude  []decimal.Decimal
}

func band(role ColumnRole, min, max int64, exclude ...int64) valueBand {
	b := valueBand{role: role, min: decimal.NewFromInt(min), max: decimal.NewFromInt(max)}
	for _, e := range exclude {
		b.exclude = append(b.exclude, decimal.NewFromInt(e))
	}
	return b
}

func (b valueBand) holds(d decimal.Decimal) bool {
	if d.LessThan(b.min) || (!b.max.IsZero() && d.GreaterThan(b.max)) {
		return false
	}
	for _, e := range b.exclude {
		if d.Equal(e) {
			return false
		}
	}
	return true
}

// HorizontalSummaryTemplate handles single-item invoices whose amounts are
// laid out across the page rather than under column headers. Amounts are
// told apart by magnitude.
type HorizontalSummaryTemplate struct {
	anchor     *regexp.Regexp
	code       *regexp.Regexp
	uom        *regexp.Regexp
	amount     *regexp.Regexp
	vatLabeled *regexp.Regexp
	vatAny     *regexp.Regexp
	defaultUOM string
	bands      []valueBand
}

// NewHorizontalSummaryTemplate returns the chain-block summary layout.
func NewHorizontalSummaryTemplate() *HorizontalSummaryTemplate {
	return &HorizontalSummaryTemplate{
		anchor:     regexp.MustCompile(`(?i)TOYO\s+CHAIN\s+BLOCK\s+[^\r\n]{5,40}`),
		code:       regexp.MustCompile(`\b(\d{2}[A-Z]{2}\d[A-Z]\d)\b`),
		uom:        regexp.MustCompile(`(?i)\b(PCS|EA|UNIT|KG|MTR)\b`),
		amount:     regexp.MustCompile(`\b\d{1,3}(?:,\d{3})*\.\d{2}\b`),
		vatLabeled: regexp.MustCompile(`(?i)Rate\s*%\s*(\d+(?:\.\d+)?)\s*%`),
		vatAny:     regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`),
		defaultUOM: constants.UOMPiece,
		bands: []valueBand{
			band(RoleQuantity, 1, 20, 5),
			band(RoleVATAmount, 50, 150),
			band(RoleRate, 200, 600),
			band(RoleAmountExclVAT, 1000, 2000),
			band(RoleAmountInclVAT, 1500, 0),
		},
	}
}

func (t *HorizontalSummaryTemplate) Name() string { return "horizontal-summary" }

func (t *HorizontalSummaryTemplate) Matches(lines []string) bool {
	for _, l := range lines {
		if t.anchor.MatchString(l) {
			return true
		}
	}
	return false
}

func (t *HorizontalSummaryTemplate) Extract(lines []string) []LineItem {
	var item LineItem
	for _, l := range lines {
		m := t.anchor.FindString(l)
		if m == "" {
			continue
		}
		if i := strings.Index(m, "•"); i >= 0 {
			m = m[:i]
		}
		item.Description = collapseSpaces(firstColumn(m))
		break
	}
	if item.Description == "" {
		return nil
	}

	text := strings.Join(lines, "\n")
	if m := t.code.FindStringSubmatch(text); m != nil {
		item.ItemCode = m[1]
	}
	item.UOM = t.defaultUOM
	if m := t.uom.FindStringSubmatch(text); m != nil {
		if u, ok := constants.CanonicalUOM(m[1]); ok {
			item.UOM = u
		}
	}
	if m := t.vatLabeled.FindStringSubmatch(text); m != nil {
		item.VATPercent = m[1] + "%"
	} else if m := t.vatAny.FindStringSubmatch(text); m != nil {
		item.VATPercent = m[1] + "%"
	}

	assigned := make(map[ColumnRole]bool, len(t.bands))
	for _, d := range t.amounts(text) {
		for _, b := range t.bands {
			if assigned[b.role] || !b.holds(d) {
				continue
			}
			assigned[b.role] = true
			v := d.StringFixed(2)
			switch b.role {
			case RoleQuantity:
				item.Quantity = v
			case RoleVATAmount:
				item.VATAmount = v
			case RoleRate:
				item.UnitRate = v
			case RoleAmountExclVAT:
				item.AmountExclVAT = v
			case RoleAmountInclVAT:
				item.AmountInclVAT = v
			}
			break
		}
	}
	return []LineItem{item}
}

// amounts returns the distinct positive two-decimal amounts in ascending order.
func (t *HorizontalSummaryTemplate) amounts(text string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, s := range t.amount.FindAllString(text, -1) {
		d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
		if err != nil || !d.IsPositive() {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen.Equal(d) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	return out
}

// CodedVerticalTemplate handles layouts where every row starts with a long
// alphanumeric product code and its amounts wrap onto the following lines.
type CodedVerticalTemplate struct {
	fingerprint *regexp.Regexp
	start       *regexp.Regexp
	stop        *regexp.Regexp
	code        *regexp.Regexp
	desc        *regexp.Regexp
	trailingNum *regexp.Regexp
	uom         *regexp.Regexp
	vat         *regexp.Regexp
	amount      *regexp.Regexp
	lookahead   int
}

// NewCodedVerticalTemplate returns the piping-supplier coded layout.
func NewCodedVerticalTemplate() *CodedVerticalTemplate {
	return &CodedVerticalTemplate{
		fingerprint: regexp.MustCompile(`(?i)GF\s+Corys`),
		start:       regexp.MustCompile(`(?i)S\.?\s?no|Item\s+Code`),
		stop:        regexp.MustCompile(`(?i)^Total\s+Number`),
		code:        regexp.MustCompile(`\b([A-Z]\d{9,10})\b`),
		desc:        regexp.MustCompile(`(?i)[A-Z]\d{9,10}\s+(.+?)\s+(?:EA|PC|UNIT)\b`),
		trailingNum: regexp.MustCompile(`(?:\s+[\d.,]+)+$`),
		uom:         regexp.MustCompile(`(?i)\b(EA|PC|UNIT|KG|MTR|SET|BOX)\b`),
		vat:         regexp.MustCompile(`\b(\d{1,2})%`),
		amount:      regexp.MustCompile(`\d{1,3}(?:,\d{3})+\.\d+|\d+\.\d+`),
		lookahead:   3,
	}
}

func (t *CodedVerticalTemplate) Name() string { return "coded-vertical" }

func (t *CodedVerticalTemplate) Matches(lines []string) bool {
	for _, l := range head(lines, 20) {
		if t.fingerprint.MatchString(l) {
			return true
		}
	}
	return false
}

func (t *CodedVerticalTemplate) Extract(lines []string) []LineItem {
	var items []LineItem
	inTable := false
	for i, l := range lines {
		if !inTable {
			inTable = t.start.MatchString(l)
			continue
		}
		if t.stop.MatchString(l) {
			break
		}
		if !t.code.MatchString(l) {
			continue
		}
		end := min(i+1+t.lookahead, len(lines))
		if item, ok := t.parse(strings.Join(lines[i:end], " ")); ok {
			items = append(items, item)
		}
	}
	return items
}

func (t *CodedVerticalTemplate) parse(row string) (LineItem, bool) {
	var item LineItem
	if m := t.code.FindStringSubmatch(row); m != nil {
		item.ItemCode = m[1]
	}
	if m := t.desc.FindStringSubmatch(row); m != nil {
		item.Description = collapseSpaces(t.trailingNum.ReplaceAllString(m[1], ""))
	}
	if m := t.uom.FindStringSubmatch(row); m != nil {
		if u, ok := constants.CanonicalUOM(m[1]); ok {
			item.UOM = u
		}
	}
	if m := t.vat.FindStringSubmatch(row); m != nil {
		item.VATPercent = m[1] + "%"
	}
	amounts := t.amount.FindAllString(row, -1)
	if len(amounts) >= 5 {
		for i := range amounts {
			amounts[i] = strings.ReplaceAll(amounts[i], ",", "")
		}
		item.Quantity = amounts[0]
		item.UnitRate = amounts[1]
		item.AmountExclVAT = amounts[2]
		item.VATAmount = amounts[3]
		item.AmountInclVAT = amounts[4]
	}
	return item, item.Valid()
}
