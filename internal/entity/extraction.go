package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// Extraction is one processed OCR document for data transfer between layers.
type Extraction struct {
	ID            uuid.UUID              `json:"id"`
	SourcePath    string                 `json:"source_path"`
	ContentHash   string                 `json:"content_hash"`
	Fields        invoice.Fields         `json:"fields"`
	LineItems     []invoice.LineItem     `json:"line_items"`
	Strategy      string                 `json:"strategy,omitempty"`
	Table         invoice.TableStructure `json:"table"`
	Confidence    float32                `json:"confidence"`
	EngineVersion string                 `json:"engine_version"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Totals sums the monetary columns of the line items.
type Totals struct {
	AmountExclVAT decimal.Decimal `json:"amount_excl_vat"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	AmountInclVAT decimal.Decimal `json:"amount_incl_vat"`
}

// Totals adds up the line items. Unparseable cells count as zero, and a
// missing inclusive amount is derived from the net and VAT amounts.
func (e *Extraction) Totals() Totals {
	var t Totals
	for _, li := range e.LineItems {
		excl := parseAmount(li.AmountExclVAT)
		vat := parseAmount(li.VATAmount)
		incl := parseAmount(li.AmountInclVAT)
		if incl.IsZero() && !excl.IsZero() {
			incl = excl.Add(vat)
		}
		t.AmountExclVAT = t.AmountExclVAT.Add(excl)
		t.VATAmount = t.VATAmount.Add(vat)
		t.AmountInclVAT = t.AmountInclVAT.Add(incl)
	}
	return t
}

func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
