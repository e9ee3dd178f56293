package constants

import (
	"strings"
)

// NotFound is the value reported for a field no strategy could extract.
const NotFound = "N/A"

// Field names one scalar header value of an invoice.
type Field string

const (
	CompanyName   Field = "company_name"
	InvoiceNumber Field = "invoice_number"
	InvoiceDate   Field = "date"
	TRN           Field = "trn"
	Salesperson   Field = "salesperson"
	PaymentTerms  Field = "payment_terms"
	ShipDate      Field = "ship_date"
	DONumber      Field = "do_number"
	SONumber      Field = "so_number"
)

// AllFields is the fixed output order of the scalar fields.
var AllFields = []Field{
	CompanyName,
	InvoiceNumber,
	InvoiceDate,
	TRN,
	Salesperson,
	PaymentTerms,
	ShipDate,
	DONumber,
	SONumber,
}

var fieldLabels = map[Field]string{
	CompanyName:   "Company Name",
	InvoiceNumber: "Invoice Number",
	InvoiceDate:   "Invoice Date",
	TRN:           "TRN",
	Salesperson:   "Salesperson",
	PaymentTerms:  "Payment Terms",
	ShipDate:      "Ship Date",
	DONumber:      "DO Number",
	SONumber:      "SO Number",
}

// Label is the human readable column title of the field.
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

func FieldNames() []string {
	result := make([]string, len(AllFields))
	for i, f := range AllFields {
		result[i] = string(f)
	}
	return result
}

// ParseField accepts the canonical key or a few loose spellings ("Invoice No", "trn number").
func ParseField(input string) (Field, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]Field{
		"company":          CompanyName,
		"vendor":           CompanyName,
		"invoice no":       InvoiceNumber,
		"invoice":          InvoiceNumber,
		"invoice date":     InvoiceDate,
		"tax registration": TRN,
		"trn number":       TRN,
		"salesman":         Salesperson,
		"sales person":     Salesperson,
		"terms":            PaymentTerms,
		"delivery date":    ShipDate,
		"do":               DONumber,
		"delivery order":   DONumber,
		"so":               SONumber,
		"sales order":      SONumber,
	}
	if f, ok := synonyms[normalized]; ok {
		return f, true
	}

	for _, f := range AllFields {
		if normalized == string(f) || normalized == strings.ToLower(f.Label()) {
			return f, true
		}
	}
	return "", false
}
