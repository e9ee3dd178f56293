package invoice

import (
	"strings"
	"testing"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

const headerDoc = `123 ACME TRADING LLC, P.O. Box 4567
Dubai, United Arab Emirates
TAX INVOICE
Invoice No: INV-2024-00123
TRN: 100234567890003
Salesman: Ahmed Khan
D.O. No: 45678
S.O. No: 98765
Ship Date: 15/02/2026
Date 09/02/2026
Payment Terms: 30 Days PDC`

func TestExtractFieldScenarios(t *testing.T) {
	x := NewFieldExtractor(nil, nil)
	tests := []struct {
		field constants.Field
		want  string
	}{
		{constants.CompanyName, "ACME TRADING LLC"},
		{constants.InvoiceNumber, "INV-2024-00123"},
		{constants.InvoiceDate, "09/02/2026"},
		{constants.TRN, "100234567890003"},
		{constants.Salesperson, "Ahmed Khan"},
		{constants.PaymentTerms, "30 Days PDC"},
		{constants.ShipDate, "15/02/2026"},
		{constants.DONumber, "45678"},
		{constants.SONumber, "98765"},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			if got := x.Extract(tt.field, headerDoc); got != tt.want {
				t.Errorf("Extract(%s) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestInvoiceNumberAndDate(t *testing.T) {
	text := "Invoice No: INV-2024-00123\nCustomer: Gulf Builders\nDate 09/02/2026"
	if got := ExtractField(constants.InvoiceNumber, text); got != "INV-2024-00123" {
		t.Errorf("invoice number = %q, want %q", got, "INV-2024-00123")
	}
	if got := ExtractField(constants.InvoiceDate, text); got != "09/02/2026" {
		t.Errorf("date = %q, want %q", got, "09/02/2026")
	}
}

func TestCompanyNameStripsSerialAndAddress(t *testing.T) {
	got := ExtractField(constants.CompanyName, "123 ACME TRADING LLC, P.O. Box 4567\nTAX INVOICE")
	if got != "ACME TRADING LLC" {
		t.Errorf("company = %q, want %q", got, "ACME TRADING LLC")
	}
}

func TestCompanyNameIgnoresColumnHeaders(t *testing.T) {
	for _, text := range []string{
		"Description Qty Rate\nTotal",
		"Sl No  Description  Qty  Unit Price  Amount\nTotal 40.00",
		"Item Code  Description  UOM  Quantity\nTotal",
	} {
		if got := ExtractField(constants.CompanyName, text); got != constants.NotFound {
			t.Errorf("company for %q = %q, want %q", text, got, constants.NotFound)
		}
	}
}

func TestKnownVendorWins(t *testing.T) {
	text := "TECHNO KING TRADING CO LLC\nTel 04 1234567\nTAX INVOICE"
	if got := ExtractField(constants.CompanyName, text); got != "Techno King Trading Co. LLC" {
		t.Errorf("company = %q, want %q", got, "Techno King Trading Co. LLC")
	}
}

func TestInvoiceNumberNextLine(t *testing.T) {
	text := "TAX INVOICE\nInvoice No.\nA-55012\nDate: 01/01/2025"
	if got := ExtractField(constants.InvoiceNumber, text); got != "A-55012" {
		t.Errorf("invoice number = %q, want %q", got, "A-55012")
	}
}

func TestInvoiceDateSkipsOtherDateLabels(t *testing.T) {
	text := "Due Date: 30/03/2026\nInvoice Date: 28/02/2026"
	if got := ExtractField(constants.InvoiceDate, text); got != "28/02/2026" {
		t.Errorf("date = %q, want %q", got, "28/02/2026")
	}
}

func TestPaymentTermsLabelStopsAtColumnGap(t *testing.T) {
	text := "Payment Terms: Cash on delivery      Currency: AED"
	if got := ExtractField(constants.PaymentTerms, text); got != "Cash on delivery" {
		t.Errorf("payment terms = %q, want %q", got, "Cash on delivery")
	}
}

func TestMissingFieldsAreNotFound(t *testing.T) {
	x := NewFieldExtractor(nil, nil)
	for _, text := range []string{"", "   \n\n  ", "hello there"} {
		fields := x.ExtractAll(text)
		for _, f := range constants.AllFields {
			if f == constants.CompanyName && strings.TrimSpace(text) != "" {
				continue
			}
			if got := fields.Get(f); got != constants.NotFound {
				t.Errorf("ExtractAll(%q)[%s] = %q, want %q", text, f, got, constants.NotFound)
			}
		}
	}
	if got := x.Extract(constants.Field("bogus"), headerDoc); got != constants.NotFound {
		t.Errorf("unknown field = %q, want %q", got, constants.NotFound)
	}
}

func TestExtractAllNeverEmpty(t *testing.T) {
	fields := NewFieldExtractor(nil, nil).ExtractAll(headerDoc)
	if len(fields) != len(constants.AllFields) {
		t.Fatalf("len(fields) = %d, want %d", len(fields), len(constants.AllFields))
	}
	for f, v := range fields {
		if v == "" {
			t.Errorf("field %s is empty, want a value or %q", f, constants.NotFound)
		}
	}
}

func TestSalesWindow(t *testing.T) {
	tests := []struct{ total, want int }{
		{0, 0},
		{8, 8},
		{20, 20},
		{100, 70},
		{400, 120},
	}
	for _, tt := range tests {
		if got := salesWindow(tt.total); got != tt.want {
			t.Errorf("salesWindow(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestNewLibraryRejectsBadPattern(t *testing.T) {
	if _, err := NewLibrary([]KnownValue{{Pattern: "(", Value: "x"}}, nil); err == nil {
		t.Error("NewLibrary with invalid pattern: want error")
	}
}

func TestCustomVendor(t *testing.T) {
	lib, err := NewLibrary([]KnownValue{{Pattern: `(?i)\bBLUE\s+HARBOUR\b`, Value: "Blue Harbour Marine LLC"}}, nil)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	got := NewFieldExtractor(lib, nil).Extract(constants.CompanyName, "blue harbour\nInvoice No: 12345")
	if got != "Blue Harbour Marine LLC" {
		t.Errorf("company = %q, want %q", got, "Blue Harbour Marine LLC")
	}
}
