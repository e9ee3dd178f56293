package export

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

func sample() []entity.Extraction {
	return []entity.Extraction{
		{
			ID:         uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			SourcePath: "inbox/a.txt",
			Fields: invoice.Fields{
				constants.CompanyName:   "Acme Trading LLC",
				constants.InvoiceNumber: "INV-1042",
			},
			LineItems: []invoice.LineItem{
				{SrNo: 1, Description: "Steel Beam Heavy", UOM: "EA", Quantity: "2", UnitRate: "125.00", AmountExclVAT: "250.00", VATPercent: "5", VATAmount: "12.50", AmountInclVAT: "262.50"},
				{SrNo: 2, ItemCode: "AB-1234", Description: "Copper Cable", Quantity: "n/a"},
			},
			Strategy:   "vertical-table",
			Confidence: 0.8,
		},
		{
			ID:         uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			SourcePath: "inbox/b.txt",
			Fields:     invoice.Fields{},
		},
	}
}

func openWorkbook(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExportXLSX(t *testing.T) {
	svc := NewService("", "", nil)
	b, err := svc.ExportXLSX(context.Background(), sample())
	if err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}
	f := openWorkbook(t, b)

	if got := f.GetSheetList(); len(got) != 2 || got[0] != DefaultInvoiceSheet || got[1] != DefaultLineItemSheet {
		t.Fatalf("sheets = %v", got)
	}

	invoices, err := f.GetRows(DefaultInvoiceSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(invoices) != 3 {
		t.Fatalf("invoice rows = %d, want 3", len(invoices))
	}
	if got, want := len(invoices[0]), len(InvoiceHeaders()); got != want {
		t.Errorf("header width = %d, want %d", got, want)
	}
	cells := []struct {
		sheet string
		cell  string
		want  string
	}{
		{DefaultInvoiceSheet, "C1", "Company Name"},
		{DefaultInvoiceSheet, "C2", "Acme Trading LLC"},
		{DefaultInvoiceSheet, "D2", "INV-1042"},
		{DefaultInvoiceSheet, "E2", constants.NotFound},
		{DefaultInvoiceSheet, "M2", "2"},
		{DefaultInvoiceSheet, "N2", "250"},
		{DefaultInvoiceSheet, "P2", "262.5"},
		{DefaultInvoiceSheet, "C3", constants.NotFound},
		{DefaultLineItemSheet, "B2", "INV-1042"},
		{DefaultLineItemSheet, "E2", "Steel Beam Heavy"},
		{DefaultLineItemSheet, "D3", "AB-1234"},
		{DefaultLineItemSheet, "G3", "n/a"},
	}
	for _, tt := range cells {
		got, err := f.GetCellValue(tt.sheet, tt.cell)
		if err != nil {
			t.Errorf("GetCellValue(%s!%s) error = %v", tt.sheet, tt.cell, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s!%s = %q, want %q", tt.sheet, tt.cell, got, tt.want)
		}
	}

	items, _ := f.GetRows(DefaultLineItemSheet)
	if len(items) != 3 {
		t.Errorf("line item rows = %d, want 3", len(items))
	}
}

func TestExportXLSX_CustomSheets(t *testing.T) {
	svc := NewService("Docs", "Rows", nil)
	b, err := svc.ExportXLSX(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}
	f := openWorkbook(t, b)
	got := f.GetSheetList()
	if len(got) != 2 || got[0] != "Docs" || got[1] != "Rows" {
		t.Errorf("sheets = %v, want [Docs Rows]", got)
	}
}

func TestExportXLSX_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService("", "", nil).ExportXLSX(ctx, sample())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
