package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

const (
	DefaultInvoiceSheet  = "Invoices"
	DefaultLineItemSheet = "Line Items"
)

// Service turns stored extractions into XLSX workbooks.
type Service struct {
	invoiceSheet  string
	lineItemSheet string
	logger        *slog.Logger
}

// NewService builds an exporter; empty sheet names fall back to the defaults.
func NewService(invoiceSheet, lineItemSheet string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if invoiceSheet == "" {
		invoiceSheet = DefaultInvoiceSheet
	}
	if lineItemSheet == "" {
		lineItemSheet = DefaultLineItemSheet
	}
	return &Service{invoiceSheet: invoiceSheet, lineItemSheet: lineItemSheet, logger: logger}
}

// InvoiceHeaders is the header row of the invoice sheet.
func InvoiceHeaders() []string {
	h := []string{"Extraction ID", "Source File"}
	for _, f := range constants.AllFields {
		h = append(h, f.Label())
	}
	return append(h, "Strategy", "Line Items", "Amount Excl. VAT", "VAT Amount", "Amount Incl. VAT", "Confidence")
}

var lineItemHeaders = []string{
	"Extraction ID",
	"Invoice Number",
	"Sr No",
	"Item Code",
	"Description",
	"UOM",
	"Quantity",
	"Unit Rate",
	"Amount Excl. VAT",
	"VAT %",
	"VAT Amount",
	"Amount Incl. VAT",
}

// ExportXLSX writes one invoice row per extraction and one row per line item.
func (s *Service) ExportXLSX(ctx context.Context, extractions []entity.Extraction) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", s.invoiceSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(s.lineItemSheet); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	writeRow(f, s.invoiceSheet, 1, toAny(InvoiceHeaders()))
	writeRow(f, s.lineItemSheet, 1, toAny(lineItemHeaders))

	itemRow := 2
	for i := range extractions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := &extractions[i]
		totals := e.Totals()

		row := []any{e.ID.String(), e.SourcePath}
		for _, field := range constants.AllFields {
			row = append(row, e.Fields.Get(field))
		}
		row = append(row,
			e.Strategy,
			len(e.LineItems),
			money(totals.AmountExclVAT),
			money(totals.VATAmount),
			money(totals.AmountInclVAT),
			roundConfidence(e.Confidence),
		)
		writeRow(f, s.invoiceSheet, i+2, row)

		invoiceNo := e.Fields.Get(constants.InvoiceNumber)
		for _, li := range e.LineItems {
			writeRow(f, s.lineItemSheet, itemRow, []any{
				e.ID.String(),
				invoiceNo,
				li.SrNo,
				li.ItemCode,
				li.Description,
				li.UOM,
				number(li.Quantity),
				number(li.UnitRate),
				number(li.AmountExclVAT),
				number(li.VATPercent),
				number(li.VATAmount),
				number(li.AmountInclVAT),
			})
			itemRow++
		}
	}

	_ = f.SetColWidth(s.invoiceSheet, "A", "A", 38)  // id
	_ = f.SetColWidth(s.invoiceSheet, "B", "B", 40)  // path
	_ = f.SetColWidth(s.invoiceSheet, "C", "K", 20)  // fields
	_ = f.SetColWidth(s.lineItemSheet, "A", "A", 38) // id
	_ = f.SetColWidth(s.lineItemSheet, "E", "E", 48) // description
	_ = f.SetPanes(s.invoiceSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	_ = f.SetPanes(s.lineItemSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"invoices", len(extractions),
		"line_items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// number writes parseable amounts as numeric cells and keeps anything else as text.
func number(s string) any {
	if s == "" {
		return ""
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	v, _ := d.Float64()
	return v
}

func money(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}

func roundConfidence(c float32) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(float64(c), 'f', 3, 32), 64)
	return v
}
