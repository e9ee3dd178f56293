package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

const tableDoc = `ACME TRADING LLC
Invoice No: INV-2024-00123
S.No  Item Code  Description  Qty  UOM  Rate  Amount
1  G665168000  Ball Valve 2 inch  10  EA  25.00  250.00
Total  250.00`

func TestExtractLineItemsTableRow(t *testing.T) {
	items := ExtractLineItems(tableDoc)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1: %+v", len(items), items)
	}
	want := LineItem{
		SrNo:          1,
		ItemCode:      "G665168000",
		Description:   "Ball Valve 2 inch",
		UOM:           "EA",
		Quantity:      "10",
		UnitRate:      "25.00",
		AmountExclVAT: "250.00",
	}
	if items[0] != want {
		t.Errorf("item = %+v, want %+v", items[0], want)
	}
}

func TestAnalyzeTable(t *testing.T) {
	ts := Default().AnalyzeTable(tableDoc)
	if ts.HeaderRow != 2 {
		t.Errorf("HeaderRow = %d, want 2", ts.HeaderRow)
	}
	if ts.EndRow != 4 {
		t.Errorf("EndRow = %d, want 4", ts.EndRow)
	}
	cols := map[ColumnRole]int{
		RoleItemCode:      1,
		RoleDescription:   3,
		RoleQuantity:      4,
		RoleUOM:           5,
		RoleRate:          6,
		RoleAmountExclVAT: 7,
		RoleVATPercent:    Unresolved,
	}
	for role, want := range cols {
		if got := ts.Column(role); got != want {
			t.Errorf("Column(%s) = %d, want %d", role, got, want)
		}
	}
}

func TestAnalyzeTableEndsAtDocumentEnd(t *testing.T) {
	lines := []string{"Description Qty Rate", "Steel angle bracket 4 10.00"}
	ts := NewTableAnalyzer(nil, 0).Analyze(lines)
	if ts.HeaderRow != 0 || ts.EndRow != len(lines) {
		t.Errorf("table = (%d, %d), want (0, %d)", ts.HeaderRow, ts.EndRow, len(lines))
	}
}

func TestNoTableGivesEmptyList(t *testing.T) {
	text := "Dear customer,\nThank you for your business.\nRegards"
	items := ExtractLineItems(text)
	if items == nil || len(items) != 0 {
		t.Errorf("items = %#v, want empty non-nil slice", items)
	}
	if ts := Default().AnalyzeTable(text); ts.HeaderRow != Unresolved || ts.Detected() {
		t.Errorf("HeaderRow = %d, want %d", ts.HeaderRow, Unresolved)
	}
	if items := ExtractLineItems(""); items == nil || len(items) != 0 {
		t.Errorf("items for empty text = %#v, want empty non-nil slice", items)
	}
}

func TestHeaderBeyondScanWindowIsIgnored(t *testing.T) {
	lines := make([]string, 0, 60)
	for i := 0; i < 55; i++ {
		lines = append(lines, "filler text line")
	}
	lines = append(lines, "Description Qty Rate Amount")
	if ts := NewTableAnalyzer(nil, 50).Analyze(lines); ts.Detected() {
		t.Errorf("HeaderRow = %d, want unresolved", ts.HeaderRow)
	}
}

func TestMultiRowTableSkipsNoise(t *testing.T) {
	text := `GULF SUPPLIES LLC
Sl No  Description  Qty  Unit  Unit Price  Amount
1  Copper Elbow 15mm  12  PCS  3.50  42.00
Customer: Gulf Builders
2  PVC Pipe Class 2 6m
30  MTR  8.00  240.00
Page 1
Sub Total  282.00
3  Should not be read  1  EA  1.00  1.00`

	items := ExtractLineItems(text)
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2: %+v", len(items), items)
	}
	first := items[0]
	if first.Description != "Copper Elbow 15mm" || first.UOM != "PC" || first.Quantity != "12" || first.UnitRate != "3.50" || first.AmountExclVAT != "42.00" {
		t.Errorf("first item = %+v", first)
	}
	second := items[1]
	if second.SrNo != 2 {
		t.Errorf("second SrNo = %d, want 2", second.SrNo)
	}
	if second.Description != "PVC Pipe Class 2 6m" || second.UOM != "MTR" || second.Quantity != "30" || second.AmountExclVAT != "240.00" {
		t.Errorf("second item = %+v", second)
	}
}

func TestUnitlessRowsKeepQuantityAndRate(t *testing.T) {
	text := "Description  Qty  Rate  Amount\n1  Copper Elbow Fitting  3  4.00  12.00\n2  Brass Union Socket  5  8.50  42.50"
	items := ExtractLineItems(text)
	want := []LineItem{
		{SrNo: 1, Description: "Copper Elbow Fitting", Quantity: "3", UnitRate: "4.00", AmountExclVAT: "12.00"},
		{SrNo: 2, Description: "Brass Union Socket", Quantity: "5", UnitRate: "8.50", AmountExclVAT: "42.50"},
	}
	if len(items) != len(want) {
		t.Fatalf("len(items) = %d, want %d: %+v", len(items), len(want), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, items[i], want[i])
		}
	}
}

func TestLineItemInvariants(t *testing.T) {
	for _, text := range []string{tableDoc, horizontalDoc, codedDoc} {
		for i, it := range ExtractLineItems(text) {
			if it.SrNo != i+1 {
				t.Errorf("SrNo = %d, want %d", it.SrNo, i+1)
			}
			if !it.Valid() {
				t.Errorf("item %d is not valid: %+v", i, it)
			}
		}
	}
}

func TestEngineExtractIsIdempotent(t *testing.T) {
	e := NewEngine(nil, DefaultOptions(), nil)
	ctx := context.Background()
	for _, text := range []string{tableDoc, headerDoc, horizontalDoc, codedDoc, ""} {
		a, err := e.Extract(ctx, text)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		b, err := e.Extract(ctx, text)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		ja, _ := json.Marshal(a)
		jb, _ := json.Marshal(b)
		if string(ja) != string(jb) {
			t.Errorf("Extract not idempotent:\n%s\n%s", ja, jb)
		}
	}
}

func TestEngineExtractResult(t *testing.T) {
	res, err := Default().Extract(context.Background(), tableDoc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Strategy != StrategyVerticalTable {
		t.Errorf("Strategy = %q, want %q", res.Strategy, StrategyVerticalTable)
	}
	if got := res.Fields.Get("invoice_number"); got != "INV-2024-00123" {
		t.Errorf("invoice_number = %q, want %q", got, "INV-2024-00123")
	}
	if len(res.LineItems) != 1 {
		t.Errorf("len(LineItems) = %d, want 1", len(res.LineItems))
	}
	if res.Table.HeaderRow != 2 {
		t.Errorf("Table.HeaderRow = %d, want 2", res.Table.HeaderRow)
	}
}

func TestEngineExtractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Default().Extract(ctx, tableDoc); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
