package invoice

import (
	"strings"
	"testing"
)

func TestCountBasedAssignment(t *testing.T) {
	tests := []struct {
		nums []string
		want LineItem
	}{
		{[]string{"250.00"}, LineItem{AmountExclVAT: "250.00"}},
		{[]string{"10", "250.00"}, LineItem{Quantity: "10", AmountExclVAT: "250.00"}},
		{[]string{"10", "25.00", "250.00"}, LineItem{Quantity: "10", UnitRate: "25.00", AmountExclVAT: "250.00"}},
		{[]string{"10", "25.00", "250.00", "262.50"}, LineItem{Quantity: "10", UnitRate: "25.00", AmountExclVAT: "250.00", AmountInclVAT: "262.50"}},
		{[]string{"10", "25.00", "250.00", "12.50", "262.50"}, LineItem{Quantity: "10", UnitRate: "25.00", AmountExclVAT: "250.00", VATAmount: "12.50", AmountInclVAT: "262.50"}},
		{[]string{"10", "25.00", "250.00", "5", "12.50", "262.50"}, LineItem{Quantity: "10", UnitRate: "25.00", AmountExclVAT: "250.00", VATPercent: "5%", VATAmount: "12.50", AmountInclVAT: "262.50"}},
		{[]string{"10", "25.00", "250.00", "250.00", "5", "12.50", "262.50"}, LineItem{Quantity: "10", UnitRate: "25.00", AmountExclVAT: "250.00", VATPercent: "5%", VATAmount: "12.50", AmountInclVAT: "262.50"}},
		{[]string{"10", "25.00", "250.00", "251.00", "5", "12.50", "262.50"}, LineItem{Quantity: "10", UnitRate: "25.00", AmountExclVAT: "251.00", VATPercent: "5%", VATAmount: "12.50", AmountInclVAT: "262.50"}},
		{[]string{"10", "25.00", "250.00", "251.00", "5", "9", "12.50", "262.50"}, LineItem{Quantity: "10", UnitRate: "25.00", AmountExclVAT: "251.00", VATPercent: "5%", VATAmount: "12.50", AmountInclVAT: "262.50"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.nums, "_"), func(t *testing.T) {
			var got LineItem
			applyBinding(&got, tt.nums, positionalBinding(len(tt.nums)), "")
			if got != tt.want {
				t.Errorf("assignment = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSixNumbersRejectsLargeVATRate(t *testing.T) {
	var got LineItem
	applyBinding(&got, []string{"10", "25.00", "250.00", "45", "12.50", "262.50"}, positionalBinding(6), "")
	if got.VATPercent != "" {
		t.Errorf("VATPercent = %q, want empty", got.VATPercent)
	}
	applyBinding(&got, []string{"10", "25.00", "250.00", "45", "12.50", "262.50"}, positionalBinding(6), "5")
	if got.VATPercent != "5%" {
		t.Errorf("VATPercent = %q, want %q", got.VATPercent, "5%")
	}
}

func TestParseLine(t *testing.T) {
	p := NewRowParser(nil, 0, false)
	tests := []struct {
		name string
		line string
		want LineItem
	}{
		{
			name: "serial code description",
			line: "1  G665168000  Ball Valve 2 inch  10  EA  25.00  250.00",
			want: LineItem{ItemCode: "G665168000", Description: "Ball Valve 2 inch", UOM: "EA", Quantity: "10", UnitRate: "25.00", AmountExclVAT: "250.00"},
		},
		{
			name: "grouped amounts and explicit vat",
			line: "3  Steel Beam Heavy  2  TONS  1,250.00  2,500.00  5%  125.00  2,625.00",
			want: LineItem{Description: "Steel Beam Heavy", UOM: "TON", Quantity: "2", UnitRate: "1250.00", AmountExclVAT: "2500.00", VATPercent: "5%", VATAmount: "125.00", AmountInclVAT: "2625.00"},
		},
		{
			name: "phone number ignored",
			line: "Hydraulic hose assembly  4  PCS  80.00  320.00  0501234567",
			want: LineItem{Description: "Hydraulic hose assembly", UOM: "PC", Quantity: "4", UnitRate: "80.00", AmountExclVAT: "320.00"},
		},
		{
			name: "single digit quantity without unit",
			line: "1  Copper Elbow Fitting  3  4.00  12.00",
			want: LineItem{Description: "Copper Elbow Fitting", Quantity: "3", UnitRate: "4.00", AmountExclVAT: "12.00"},
		},
		{
			name: "rate with one leading digit",
			line: "Brass Union Socket  5  8.50  42.50",
			want: LineItem{Description: "Brass Union Socket", Quantity: "5", UnitRate: "8.50", AmountExclVAT: "42.50"},
		},
		{
			name: "four numbers without unit",
			line: "Widget Assembly 3 4.00 12.00 12.60",
			want: LineItem{Description: "Widget Assembly", Quantity: "3", UnitRate: "4.00", AmountExclVAT: "12.00", AmountInclVAT: "12.60"},
		},
		{
			name: "digit inside description kept",
			line: "Ball Valve 2 inch  10  25.00  250.00",
			want: LineItem{Description: "Ball Valve 2 inch", Quantity: "10", UnitRate: "25.00", AmountExclVAT: "250.00"},
		},
		{
			name: "code without description",
			line: "2  G721406006  10  EA  5.00  50.00",
			want: LineItem{ItemCode: "G721406006", UOM: "EA", Quantity: "10", UnitRate: "5.00", AmountExclVAT: "50.00"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ParseLine(tt.line); got != tt.want {
				t.Errorf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseRowMergesContinuation(t *testing.T) {
	lines := []string{
		"1  G665168000  Ball Valve 2 inch",
		"10  EA  25.00  250.00",
		"2  G721406006  Union Socket 20mm  4  EA  12.00  48.00",
	}
	p := NewRowParser(nil, 0, false)
	item, consumed, ok := p.ParseRow(lines, 0)
	if !ok {
		t.Fatalf("ParseRow not ok: %+v", item)
	}
	if consumed != 2 {
		t.Errorf("consumed = %d, want 2", consumed)
	}
	if item.Description != "Ball Valve 2 inch" || item.Quantity != "10" || item.AmountExclVAT != "250.00" {
		t.Errorf("item = %+v", item)
	}

	item, consumed, ok = p.ParseRow(lines, 2)
	if !ok || consumed != 1 || item.ItemCode != "G721406006" {
		t.Errorf("ParseRow(2) = %+v, %d, %v", item, consumed, ok)
	}
}

func TestParseRowStopsAtNewItem(t *testing.T) {
	lines := []string{
		"1  Copper tube 15mm",
		"2  BRASS FITTING 22mm  6  PCS  4.00  24.00",
	}
	_, consumed, _ := NewRowParser(nil, 0, false).ParseRow(lines, 0)
	if consumed != 1 {
		t.Errorf("consumed = %d, want 1", consumed)
	}
}

func TestParseRowMergeBound(t *testing.T) {
	lines := []string{
		"1  Flange adaptor",
		"size 110 mm",
		"pn 16 rated",
		"8  EA  30.00  240.00",
	}
	_, consumed, _ := NewRowParser(nil, 2, false).ParseRow(lines, 0)
	if consumed != 3 {
		t.Errorf("consumed = %d, want 3", consumed)
	}
}

func TestArithmeticScoring(t *testing.T) {
	line := "Hex Bolt M12 zinc plated  10  25.00  250.00  5  262.50"

	plain := NewRowParser(nil, 0, false).ParseLine(line)
	if plain.VATAmount != "5" || plain.VATPercent != "" {
		t.Errorf("positional = %+v, want VAT amount 5", plain)
	}

	scored := NewRowParser(nil, 0, true).ParseLine(line)
	if scored.VATPercent != "5%" || scored.VATAmount != "" || scored.AmountInclVAT != "262.50" {
		t.Errorf("scored = %+v, want VAT rate 5%% and total 262.50", scored)
	}
}

func TestRowInvalidWithoutIdentity(t *testing.T) {
	_, _, ok := NewRowParser(nil, 0, false).ParseRow([]string{"12  4.00  48.00"}, 0)
	if ok {
		t.Error("row with neither description nor code reported valid")
	}
}
