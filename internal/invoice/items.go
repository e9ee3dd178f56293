package invoice

import (
	"log/slog"
)

// StrategyVerticalTable names the generic header-driven row parser.
const StrategyVerticalTable = "vertical-table"

// minCodelessRowLen is the shortest line worth parsing when it carries no code.
const minCodelessRowLen = 10

// LineItemExtractor tries vendor templates first and falls back to the
// generic vertical table.
type LineItemExtractor struct {
	lib       *Library
	templates *TemplateRegistry
	analyzer  *TableAnalyzer
	rows      *RowParser
	logger    *slog.Logger
}

// NewLineItemExtractor wires the table analyzer, the row parser and templates.
// A nil registry disables templates.
func NewLineItemExtractor(lib *Library, templates *TemplateRegistry, opts Options, logger *slog.Logger) *LineItemExtractor {
	if lib == nil {
		lib = DefaultLibrary()
	}
	if templates == nil {
		templates = NewTemplateRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LineItemExtractor{
		lib:       lib,
		templates: templates,
		analyzer:  NewTableAnalyzer(lib, opts.HeaderScanLines),
		rows:      NewRowParser(lib, opts.MaxMergeLines, opts.ArithmeticScoring),
		logger:    logger,
	}
}

// Extract returns the line items of text, renumbered from 1. The result is
// never nil.
func (x *LineItemExtractor) Extract(text string) []LineItem {
	items, _, _ := x.extractLines(SplitLines(text))
	return items
}

// Analyze exposes the header detection result for text.
func (x *LineItemExtractor) Analyze(text string) TableStructure {
	return x.analyzer.Analyze(SplitLines(text))
}

func (x *LineItemExtractor) extractLines(lines []string) ([]LineItem, string, TableStructure) {
	ts := x.analyzer.Analyze(lines)

	for _, t := range x.templates.Matching(lines) {
		if items := t.Extract(lines); len(items) > 0 {
			x.logger.Debug("line items from template", "template", t.Name(), "count", len(items))
			return renumber(items), t.Name(), ts
		}
	}

	if !ts.Detected() {
		x.logger.Debug("no line-item header found")
		return []LineItem{}, "", ts
	}
	items := x.vertical(lines[ts.HeaderRow+1 : ts.EndRow])
	x.logger.Debug("line items from table", "header_row", ts.HeaderRow, "end_row", ts.EndRow, "count", len(items))
	if len(items) == 0 {
		return []LineItem{}, "", ts
	}
	return renumber(items), StrategyVerticalTable, ts
}

func (x *LineItemExtractor) vertical(body []string) []LineItem {
	var items []LineItem
	for i := 0; i < len(body); {
		if x.skipRow(body[i]) {
			i++
			continue
		}
		item, consumed, ok := x.rows.ParseRow(body, i)
		if !ok {
			i++
			continue
		}
		items = append(items, item)
		i += consumed
	}
	return items
}

// skipRow filters repeated headers, summary and contact lines, stray page
// numbers and short fragments without a product code.
func (x *LineItemExtractor) skipRow(l string) bool {
	switch {
	case x.lib.rowSkip.MatchString(l), x.lib.nonItem.MatchString(l), x.lib.bareNumber.MatchString(l):
		return true
	case x.analyzer.isHeader(l):
		return true
	case len(l) < minCodelessRowLen:
		code, _, _ := x.rows.itemCode(l, 0)
		return code == ""
	}
	return false
}

func renumber(items []LineItem) []LineItem {
	for i := range items {
		items[i].SrNo = i + 1
	}
	return items
}
