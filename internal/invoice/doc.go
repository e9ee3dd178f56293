// Package invoice turns raw OCR text of an invoice into header fields and line items.
//
// Extraction is a cascade of small strategies. Each scalar field has an ordered
// list of (matcher, validator) strategies evaluated by one runner that returns the
// first validated candidate or constants.NotFound. Line items come from the first
// table strategy that yields at least one row: known templates selected by an
// anchor phrase, then the generic header-driven vertical table.
//
// All patterns live in an immutable *Library built once and shared by every
// extractor, so an Engine is safe for concurrent use.
package invoice
