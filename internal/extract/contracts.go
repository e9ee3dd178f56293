package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// TextExtractor is Stage 1: file -> OCR text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Method     string // "text-file" | "reader"
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// FieldExtractor is Stage 2: text -> invoice fields and line items.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string, hints map[string]string) (FieldsResult, error)
}

type FieldsResult struct {
	// JSON is the document validated against BuildInvoiceJSONSchema.
	JSON        string
	Result      invoice.Result
	Confidence  float32
	ModelName   string
	ModelParams map[string]any
}

// HintNormalize set to "false" skips OCR text normalization.
const HintNormalize = "normalize"
