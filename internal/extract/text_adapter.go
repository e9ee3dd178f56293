package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

// TextAdapter exposes an ocr.Loader as a TextExtractor.
type TextAdapter struct {
	loader *ocr.Loader
	logger *slog.Logger
}

func NewTextAdapter(l *ocr.Loader, logger *slog.Logger) *TextAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextAdapter{loader: l, logger: logger}
}

func (a *TextAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.loader.LoadFile(ctx, path)
	if err != nil {
		return TextExtractionResult{}, err
	}
	return TextExtractionResult{
		Text:       r.Text,
		Method:     r.Method,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
		Confidence: r.Confidence,
	}, nil
}
