package invoice

import (
	"log/slog"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// FieldExtractor runs the per-field strategy cascades over OCR text.
type FieldExtractor struct {
	lib    *Library
	logger *slog.Logger
}

// NewFieldExtractor creates a field extractor. A nil library selects the default one.
func NewFieldExtractor(lib *Library, logger *slog.Logger) *FieldExtractor {
	if lib == nil {
		lib = DefaultLibrary()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldExtractor{lib: lib, logger: logger}
}

// Extract returns the value of one field, or constants.NotFound.
func (x *FieldExtractor) Extract(field constants.Field, text string) string {
	return x.extractLines(field, SplitLines(text))
}

// ExtractAll returns a value for every known field.
func (x *FieldExtractor) ExtractAll(text string) Fields {
	return x.extractAllLines(SplitLines(text))
}

func (x *FieldExtractor) extractAllLines(lines []string) Fields {
	out := make(Fields, len(constants.AllFields))
	for _, f := range constants.AllFields {
		out[f] = x.extractLines(f, lines)
	}
	return out
}

func (x *FieldExtractor) extractLines(field constants.Field, lines []string) string {
	rule, ok := x.lib.fields[field]
	if !ok || len(lines) == 0 {
		return constants.NotFound
	}
	value, strategy := rule.run(lines)
	if strategy != "" {
		x.logger.Debug("field extracted", "field", string(field), "strategy", strategy)
	}
	return value
}
