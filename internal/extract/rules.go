package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

// ModelName identifies results produced by the pattern engine.
const ModelName = "rules"

// Document is the serialized form of one extraction.
type Document struct {
	Fields        invoice.Fields     `json:"fields"`
	LineItems     []invoice.LineItem `json:"line_items"`
	Strategy      string             `json:"strategy,omitempty"`
	Table         TableDocument      `json:"table"`
	EngineVersion string             `json:"engine_version"`
	Confidence    float32            `json:"confidence"`
}

type TableDocument struct {
	HeaderRow int            `json:"header_row"`
	EndRow    int            `json:"end_row"`
	Columns   map[string]int `json:"columns,omitempty"`
}

// NewDocument flattens an engine result for storage and transport.
func NewDocument(res invoice.Result, version string, confidence float32) Document {
	cols := make(map[string]int)
	for _, role := range invoice.AllRoles {
		if pos := res.Table.Column(role); pos != invoice.Unresolved {
			cols[role.String()] = pos
		}
	}
	items := res.LineItems
	if items == nil {
		items = []invoice.LineItem{}
	}
	return Document{
		Fields:        res.Fields,
		LineItems:     items,
		Strategy:      res.Strategy,
		Table:         TableDocument{HeaderRow: res.Table.HeaderRow, EndRow: res.Table.EndRow, Columns: cols},
		EngineVersion: version,
		Confidence:    confidence,
	}
}

// RulesExtractor implements FieldExtractor with the invoice pattern engine.
type RulesExtractor struct {
	engine    *invoice.Engine
	normalize bool
	logger    *slog.Logger
}

func NewRulesExtractor(engine *invoice.Engine, normalize bool, logger *slog.Logger) *RulesExtractor {
	if engine == nil {
		engine = invoice.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RulesExtractor{engine: engine, normalize: normalize, logger: logger}
}

func (r *RulesExtractor) ExtractFields(ctx context.Context, text string, hints map[string]string) (FieldsResult, error) {
	if err := common.ValidateText(text); err != nil {
		return FieldsResult{}, common.NewAppError("INVALID_INPUT", "ocr text rejected", err)
	}
	start := time.Now()
	normalize := r.normalize && hints[HintNormalize] != "false"
	if normalize {
		text = ocr.Normalize(text)
	}

	res, err := r.engine.Extract(ctx, text)
	if err != nil {
		return FieldsResult{}, fmt.Errorf("extract: %w", err)
	}
	conf := ocr.Confidence(res, text)

	b, err := json.Marshal(NewDocument(res, r.engine.Version(), conf))
	if err != nil {
		return FieldsResult{}, fmt.Errorf("marshal document: %w", err)
	}
	if err := ValidateInvoiceJSON(b); err != nil {
		r.logger.Error("extraction failed schema validation", "error", err)
		return FieldsResult{}, common.NewAppError("SCHEMA_ERROR", "extraction document invalid", fmt.Errorf("%w: %w", common.ErrValidation, err))
	}

	r.logger.Debug("rules extraction done",
		"fields_found", res.Fields.Found(),
		"line_items", len(res.LineItems),
		"strategy", res.Strategy,
		"duration_ms", time.Since(start).Milliseconds())

	return FieldsResult{
		JSON:       string(b),
		Result:     res,
		Confidence: conf,
		ModelName:  ModelName,
		ModelParams: map[string]any{
			"engine_version": r.engine.Version(),
			"normalize":      normalize,
		},
	}, nil
}
