package invoice

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// Options tunes the extraction heuristics.
type Options struct {
	HeaderScanLines   int
	MaxMergeLines     int
	ArithmeticScoring bool
}

// DefaultOptions returns the standard heuristics.
func DefaultOptions() Options {
	return Options{HeaderScanLines: DefaultHeaderScanLines, MaxMergeLines: DefaultMaxMergeLines}
}

// Engine extracts scalar fields and line items from one OCR text. It holds
// no per-call state and is safe for concurrent use.
type Engine struct {
	lib    *Library
	fields *FieldExtractor
	items  *LineItemExtractor
	logger *slog.Logger
}

// NewEngine builds an engine with the built-in templates.
func NewEngine(lib *Library, opts Options, logger *slog.Logger) *Engine {
	return NewEngineWithTemplates(lib, DefaultTemplates(), opts, logger)
}

// NewEngineWithTemplates builds an engine with a caller-supplied template registry.
func NewEngineWithTemplates(lib *Library, templates *TemplateRegistry, opts Options, logger *slog.Logger) *Engine {
	if lib == nil {
		lib = DefaultLibrary()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		lib:    lib,
		fields: NewFieldExtractor(lib, logger),
		items:  NewLineItemExtractor(lib, templates, opts, logger),
		logger: logger,
	}
}

// Version reports the pattern library revision used by the engine.
func (e *Engine) Version() string { return e.lib.Version() }

// Extract runs field and line-item extraction side by side.
func (e *Engine) Extract(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	lines := SplitLines(text)

	var res Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Fields = e.fields.extractAllLines(lines)
		return gctx.Err()
	})
	g.Go(func() error {
		res.LineItems, res.Strategy, res.Table = e.items.extractLines(lines)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	e.logger.Debug("invoice extracted",
		"lines", len(lines),
		"fields_found", res.Fields.Found(),
		"line_items", len(res.LineItems),
		"strategy", res.Strategy)
	return res, nil
}

// ExtractField returns one scalar field from text.
func (e *Engine) ExtractField(field constants.Field, text string) string {
	return e.fields.Extract(field, text)
}

// ExtractLineItems returns the line items of text.
func (e *Engine) ExtractLineItems(text string) []LineItem {
	return e.items.Extract(text)
}

// AnalyzeTable returns the detected table structure of text.
func (e *Engine) AnalyzeTable(text string) TableStructure {
	return e.items.Analyze(text)
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return NewEngine(DefaultLibrary(), DefaultOptions(), nil)
})

// Default returns the shared engine with default options.
func Default() *Engine { return defaultEngine() }

// ExtractField extracts one field with the default engine.
func ExtractField(field constants.Field, text string) string {
	return Default().ExtractField(field, text)
}

// ExtractLineItems extracts line items with the default engine.
func ExtractLineItems(text string) []LineItem {
	return Default().ExtractLineItems(text)
}
