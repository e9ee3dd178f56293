// Package app wires the extraction stack from a loaded configuration.
package app

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/invoice-extractor/internal/cache"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

// InMemoryDSN backs a throwaway store that lives for one process.
const InMemoryDSN = ":memory:"

// App holds every long-lived dependency of a binary.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB
	Cache     *cache.ResultCache
	Engine    *invoice.Engine
	Processor *pipeline.Processor
	Exporter  *export.Service
}

// New validates cfg and opens the store and cache. When inmem is set the
// configured DSN is replaced by an in-memory SQLite database.
func New(ctx context.Context, cfg *common.Config, inmem bool, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if inmem {
		cfg.Store.DSN = InMemoryDSN
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := server.ConnectDB(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	engine := invoice.NewEngine(nil, invoice.Options{
		HeaderScanLines:   cfg.Engine.HeaderScanLines,
		MaxMergeLines:     cfg.Engine.MaxMergeLines,
		ArithmeticScoring: cfg.Engine.ArithmeticScoring,
	}, logger)

	rc, err := cache.Connect(ctx, cache.Config{
		Address:  cfg.Cache.Address,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		TTL:      cfg.Cache.TTL,
	}, engine.Version(), logger)
	if err != nil {
		logger.Warn("redis unavailable, continuing without result cache", "addr", cfg.Cache.Address, "error", err)
		rc = cache.New(nil, 0, engine.Version(), logger)
	}

	loader := ocr.NewLoader(ocr.Config{MaxBytes: common.MaxTextBytes}, logger)
	proc := pipeline.NewProcessor(logger,
		extract.NewTextAdapter(loader, logger),
		extract.NewRulesExtractor(engine, cfg.Engine.Normalize, logger),
		repository.NewExtractionRepository(db, logger),
		repository.NewExtractJobRepository(db, logger),
		rc,
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Cache:     rc,
		Engine:    engine,
		Processor: proc,
		Exporter:  export.NewService(cfg.Export.InvoiceSheet, cfg.Export.LineItemSheet, logger),
	}, nil
}

// Close releases the cache and store connections.
func (a *App) Close() {
	if err := a.Cache.Close(); err != nil {
		a.Logger.Warn("failed to close redis", "error", err)
	}
	repository.Close(a.DB, a.Logger)
}
