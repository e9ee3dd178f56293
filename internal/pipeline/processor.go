// Package pipeline turns OCR text files into stored extractions.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/cache"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// Processor coordinates text loading, the rules engine and persistence.
// Jobs and Cache are optional.
type Processor struct {
	Logger *slog.Logger
	Text   extract.TextExtractor
	Fields extract.FieldExtractor
	Store  repository.ExtractionRepository
	Jobs   repository.ExtractJobRepository
	Cache  *cache.ResultCache
}

func NewProcessor(
	logger *slog.Logger,
	text extract.TextExtractor,
	fields extract.FieldExtractor,
	store repository.ExtractionRepository,
	jobs repository.ExtractJobRepository,
	rc *cache.ResultCache,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Text: text, Fields: fields, Store: store, Jobs: jobs, Cache: rc}
}

// ProcessFile loads the OCR text at path and extracts it.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*entity.Extraction, error) {
	res, err := p.Text.Extract(ctx, path)
	if err != nil {
		p.Logger.Error("processor.load.failed", "file", path, "err", err)
		return nil, err
	}
	for _, w := range res.Warnings {
		p.Logger.Warn("processor.load.warning", "file", path, "warning", w)
	}
	e, _, err := p.ProcessText(ctx, path, res.Text)
	return e, err
}

// ProcessText extracts text, reusing an earlier extraction of identical text
// from the cache or the store. The returned status is SUCCEEDED when the
// engine ran and CACHED otherwise.
func (p *Processor) ProcessText(ctx context.Context, source, text string) (*entity.Extraction, constants.JobStatus, error) {
	start := time.Now()
	jobID := p.startJob(ctx, source)

	e, status, err := p.process(ctx, source, text)
	if err != nil {
		p.failJob(ctx, jobID, err)
		p.Logger.Error("processor.failed", "source", source, "err", err)
		return nil, constants.JobStatusFailed, err
	}
	p.finishJob(ctx, jobID, e, status)

	p.Logger.Info("processor.ok",
		"source", source,
		"extraction_id", e.ID,
		"status", status,
		"items", len(e.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return e, status, nil
}

func (p *Processor) process(ctx context.Context, source, text string) (*entity.Extraction, constants.JobStatus, error) {
	hash := ingest.HashBytes([]byte(text))

	if e, ok, err := p.Cache.Get(ctx, hash); err != nil {
		p.Logger.Warn("processor.cache.get.failed", "hash", hash, "err", err)
	} else if ok {
		return e, constants.JobStatusCached, nil
	}

	stored, err := p.Store.GetByHash(ctx, hash)
	switch {
	case err == nil:
		p.remember(ctx, hash, stored)
		return stored, constants.JobStatusCached, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, "", fmt.Errorf("lookup by hash: %w", err)
	}

	fr, err := p.Fields.ExtractFields(ctx, text, nil)
	if err != nil {
		return nil, "", err
	}
	version, _ := fr.ModelParams["engine_version"].(string)
	e := &entity.Extraction{
		ID:            uuid.New(),
		SourcePath:    source,
		ContentHash:   hash,
		Fields:        fr.Result.Fields,
		LineItems:     fr.Result.LineItems,
		Strategy:      fr.Result.Strategy,
		Table:         fr.Result.Table,
		Confidence:    fr.Confidence,
		EngineVersion: version,
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.Store.Save(ctx, e); err != nil {
		return nil, "", err
	}
	p.remember(ctx, hash, e)
	return e, constants.JobStatusSucceeded, nil
}

func (p *Processor) remember(ctx context.Context, hash string, e *entity.Extraction) {
	if err := p.Cache.Set(ctx, hash, e); err != nil {
		p.Logger.Warn("processor.cache.set.failed", "hash", hash, "err", err)
	}
}

func (p *Processor) startJob(ctx context.Context, source string) uuid.UUID {
	if p.Jobs == nil {
		return uuid.Nil
	}
	job, err := p.Jobs.Start(ctx, source)
	if err != nil {
		p.Logger.Warn("processor.job.start.failed", "source", source, "err", err)
		return uuid.Nil
	}
	return job.ID
}

func (p *Processor) finishJob(ctx context.Context, jobID uuid.UUID, e *entity.Extraction, status constants.JobStatus) {
	if jobID == uuid.Nil {
		return
	}
	if err := p.Jobs.FinishSuccess(ctx, jobID, e.ContentHash, e.ID, status); err != nil {
		p.Logger.Warn("processor.job.finish.failed", "job_id", jobID, "err", err)
	}
}

func (p *Processor) failJob(ctx context.Context, jobID uuid.UUID, cause error) {
	if jobID == uuid.Nil {
		return
	}
	// the job row outlives a canceled request
	if err := p.Jobs.FinishFailure(context.WithoutCancel(ctx), jobID, cause.Error()); err != nil {
		p.Logger.Warn("processor.job.finish.failed", "job_id", jobID, "err", err)
	}
}
