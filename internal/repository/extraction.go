package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 100

type ExtractionRepository interface {
	// Save stores e. When an extraction with the same content hash already
	// exists, e is overwritten with the stored record and no row is added.
	Save(ctx context.Context, e *entity.Extraction) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Extraction, error)
	GetByHash(ctx context.Context, hash string) (*entity.Extraction, error)
	List(ctx context.Context, limit int) ([]*entity.Extraction, error)
}

type extractionRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractionRepository(db *DB, log *slog.Logger) ExtractionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionRepo{db: db, log: log}
}

// document is the JSON payload kept in the document column.
type document struct {
	Fields    invoice.Fields     `json:"fields"`
	LineItems []invoice.LineItem `json:"line_items"`
	HeaderRow int                `json:"header_row"`
	EndRow    int                `json:"end_row"`
}

const extractionColumns = `id, source_path, content_hash, document, strategy, confidence, engine_version, created_at`

func (r *extractionRepo) Save(ctx context.Context, e *entity.Extraction) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	doc, err := json.Marshal(document{
		Fields:    e.Fields,
		LineItems: e.LineItems,
		HeaderRow: e.Table.HeaderRow,
		EndRow:    e.Table.EndRow,
	})
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}

	q := r.db.rebind(`INSERT INTO extractions (` + extractionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (content_hash) DO NOTHING`)
	res, err := r.db.SQL.ExecContext(ctx, q,
		e.ID.String(), e.SourcePath, e.ContentHash, string(doc),
		e.Strategy, float64(e.Confidence), e.EngineVersion, formatTime(e.CreatedAt))
	if err != nil {
		r.log.Error("extraction save failed", "hash", e.ContentHash, "err", err)
		return common.NewAppError("DATABASE_ERROR", "save extraction", errors.Join(common.ErrDatabase, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		existing, err := r.GetByHash(ctx, e.ContentHash)
		if err != nil {
			return err
		}
		r.log.Debug("extraction already stored", "id", existing.ID, "hash", e.ContentHash)
		*e = *existing
		return nil
	}
	r.log.Info("extraction saved", "id", e.ID, "source", e.SourcePath, "items", len(e.LineItems))
	return nil
}

func (r *extractionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Extraction, error) {
	return r.getOne(ctx, `SELECT `+extractionColumns+` FROM extractions WHERE id = ?`, id.String())
}

func (r *extractionRepo) GetByHash(ctx context.Context, hash string) (*entity.Extraction, error) {
	return r.getOne(ctx, `SELECT `+extractionColumns+` FROM extractions WHERE content_hash = ?`, hash)
}

func (r *extractionRepo) List(ctx context.Context, limit int) ([]*entity.Extraction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := r.db.rebind(`SELECT ` + extractionColumns + ` FROM extractions ORDER BY created_at DESC, id LIMIT ?`)
	rows, err := r.db.SQL.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "list extractions", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []*entity.Extraction
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "list extractions", errors.Join(common.ErrDatabase, err))
	}
	return out, nil
}

func (r *extractionRepo) getOne(ctx context.Context, query string, arg any) (*entity.Extraction, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.rebind(query), arg)
	e, err := scanExtraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", "extraction not found", common.ErrNotFound)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExtraction(s scanner) (*entity.Extraction, error) {
	var (
		id, created, doc string
		confidence       float64
		e                entity.Extraction
	)
	if err := s.Scan(&id, &e.SourcePath, &e.ContentHash, &doc, &e.Strategy, &confidence, &e.EngineVersion, &created); err != nil {
		return nil, err
	}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("extraction id %q: %w", id, err)
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("extraction created_at %q: %w", created, err)
	}
	var d document
	if err := json.Unmarshal([]byte(doc), &d); err != nil {
		return nil, fmt.Errorf("extraction document: %w", err)
	}
	e.Fields = d.Fields
	e.LineItems = d.LineItems
	e.Table = invoice.TableStructure{HeaderRow: d.HeaderRow, EndRow: d.EndRow}
	e.Confidence = float32(confidence)
	return &e, nil
}
