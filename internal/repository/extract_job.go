package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

type ExtractJobRepository interface {
	Start(ctx context.Context, sourcePath string) (*entity.ExtractJob, error)
	FinishSuccess(ctx context.Context, jobID uuid.UUID, contentHash string, extractionID uuid.UUID, status constants.JobStatus) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, log: log}
}

func (r *extractJobRepo) Start(ctx context.Context, sourcePath string) (*entity.ExtractJob, error) {
	job := &entity.ExtractJob{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		Status:     constants.JobStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	q := r.db.rebind(`INSERT INTO extract_jobs (id, source_path, status, started_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.db.SQL.ExecContext(ctx, q, job.ID.String(), sourcePath, string(job.Status), formatTime(job.StartedAt)); err != nil {
		r.log.Error("extract_job start failed", "source", sourcePath, "err", err)
		return nil, common.NewAppError("DATABASE_ERROR", "start job", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("extract_job started", "job_id", job.ID, "source", sourcePath)
	return job, nil
}

func (r *extractJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, contentHash string, extractionID uuid.UUID, status constants.JobStatus) error {
	q := r.db.rebind(`UPDATE extract_jobs
		SET status = ?, content_hash = ?, extraction_id = ?, finished_at = ?
		WHERE id = ?`)
	if err := r.update(ctx, q, string(status), contentHash, extractionID.String(), formatTime(time.Now()), jobID.String()); err != nil {
		r.log.Error("extract_job finish(OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished", "job_id", jobID, "status", status, "extraction_id", extractionID)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	q := r.db.rebind(`UPDATE extract_jobs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`)
	if err := r.update(ctx, q, string(constants.JobStatusFailed), message, formatTime(time.Now()), jobID.String()); err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) update(ctx context.Context, q string, args ...any) error {
	res, err := r.db.SQL.ExecContext(ctx, q, args...)
	if err != nil {
		return common.NewAppError("DATABASE_ERROR", "update job", errors.Join(common.ErrDatabase, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NewAppError("NOT_FOUND", "job not found", common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	q := r.db.rebind(`SELECT id, source_path, content_hash, extraction_id, status, error_message, started_at, finished_at
		FROM extract_jobs WHERE id = ?`)
	var (
		id, status, started           string
		hash, extID, errMsg, finished sql.NullString
		job                           entity.ExtractJob
	)
	err := r.db.SQL.QueryRowContext(ctx, q, jobID.String()).
		Scan(&id, &job.SourcePath, &hash, &extID, &status, &errMsg, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", "job not found", common.ErrNotFound)
	}
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "get job", errors.Join(common.ErrDatabase, err))
	}

	job.ID = jobID
	job.Status = constants.JobStatus(status)
	if job.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("job started_at %q: %w", started, err)
	}
	if hash.Valid {
		job.ContentHash = &hash.String
	}
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	if extID.Valid {
		v, err := uuid.Parse(extID.String)
		if err != nil {
			return nil, fmt.Errorf("job extraction_id %q: %w", extID.String, err)
		}
		job.ExtractionID = &v
	}
	if finished.Valid {
		t, err := parseTime(finished.String)
		if err != nil {
			return nil, fmt.Errorf("job finished_at %q: %w", finished.String, err)
		}
		job.FinishedAt = &t
	}
	return &job, nil
}
