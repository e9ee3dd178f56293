package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job asks a worker to process one OCR text file.
type Job struct {
	ID          uuid.UUID
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

// NewJob stamps a job for path with fresh IDs.
func NewJob(path, traceID string) Job {
	if traceID == "" {
		traceID = uuid.NewString()
	}
	return Job{ID: uuid.New(), Path: path, SubmittedAt: time.Now().UTC(), TraceID: traceID}
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
