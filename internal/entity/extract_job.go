package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// ExtractJob tracks one attempt to process a source file.
type ExtractJob struct {
	ID           uuid.UUID           `json:"id"`
	SourcePath   string              `json:"source_path"`
	ContentHash  *string             `json:"content_hash,omitempty"`
	ExtractionID *uuid.UUID          `json:"extraction_id,omitempty"`
	Status       constants.JobStatus `json:"status"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}
