package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
)

// WatchInbox feeds every OCR text file that appears under dir into q until
// ctx is done. Files already present are queued first.
func WatchInbox(ctx context.Context, dir string, q async.Queue, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    250 * time.Millisecond,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	logger.Info("watching inbox", "dir", dir)

	for {
		select {
		case path, ok := <-events:
			if !ok {
				return nil
			}
			job := async.NewJob(path, "")
			if err := q.Enqueue(ctx, job); err != nil {
				if errors.Is(err, async.ErrQueueClosed) || ctx.Err() != nil {
					return nil
				}
				logger.Error("inbox enqueue failed", "file", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("inbox watcher error", "error", err)
		}
	}
}
