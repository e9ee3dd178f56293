package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem      = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir        = flag.String("dir", "", "directory of OCR text files to process (required)")
		out        = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		showHidden = flag.Bool("hidden", false, "include hidden files and directories")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "invoices.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	a, err := app.New(ctx, cfg, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ingestor := ingest.NewFSIngestor(cfg.Queue.Workers, logger)
	logger.Info("starting ingestion", "dir", *dir)
	results, stats, err := ingestor.IngestDirectory(ctx, *dir, !*showHidden)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed)

	var (
		mu        sync.Mutex
		processed []entity.Extraction
		seen      = map[string]bool{}
		failures  int
	)
	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		async.WithResultHandler(func(_ async.Job, e *entity.Extraction, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				return
			}
			// identical documents collapse onto one stored extraction
			if !seen[e.ID.String()] {
				seen[e.ID.String()] = true
				processed = append(processed, *e)
			}
		}),
	)

	enqueued := 0
	for _, r := range results {
		if r.Err != "" {
			logger.Warn("skipping file", "file", r.SourcePath, "error", r.Err)
			continue
		}
		if err := queue.Enqueue(ctx, async.NewJob(r.SourcePath, "")); err != nil {
			logger.Error("failed to enqueue", "file", r.SourcePath, "error", err)
			break
		}
		enqueued++
	}
	queue.Shutdown(ctx)

	mu.Lock()
	report := slices.Clone(processed)
	failed := failures
	mu.Unlock()
	slices.SortFunc(report, func(x, y entity.Extraction) int {
		return strings.Compare(x.SourcePath, y.SourcePath)
	})

	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := a.Exporter.ExportXLSX(ctx, report)
	if err != nil {
		logger.Error("failed to export extractions", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"files_enqueued", enqueued,
		"invoices", len(report),
		"failures", failed,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files enqueued: %d\n", enqueued)
	fmt.Printf("- Invoices exported: %d\n", len(report))
	fmt.Printf("- Failures: %d\n", failed)
	fmt.Printf("- Output: %s\n", *out)
}
