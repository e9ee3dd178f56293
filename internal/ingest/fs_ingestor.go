package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// DefaultHashWorkers bounds concurrent file hashing in IngestDirectory.
const DefaultHashWorkers = 4

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	Workers int
	Logger  *slog.Logger
}

func NewFSIngestor(workers int, logger *slog.Logger) *FSIngestor {
	if workers <= 0 {
		workers = DefaultHashWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Workers: workers, Logger: logger}
}

// HashFile returns the hex sha256 of the file contents.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// HashBytes returns the hex sha256 of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult
	if err := ctx.Err(); err != nil {
		return out, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, fmt.Errorf("unsupported or missing extension: %q", ext)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return out, err
	}
	if info.IsDir() {
		return out, fmt.Errorf("%s is a directory", abs)
	}

	hash, size, err := HashFile(abs)
	if err != nil {
		return out, err
	}

	out = IngestionResult{
		SourcePath: abs,
		HashHex:    hash,
		FileExt:    ext,
		Size:       size,
		ModifiedAt: info.ModTime().UTC(),
	}
	i.Logger.Debug("ingest.file", "path", abs, "size", size)
	return out, nil
}

// IngestDirectory walks root, skips hidden if requested, and hashes every
// matching file. Results keep walk order; per-file failures are recorded in
// the result rather than aborting the walk.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var (
		results []IngestionResult
		stats   DirStats
		paths   []int // indexes into results awaiting a hash
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		paths = append(paths, len(results))
		results = append(results, IngestionResult{SourcePath: path})
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.Workers)
	for _, idx := range paths {
		g.Go(func() error {
			r, err := i.IngestPath(gctx, results[idx].SourcePath)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[idx].Err = err.Error()
				return nil
			}
			results[idx] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, stats, err
	}

	for _, idx := range paths {
		if results[idx].Err != "" {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
	}
	i.Logger.Info("ingest.dir.ok", "root", root, "matched", stats.Matched, "failed", stats.Failed)
	return results, stats, nil
}
