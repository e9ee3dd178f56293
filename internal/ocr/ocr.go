package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// ErrTooLarge is returned when a text dump exceeds Config.MaxBytes.
var ErrTooLarge = errors.New("ocr text too large")

type Config struct {
	MaxBytes  int64 // 0 = 2 MiB
	Normalize bool
}

type ExtractionResult struct {
	Text       string
	Bytes      int
	Method     string // "text-file" | "reader"
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// Loader reads OCR text produced by an upstream engine and prepares it for extraction.
type Loader struct {
	cfg    Config
	logger *slog.Logger
}

func NewLoader(cfg Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 2 << 20
	}
	return &Loader{cfg: cfg, logger: logger}
}

// LoadFile reads a text dump from disk. Only OCR text extensions are accepted.
func (l *Loader) LoadFile(ctx context.Context, path string) (ExtractionResult, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if !constants.IsAllowedExt(ext) {
		l.logger.Error("unsupported ocr extension", "extension", ext, "path", path)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := l.Load(ctx, f)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	res.Method = "text-file"
	return res, nil
}

// Load reads text from r.
func (l *Loader) Load(ctx context.Context, r io.Reader) (ExtractionResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return ExtractionResult{}, err
	}
	raw, err := io.ReadAll(io.LimitReader(r, l.cfg.MaxBytes+1))
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("read ocr text: %w", err)
	}
	if int64(len(raw)) > l.cfg.MaxBytes {
		return ExtractionResult{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, l.cfg.MaxBytes)
	}

	res := ExtractionResult{Bytes: len(raw), Method: "reader"}
	text := string(raw)
	if !utf8.ValidString(text) {
		text = toValidUTF8(text)
		res.Warnings = append(res.Warnings, "invalid utf-8 replaced")
	}
	if l.cfg.Normalize {
		text = Normalize(text)
	}
	res.Text = text
	res.Confidence = TextConfidence(text)
	res.Duration = time.Since(start)

	l.logger.Debug("ocr text loaded",
		"bytes", res.Bytes,
		"duration_ms", res.Duration.Milliseconds(),
		"warnings", len(res.Warnings))
	return res, nil
}
