package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		field       = flag.String("field", "", "print a single field (e.g. invoice_number) instead of the full document")
		xlsxOut     = flag.String("xlsx", "", "also write an XLSX workbook to this path")
		remote      = flag.String("remote", "", "send the text to an invoiced gRPC address instead of extracting locally")
		noNormalize = flag.Bool("no-normalize", false, "skip OCR text normalization")
		pretty      = flag.Bool("pretty", false, "indent JSON output")
		verbose     = flag.Bool("v", false, "debug logging on stderr")
	)
	flag.Usage = func() {
		printError("usage: invoice-extract [flags] [file.txt|-]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	source := flag.Arg(0)
	text, err := readInput(ctx, source, !*noNormalize, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	if *remote != "" {
		if err := extractRemote(ctx, *remote, text, source, *pretty); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg := common.LoadConfig()
	engine := invoice.NewEngine(nil, invoice.Options{
		HeaderScanLines:   cfg.Engine.HeaderScanLines,
		MaxMergeLines:     cfg.Engine.MaxMergeLines,
		ArithmeticScoring: cfg.Engine.ArithmeticScoring,
	}, logger)

	if *field != "" {
		f, ok := constants.ParseField(*field)
		if !ok {
			printError("Error: unknown field %q (known: %v)\n", *field, constants.FieldNames())
			os.Exit(2)
		}
		fmt.Println(engine.ExtractField(f, text))
		return
	}

	hints := map[string]string{}
	if *noNormalize {
		hints[extract.HintNormalize] = "false"
	}
	res, err := extract.NewRulesExtractor(engine, true, logger).ExtractFields(ctx, text, hints)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	out := []byte(res.JSON)
	if *pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}
	fmt.Println(string(out))

	if *xlsxOut != "" {
		e := entity.Extraction{
			ID:            uuid.New(),
			SourcePath:    source,
			ContentHash:   ingest.HashBytes([]byte(text)),
			Fields:        res.Result.Fields,
			LineItems:     res.Result.LineItems,
			Strategy:      res.Result.Strategy,
			Table:         res.Result.Table,
			Confidence:    res.Confidence,
			EngineVersion: engine.Version(),
			CreatedAt:     time.Now().UTC(),
		}
		b, err := export.NewService(cfg.Export.InvoiceSheet, cfg.Export.LineItemSheet, logger).ExportXLSX(ctx, []entity.Extraction{e})
		if err != nil {
			printError("Error: export: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxOut, b, 0o644); err != nil {
			printError("Error: write %s: %v\n", *xlsxOut, err)
			os.Exit(1)
		}
	}
}

// readInput loads a text dump from path, or stdin when path is empty or "-".
func readInput(ctx context.Context, path string, normalize bool, logger *slog.Logger) (string, error) {
	loader := ocr.NewLoader(ocr.Config{MaxBytes: common.MaxTextBytes, Normalize: normalize}, logger)
	var (
		res ocr.ExtractionResult
		err error
	)
	if path == "" || path == "-" {
		res, err = loader.Load(ctx, os.Stdin)
	} else {
		res, err = loader.LoadFile(ctx, filepath.Clean(path))
	}
	if err != nil {
		return "", err
	}
	for _, w := range res.Warnings {
		logger.Warn("input warning", "warning", w)
	}
	return res.Text, nil
}

func extractRemote(ctx context.Context, addr, text, source string, pretty bool) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	out, err := server.NewExtractionClient(conn).Extract(ctx, text, source)
	if err != nil {
		return err
	}
	opts := protojson.MarshalOptions{}
	if pretty {
		opts.Multiline = true
		opts.Indent = "  "
	}
	b, err := opts.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
