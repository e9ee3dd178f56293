package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

func openTestDB(t *testing.T, dsn string) *DB {
	t.Helper()
	db, err := Open(t.Context(), Config{DSN: dsn, DialTimeout: 5 * time.Second}, nil)
	if err != nil {
		t.Fatalf("Open(%q) error = %v", dsn, err)
	}
	t.Cleanup(func() { Close(db, nil) })
	return db
}

func sampleExtraction(hash string) *entity.Extraction {
	return &entity.Extraction{
		SourcePath:  "inbox/" + hash + ".txt",
		ContentHash: hash,
		Fields: invoice.Fields{
			constants.CompanyName:   "Acme Trading LLC",
			constants.InvoiceNumber: "INV-1042",
			constants.InvoiceDate:   constants.NotFound,
		},
		LineItems: []invoice.LineItem{{
			SrNo:          1,
			Description:   "Steel Beam Heavy",
			Quantity:      "2",
			UOM:           "EA",
			AmountExclVAT: "250.00",
		}},
		Strategy:      "vertical-table",
		Table:         invoice.TableStructure{HeaderRow: 3, EndRow: 7},
		Confidence:    0.75,
		EngineVersion: "2024.11",
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		dsn  string
		want Dialect
	}{
		{"postgres://u:p@localhost/db", DialectPostgres},
		{"postgresql://localhost/db", DialectPostgres},
		{"file:invoices.db", DialectSQLite},
		{":memory:", DialectSQLite},
		{"sqlite:/tmp/x.db", DialectSQLite},
	}
	for _, tt := range tests {
		if got := DialectFor(tt.dsn); got != tt.want {
			t.Errorf("DialectFor(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: DialectPostgres}
	lite := &DB{Dialect: DialectSQLite}
	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	if got, want := pg.rebind(q), "SELECT a FROM t WHERE b = $1 AND c = $2"; got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
	if got := lite.rebind(q); got != q {
		t.Errorf("sqlite rebind = %q, want %q", got, q)
	}
}

func TestExtractionRepository_SQLite(t *testing.T) {
	exerciseExtractionRepository(t, openTestDB(t, ":memory:"))
}

func TestExtractionRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	db := openTestDB(t, dsn)
	ctx := t.Context()
	if _, err := db.SQL.ExecContext(ctx, "DELETE FROM extractions"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	exerciseExtractionRepository(t, db)
}

func exerciseExtractionRepository(t *testing.T, db *DB) {
	ctx := t.Context()
	repo := NewExtractionRepository(db, nil)

	first := sampleExtraction("hash-a")
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if first.ID == uuid.Nil {
		t.Fatal("Save() left ID unset")
	}

	got, err := repo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Fields.Get(constants.InvoiceNumber) != "INV-1042" {
		t.Errorf("invoice number = %q, want %q", got.Fields.Get(constants.InvoiceNumber), "INV-1042")
	}
	if got.Fields.Get(constants.TRN) != constants.NotFound {
		t.Errorf("trn = %q, want %q", got.Fields.Get(constants.TRN), constants.NotFound)
	}
	if len(got.LineItems) != 1 || got.LineItems[0].Description != "Steel Beam Heavy" {
		t.Errorf("line items = %+v", got.LineItems)
	}
	if got.Table.HeaderRow != 3 || got.Table.EndRow != 7 {
		t.Errorf("table = %+v, want header 3 end 7", got.Table)
	}
	if got.Confidence != 0.75 {
		t.Errorf("confidence = %v, want 0.75", got.Confidence)
	}

	dup := sampleExtraction("hash-a")
	dup.SourcePath = "inbox/copy.txt"
	if err := repo.Save(ctx, dup); err != nil {
		t.Fatalf("Save(dup) error = %v", err)
	}
	if dup.ID != first.ID {
		t.Errorf("duplicate hash ID = %v, want stored %v", dup.ID, first.ID)
	}
	if dup.SourcePath != first.SourcePath {
		t.Errorf("duplicate source = %q, want %q", dup.SourcePath, first.SourcePath)
	}

	second := sampleExtraction("hash-b")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("Save(second) error = %v", err)
	}

	byHash, err := repo.GetByHash(ctx, "hash-b")
	if err != nil {
		t.Fatalf("GetByHash() error = %v", err)
	}
	if byHash.ID != second.ID {
		t.Errorf("GetByHash ID = %v, want %v", byHash.ID, second.ID)
	}

	list, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() len = %d, want 2", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("List()[0] = %v, want newest %v", list[0].ID, second.ID)
	}

	limited, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("List(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("List(1) len = %d, want 1", len(limited))
	}

	_, err = repo.GetByID(ctx, uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestExtractJobRepository(t *testing.T) {
	ctx := t.Context()
	db := openTestDB(t, ":memory:")
	jobs := NewExtractJobRepository(db, nil)

	job, err := jobs.Start(ctx, "inbox/a.txt")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if job.Status != constants.JobStatusRunning {
		t.Errorf("status = %q, want %q", job.Status, constants.JobStatusRunning)
	}

	extID := uuid.New()
	if err := jobs.FinishSuccess(ctx, job.ID, "hash-a", extID, constants.JobStatusSucceeded); err != nil {
		t.Fatalf("FinishSuccess() error = %v", err)
	}
	got, err := jobs.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != constants.JobStatusSucceeded {
		t.Errorf("status = %q, want %q", got.Status, constants.JobStatusSucceeded)
	}
	if got.ExtractionID == nil || *got.ExtractionID != extID {
		t.Errorf("extraction id = %v, want %v", got.ExtractionID, extID)
	}
	if got.FinishedAt == nil {
		t.Error("finished_at not set")
	}

	failed, err := jobs.Start(ctx, "inbox/b.txt")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := jobs.FinishFailure(ctx, failed.ID, "empty text"); err != nil {
		t.Fatalf("FinishFailure() error = %v", err)
	}
	got, err = jobs.Get(ctx, failed.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != constants.JobStatusFailed || got.ErrorMessage == nil || *got.ErrorMessage != "empty text" {
		t.Errorf("failed job = %+v", got)
	}

	if err := jobs.FinishFailure(ctx, uuid.New(), "x"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("FinishFailure(missing) error = %v, want ErrNotFound", err)
	}
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	db := openTestDB(t, "sqlite:"+path)
	if err := HealthCheck(context.Background(), db, time.Second, nil); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}
