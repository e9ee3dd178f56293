package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/a/.git", true},
		{".env.txt", true},
		{"/a/b.txt", false},
		{".", false},
	}
	for _, tt := range tests {
		if got := IsHidden(tt.path); got != tt.want {
			t.Errorf("IsHidden(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIngestPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "inv.TXT")
	writeFile(t, p, "TAX INVOICE\n")
	in := NewFSIngestor(0, nil)

	r, err := in.IngestPath(t.Context(), p)
	if err != nil {
		t.Fatalf("IngestPath() error = %v", err)
	}
	if r.FileExt != "txt" {
		t.Errorf("FileExt = %q, want %q", r.FileExt, "txt")
	}
	if r.HashHex != HashBytes([]byte("TAX INVOICE\n")) {
		t.Errorf("HashHex = %q, want sha256 of contents", r.HashHex)
	}
	if r.Size != 12 {
		t.Errorf("Size = %d, want 12", r.Size)
	}

	bad := filepath.Join(dir, "scan.pdf")
	writeFile(t, bad, "%PDF")
	if _, err := in.IngestPath(t.Context(), bad); err == nil {
		t.Error("IngestPath(pdf) error = nil, want unsupported extension")
	}
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "one")
	writeFile(t, filepath.Join(root, "sub", "b.ocr"), "two")
	writeFile(t, filepath.Join(root, "sub", "c.jpg"), "img")
	writeFile(t, filepath.Join(root, ".cache", "d.txt"), "hidden")
	writeFile(t, filepath.Join(root, ".e.txt"), "hidden")

	results, stats, err := NewFSIngestor(2, nil).IngestDirectory(t.Context(), root, true)
	if err != nil {
		t.Fatalf("IngestDirectory() error = %v", err)
	}
	if stats.Matched != 2 || stats.Succeeded != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 2 matched, 2 succeeded", stats)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if filepath.Base(results[0].SourcePath) != "a.txt" || filepath.Base(results[1].SourcePath) != "b.ocr" {
		t.Errorf("results order = %q, %q", results[0].SourcePath, results[1].SourcePath)
	}

	_, stats, err = NewFSIngestor(2, nil).IngestDirectory(t.Context(), root, false)
	if err != nil {
		t.Fatalf("IngestDirectory(all) error = %v", err)
	}
	if stats.Matched != 4 {
		t.Errorf("Matched with hidden = %d, want 4", stats.Matched)
	}

	if _, _, err := NewFSIngestor(1, nil).IngestDirectory(t.Context(), " ", true); err == nil {
		t.Error("IngestDirectory(blank) error = nil")
	}
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.txt"), "old")

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("StartWatcher() error = %v", err)
	}

	want := map[string]bool{
		filepath.Join(root, "existing.txt"): false,
		filepath.Join(root, "new.txt"):      false,
	}
	writeFile(t, filepath.Join(root, "new.txt"), "fresh")
	writeFile(t, filepath.Join(root, "ignored.png"), "img")

	deadline := time.After(5 * time.Second)
	for remaining := len(want); remaining > 0; {
		select {
		case p := <-events:
			if seen, ok := want[p]; ok && !seen {
				want[p] = true
				remaining--
			} else if !ok {
				t.Errorf("unexpected event %q", p)
			}
		case <-deadline:
			t.Fatalf("timed out, seen = %v", want)
		}
	}

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	if _, _, err := StartWatcher(t.Context(), WatchConfig{}); err == nil {
		t.Error("StartWatcher() error = nil, want no roots")
	}
}
