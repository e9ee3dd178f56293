package cache

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

func TestDisabledCache(t *testing.T) {
	ctx := t.Context()
	c, err := Connect(ctx, Config{}, "v1", nil)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if c.Enabled() {
		t.Fatal("Enabled() = true for empty address")
	}
	if err := c.Set(ctx, "h", &entity.Extraction{}); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	if _, ok, err := c.Get(ctx, "h"); ok || err != nil {
		t.Errorf("Get() = %v, %v, want miss", ok, err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	var nilCache *ResultCache
	if nilCache.Enabled() {
		t.Error("nil cache Enabled() = true")
	}
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	ctx := t.Context()
	c, err := Connect(ctx, Config{Address: addr, TTL: time.Minute}, "test-"+uuid.NewString(), nil)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	hash := uuid.NewString()
	want := &entity.Extraction{
		ID:          uuid.New(),
		ContentHash: hash,
		Fields:      invoice.Fields{constants.InvoiceNumber: "INV-7"},
		LineItems:   []invoice.LineItem{{SrNo: 1, Description: "Copper Cable 4mm"}},
	}
	if err := c.Set(ctx, hash, want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := c.Get(ctx, hash)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, want hit", ok, err)
	}
	if got.ID != want.ID {
		t.Errorf("ID = %v, want %v", got.ID, want.ID)
	}
	if got.Fields.Get(constants.InvoiceNumber) != "INV-7" {
		t.Errorf("invoice number = %q, want %q", got.Fields.Get(constants.InvoiceNumber), "INV-7")
	}

	if err := c.Delete(ctx, hash); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, hash); ok {
		t.Error("Get() after Delete hit")
	}
}
