package common

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoadConfigDefaultsValidate(t *testing.T) {
	cfg := LoadConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if cfg.Engine.HeaderScanLines != 50 || cfg.Engine.MaxMergeLines != 2 {
		t.Errorf("engine defaults = %+v", cfg.Engine)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENGINE_ARITHMETIC_SCORING", "true")
	t.Setenv("QUEUE_WORKERS", "9")
	t.Setenv("REDIS_TTL", "90s")
	cfg := LoadConfig()
	if !cfg.Engine.ArithmeticScoring {
		t.Error("ArithmeticScoring = false, want true")
	}
	if cfg.Queue.Workers != 9 {
		t.Errorf("Workers = %d, want 9", cfg.Queue.Workers)
	}
	if cfg.Cache.TTL.Seconds() != 90 {
		t.Errorf("TTL = %v, want 90s", cfg.Cache.TTL)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty dsn", func(c *Config) { c.Store.DSN = "" }, "DSN"},
		{"no workers", func(c *Config) { c.Queue.Workers = 0 }, "Workers"},
		{"same sheets", func(c *Config) { c.Export.LineItemSheet = c.Export.InvoiceSheet }, "LineItemSheet"},
		{"min above max", func(c *Config) { c.Store.MinConns = c.Store.MaxConns + 1 }, "MinConns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			var appErr *AppError
			if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
				t.Errorf("error = %v, want CONFIG_ERROR", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateText(t *testing.T) {
	if err := ValidateText("Invoice No: 123"); err != nil {
		t.Errorf("ValidateText(valid) = %v", err)
	}
	for _, in := range []string{"", "   ", "\xff\xfe", strings.Repeat("a", MaxTextBytes+1)} {
		err := ValidateText(in)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("ValidateText(len %d) = %v, want ErrValidation", len(in), err)
		}
	}
}

func TestUUIDRule(t *testing.T) {
	tests := []struct {
		value   interface{}
		wantErr bool
	}{
		{"5f0c6c1e-0000-4000-8000-000000000000", false},
		{"nope", true},
		{"", true},
		{42, true},
	}
	for _, tt := range tests {
		if got := UUID("id", tt.value); (got != nil) != tt.wantErr {
			t.Errorf("UUID(%v) = %v, wantErr %v", tt.value, got, tt.wantErr)
		}
	}
	err := NewValidator().Field("id", "nope", Required, UUID).Error()
	if !errors.Is(err, ErrValidation) || !strings.Contains(err.Error(), "must be a valid UUID") {
		t.Errorf("validator error = %v, want ErrValidation about UUID", err)
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{InvalidInput("empty text"), codes.InvalidArgument},
		{WrapError(ErrNotFound, "extraction"), codes.NotFound},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		if got := status.Code(ToStatus(tt.err)); got != tt.want {
			t.Errorf("ToStatus(%v) code = %v, want %v", tt.err, got, tt.want)
		}
	}
	if ToStatus(nil) != nil {
		t.Error("ToStatus(nil) != nil")
	}
}

func TestEnsureRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if id == "" || RequestIDFromContext(ctx) != id {
		t.Fatalf("EnsureRequestID id = %q, ctx id = %q", id, RequestIDFromContext(ctx))
	}
	if _, again := EnsureRequestID(ctx); again != id {
		t.Errorf("second EnsureRequestID = %q, want %q", again, id)
	}
}
