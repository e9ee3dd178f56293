package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration
type Config struct {
	Engine EngineConfig
	Store  StoreConfig
	Cache  CacheConfig
	Server ServerConfig
	Queue  QueueConfig
	Export ExportConfig
}

// EngineConfig tunes the extraction heuristics
type EngineConfig struct {
	HeaderScanLines   int `validate:"min=1,max=500"`
	MaxMergeLines     int `validate:"min=1,max=10"`
	ArithmeticScoring bool
	Normalize         bool
}

// StoreConfig holds database-related configuration
type StoreConfig struct {
	DSN              string `validate:"required"`
	MaxConns         int32  `validate:"min=1"`
	MinConns         int32  `validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// CacheConfig holds the optional redis result cache settings
type CacheConfig struct {
	Address  string
	Password string
	DB       int           `validate:"min=0,max=15"`
	TTL      time.Duration `validate:"min=0"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string `validate:"required"`
	GRPCAddr string `validate:"required"`
	InboxDir string
}

// QueueConfig sizes the asynchronous processing pool
type QueueConfig struct {
	Workers        int           `validate:"min=1,max=256"`
	Size           int           `validate:"min=1"`
	ProcessTimeout time.Duration `validate:"min=0"`
}

// ExportConfig names the sheets of the XLSX report
type ExportConfig struct {
	InvoiceSheet  string `validate:"required,max=31"`
	LineItemSheet string `validate:"required,max=31,nefield=InvoiceSheet"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			HeaderScanLines:   getEnvAsInt("ENGINE_HEADER_SCAN_LINES", 50),
			MaxMergeLines:     getEnvAsInt("ENGINE_MAX_MERGE_LINES", 2),
			ArithmeticScoring: getEnvAsBool("ENGINE_ARITHMETIC_SCORING", false),
			Normalize:         getEnvAsBool("ENGINE_NORMALIZE", true),
		},
		Store: StoreConfig{
			DSN:              getEnv("DB_URL", "file:invoices.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Cache: CacheConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_TTL", 24*time.Hour),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr: getEnv("GRPC_ADDR", ":9090"),
			InboxDir: getEnv("INBOX_DIR", ""),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 4),
			Size:           getEnvAsInt("QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", 30*time.Second),
		},
		Export: ExportConfig{
			InvoiceSheet:  getEnv("EXPORT_INVOICE_SHEET", "Invoices"),
			LineItemSheet: getEnv("EXPORT_LINE_ITEM_SHEET", "Line Items"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return NewAppError("CONFIG_ERROR", strings.Join(msgs, "; "), ErrInvalidInput)
		}
		return NewAppError("CONFIG_ERROR", err.Error(), ErrInvalidInput)
	}
	return nil
}
