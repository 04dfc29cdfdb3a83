package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
// Values come from defaults, then the optional TOML file named by FLEET_CONFIG,
// then environment variables. Durations are environment-only.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Decode   DecodeConfig   `toml:"decode"`
	RateCon  RateConConfig  `toml:"ratecon"`
	Invoice  InvoiceConfig  `toml:"invoice"`
	Storage  StorageConfig  `toml:"storage"`
	Kafka    KafkaConfig    `toml:"kafka"`
	Ingest   IngestConfig   `toml:"ingest"`
	LogLevel string         `toml:"log_level"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string        `toml:"dsn"`
	MaxConns         int32         `toml:"max_conns"`
	MinConns         int32         `toml:"min_conns"`
	MaxConnLifetime  time.Duration `toml:"-"`
	MaxConnIdleTime  time.Duration `toml:"-"`
	DialTimeout      time.Duration `toml:"-"`
	StatementTimeout time.Duration `toml:"-"`
	AutoMigrate      bool          `toml:"auto_migrate"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string        `toml:"http_addr"`
	GRPCAddr        string        `toml:"grpc_addr"` // health only; empty disables
	MaxUploadBytes  int64         `toml:"max_upload_bytes"`
	ReadTimeout     time.Duration `toml:"-"`
	WriteTimeout    time.Duration `toml:"-"`
	ShutdownTimeout time.Duration `toml:"-"`
}

// DecodeConfig holds document decoding configuration
type DecodeConfig struct {
	Pdftotext string `toml:"pdftotext"` // empty disables the external fallback
	MaxPages  int    `toml:"max_pages"` // 0 reads every page
}

// RateConConfig extends the built-in rate confirmation label sets.
type RateConConfig struct {
	LoadIDLabels       []string `toml:"load_id_labels"`
	PickupLabels       []string `toml:"pickup_labels"`
	DeliveryLabels     []string `toml:"delivery_labels"`
	RateLabels         []string `toml:"rate_labels"`
	PickupDateLabels   []string `toml:"pickup_date_labels"`
	DeliveryDateLabels []string `toml:"delivery_date_labels"`
	DayFirst           bool     `toml:"day_first"`
}

// InvoiceConfig holds the issuer block and layout switches for rendered invoices
type InvoiceConfig struct {
	IssuerName    string   `toml:"issuer_name"`
	IssuerLegal   string   `toml:"issuer_legal"`
	IssuerAddress string   `toml:"issuer_address"`
	IssuerContact string   `toml:"issuer_contact"`
	PaymentTerms  []string `toml:"payment_terms"`
	Compress      bool     `toml:"compress"`
}

// StorageConfig selects where rendered invoices are kept
type StorageConfig struct {
	Backend string `toml:"backend"` // "local" | "s3"
	Dir     string `toml:"dir"`
	Bucket  string `toml:"bucket"`
	Region  string `toml:"region"`
	Prefix  string `toml:"prefix"`
}

// KafkaConfig holds event publishing configuration; empty broker disables publishing
type KafkaConfig struct {
	Broker string `toml:"broker"`
	Topic  string `toml:"topic"`
}

// IngestConfig holds the rate confirmation inbox configuration; empty dir disables it
type IngestConfig struct {
	InboxDir       string        `toml:"inbox_dir"`
	Workers        int           `toml:"workers"`
	QueueSize      int           `toml:"queue_size"`
	InitialScan    bool          `toml:"initial_scan"`
	ProcessTimeout time.Duration `toml:"-"`
	Debounce       time.Duration `toml:"-"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
			AutoMigrate:     true,
		},
		Server: ServerConfig{
			HTTPAddr:        ":5000",
			GRPCAddr:        ":8081",
			MaxUploadBytes:  5 << 20,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Decode: DecodeConfig{
			MaxPages: 50,
		},
		Invoice: InvoiceConfig{
			IssuerName:    "PWP Fleet Management",
			IssuerLegal:   "Peace Way Logistics",
			IssuerAddress: "123 Trucking Lane, Logistics City, TX 12345",
			IssuerContact: "Phone: (555) 123-4567 | Email: billing@pwp.com",
			PaymentTerms: []string{
				"Payment Terms: Net 30 days",
				"Please make checks payable to Peace Way Logistics",
				"Thank you for your business!",
			},
			Compress: true,
		},
		Storage: StorageConfig{
			Backend: "local",
			Dir:     "./invoices",
			Prefix:  "invoices/",
		},
		Kafka: KafkaConfig{
			Topic: "fleet-events",
		},
		Ingest: IngestConfig{
			Workers:        4,
			QueueSize:      256,
			InitialScan:    true,
			ProcessTimeout: 2 * time.Minute,
			Debounce:       500 * time.Millisecond,
		},
		LogLevel: "info",
	}
}

// LoadConfig loads configuration from the optional TOML file and environment variables
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("FLEET_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError(CodeConfig, fmt.Sprintf("read config file %q", path), err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, NewAppError(CodeConfig, fmt.Sprintf("parse config file %q", path), err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)
	c.Database.AutoMigrate = getEnvAsBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Server.HTTPAddr = normalizeAddr(getEnv("HTTP_ADDR", c.Server.HTTPAddr))
	if port := os.Getenv("PORT"); port != "" {
		c.Server.HTTPAddr = normalizeAddr(port)
	}
	c.Server.GRPCAddr = normalizeAddr(getEnv("GRPC_ADDR", c.Server.GRPCAddr))
	c.Server.MaxUploadBytes = int64(getEnvAsInt("MAX_UPLOAD_BYTES", int(c.Server.MaxUploadBytes)))
	c.Server.ReadTimeout = getEnvAsDuration("HTTP_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("HTTP_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Decode.Pdftotext = getEnv("PDFTOTEXT", c.Decode.Pdftotext)
	c.Decode.MaxPages = getEnvAsInt("PDF_MAX_PAGES", c.Decode.MaxPages)

	c.RateCon.LoadIDLabels = getEnvAsList("RATECON_LOAD_ID_LABELS", c.RateCon.LoadIDLabels)
	c.RateCon.PickupLabels = getEnvAsList("RATECON_PICKUP_LABELS", c.RateCon.PickupLabels)
	c.RateCon.DeliveryLabels = getEnvAsList("RATECON_DELIVERY_LABELS", c.RateCon.DeliveryLabels)
	c.RateCon.RateLabels = getEnvAsList("RATECON_RATE_LABELS", c.RateCon.RateLabels)
	c.RateCon.PickupDateLabels = getEnvAsList("RATECON_PICKUP_DATE_LABELS", c.RateCon.PickupDateLabels)
	c.RateCon.DeliveryDateLabels = getEnvAsList("RATECON_DELIVERY_DATE_LABELS", c.RateCon.DeliveryDateLabels)
	c.RateCon.DayFirst = getEnvAsBool("RATECON_DAY_FIRST", c.RateCon.DayFirst)

	c.Invoice.IssuerName = getEnv("INVOICE_ISSUER_NAME", c.Invoice.IssuerName)
	c.Invoice.IssuerLegal = getEnv("INVOICE_ISSUER_LEGAL", c.Invoice.IssuerLegal)
	c.Invoice.IssuerAddress = getEnv("INVOICE_ISSUER_ADDRESS", c.Invoice.IssuerAddress)
	c.Invoice.IssuerContact = getEnv("INVOICE_ISSUER_CONTACT", c.Invoice.IssuerContact)
	c.Invoice.Compress = getEnvAsBool("INVOICE_COMPRESS", c.Invoice.Compress)

	c.Storage.Backend = strings.ToLower(getEnv("STORAGE_BACKEND", c.Storage.Backend))
	c.Storage.Dir = getEnv("STORAGE_DIR", c.Storage.Dir)
	c.Storage.Bucket = getEnv("S3_BUCKET", c.Storage.Bucket)
	c.Storage.Region = getEnv("AWS_REGION", c.Storage.Region)
	c.Storage.Prefix = getEnv("S3_PREFIX", c.Storage.Prefix)

	c.Kafka.Broker = getEnv("KAFKA_BROKER", c.Kafka.Broker)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)

	c.Ingest.InboxDir = getEnv("INBOX_DIR", c.Ingest.InboxDir)
	c.Ingest.Workers = getEnvAsInt("INGEST_WORKERS", c.Ingest.Workers)
	c.Ingest.QueueSize = getEnvAsInt("INGEST_QUEUE_SIZE", c.Ingest.QueueSize)
	c.Ingest.InitialScan = getEnvAsBool("INGEST_INITIAL_SCAN", c.Ingest.InitialScan)
	c.Ingest.ProcessTimeout = getEnvAsDuration("INGEST_PROCESS_TIMEOUT", c.Ingest.ProcessTimeout)
	c.Ingest.Debounce = getEnvAsDuration("INGEST_DEBOUNCE", c.Ingest.Debounce)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
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

// getEnvAsList splits a comma-separated value; the env list replaces the default.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeAddr(addr string) string {
	if addr == "" || strings.Contains(addr, ":") {
		return addr
	}
	return ":" + addr
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewKindError(CodeConfig, "DB_URL is required", ErrInvalidInput, nil)
	}
	if c.Server.HTTPAddr == "" {
		return NewKindError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput, nil)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewKindError(CodeConfig, "MAX_UPLOAD_BYTES must be positive", ErrInvalidInput, nil)
	}
	if c.Decode.MaxPages < 0 {
		return NewKindError(CodeConfig, "PDF_MAX_PAGES must not be negative", ErrInvalidInput, nil)
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.Dir == "" {
			return NewKindError(CodeConfig, "STORAGE_DIR is required for local storage", ErrInvalidInput, nil)
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return NewKindError(CodeConfig, "S3_BUCKET is required for s3 storage", ErrInvalidInput, nil)
		}
	default:
		return NewKindError(CodeConfig, fmt.Sprintf("unknown STORAGE_BACKEND %q", c.Storage.Backend), ErrInvalidInput, nil)
	}
	if c.Ingest.InboxDir != "" && c.Ingest.Workers <= 0 {
		return NewKindError(CodeConfig, "INGEST_WORKERS must be positive", ErrInvalidInput, nil)
	}
	return nil
}
