package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	OCR       OCRConfig       `yaml:"ocr"`
	Extract   ExtractConfig   `yaml:"extract"`
	Budget    BudgetConfig    `yaml:"budget"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Standards StandardsConfig `yaml:"standards"`
	Log       LogConfig       `yaml:"log"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Enabled              bool          `yaml:"enabled"`
	Tesseract            string        `yaml:"tesseract"`
	TesseractLang        string        `yaml:"tesseract_lang"`
	TessdataDir          string        `yaml:"tessdata_dir"`
	PSM                  int           `yaml:"psm"`
	OEM                  int           `yaml:"oem"`
	Timeout              time.Duration `yaml:"timeout"`
	RenderScale          float64       `yaml:"render_scale"`
	MinConfidence        float64       `yaml:"min_confidence"`
	ScannedPageThreshold int           `yaml:"scanned_page_threshold"`
	MaxConcurrent        int64         `yaml:"max_concurrent"`
}

// ExtractConfig holds per-format extraction switches
type ExtractConfig struct {
	ExtractTables bool  `yaml:"extract_tables"`
	MaxFileSize   int64 `yaml:"max_file_size"`
}

// BudgetConfig holds the token budget applied by callers of the text processor
type BudgetConfig struct {
	CompressionRatio  float64 `yaml:"compression_ratio"`
	MaxTokensPerBatch int     `yaml:"max_tokens_per_batch"`
}

// PipelineConfig holds fan-out settings for multi-file parsing
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // sqlite or postgres
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr        string        `yaml:"grpc_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StandardsConfig holds the standards registry settings
type StandardsConfig struct {
	StorageDir string        `yaml:"storage_dir"`
	InboxDir   string        `yaml:"inbox_dir"`
	Workers    int           `yaml:"workers"`
	Debounce   time.Duration `yaml:"debounce"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Enabled:              true,
			Tesseract:            "tesseract",
			TesseractLang:        "chi_sim+eng",
			Timeout:              30 * time.Second,
			RenderScale:          2.0,
			MinConfidence:        0.5,
			ScannedPageThreshold: 30,
			MaxConcurrent:        2,
		},
		Extract: ExtractConfig{
			ExtractTables: true,
			MaxFileSize:   100 << 20,
		},
		Budget: BudgetConfig{
			CompressionRatio:  1.0,
			MaxTokensPerBatch: 60000,
		},
		Pipeline: PipelineConfig{
			Workers: 4,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "data/standards.db",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr:        ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Standards: StandardsConfig{
			StorageDir: "data/standards",
			Workers:    2,
			Debounce:   500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from an optional .env file, an optional
// YAML file named by BIDDOCS_CONFIG and then environment variables, in that
// order of increasing precedence.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // a missing .env is not an error

	cfg := DefaultConfig()
	if path := os.Getenv("BIDDOCS_CONFIG"); path != "" {
		if err := cfg.mergeYAML(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", "read config file", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.OCR.Enabled = getEnvAsBool("OCR_ENABLED", c.OCR.Enabled)
	c.OCR.Tesseract = getEnv("TESSERACT_BIN", c.OCR.Tesseract)
	c.OCR.TesseractLang = getEnv("TESSERACT_LANG", c.OCR.TesseractLang)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.PSM = getEnvAsInt("TESSERACT_PSM", c.OCR.PSM)
	c.OCR.OEM = getEnvAsInt("TESSERACT_OEM", c.OCR.OEM)
	c.OCR.Timeout = getEnvAsDuration("OCR_TIMEOUT", c.OCR.Timeout)
	c.OCR.RenderScale = getEnvAsFloat64("OCR_RENDER_SCALE", c.OCR.RenderScale)
	c.OCR.MinConfidence = getEnvAsFloat64("OCR_MIN_CONFIDENCE", c.OCR.MinConfidence)
	c.OCR.ScannedPageThreshold = getEnvAsInt("OCR_SCANNED_PAGE_THRESHOLD", c.OCR.ScannedPageThreshold)
	c.OCR.MaxConcurrent = int64(getEnvAsInt("OCR_MAX_CONCURRENT", int(c.OCR.MaxConcurrent)))

	c.Extract.ExtractTables = getEnvAsBool("EXTRACT_TABLES", c.Extract.ExtractTables)

	c.Budget.CompressionRatio = getEnvAsFloat64("COMPRESSION_RATIO", c.Budget.CompressionRatio)
	c.Budget.MaxTokensPerBatch = getEnvAsInt("MAX_TOKENS_PER_BATCH", c.Budget.MaxTokensPerBatch)

	c.Pipeline.Workers = getEnvAsInt("PIPELINE_WORKERS", c.Pipeline.Workers)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxOpenConns = getEnvAsInt("DB_MAX_CONNS", c.Database.MaxOpenConns)
	c.Database.ConnMaxLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.ConnMaxLifetime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)

	c.Standards.StorageDir = getEnv("STANDARDS_DIR", c.Standards.StorageDir)
	c.Standards.InboxDir = getEnv("STANDARDS_INBOX", c.Standards.InboxDir)
	c.Standards.Workers = getEnvAsInt("STANDARDS_WORKERS", c.Standards.Workers)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("ocr.timeout", c.OCR.Timeout, Positive)
	v.Field("ocr.render_scale", c.OCR.RenderScale, Positive)
	v.Field("ocr.min_confidence", c.OCR.MinConfidence, UnitInterval)
	v.Field("budget.compression_ratio", c.Budget.CompressionRatio, UnitInterval)
	v.Field("budget.max_tokens_per_batch", c.Budget.MaxTokensPerBatch, Positive)
	v.Field("database.driver", c.Database.Driver, OneOf("sqlite", "postgres"))
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
