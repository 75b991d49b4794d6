package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"simreg/internal/logger"
	"simreg/internal/upload"
)

const (
	minCardScale = 2.5
	maxCardScale = 3.0
)

type Config struct {
	// Capability selection
	Detector  string // gemini, vision, openai
	Extractor string // gemini, documentai, openai

	// Gemini Configuration
	GeminiAPIKey string
	GeminiModel  string

	// OpenAI Configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Google Cloud Configuration
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// Upload limits in megabytes
	MaxDocumentSizeMB int
	MaxPortraitSizeMB int

	DetectTimeout time.Duration

	// Card export
	CardScale       float64
	CardFontPath    string
	CardOutputDir   string
	GCSCardBucket   string
	ExportMaxRetry  int
	ExportRetryWait time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the environment. Credentials are not
// validated here: they are checked when a capability is constructed so that
// manual workflows keep working without any.
func Load() (*Config, error) {
	config := &Config{
		Detector:              getEnv("SIMREG_DETECTOR", "gemini"),
		Extractor:             getEnv("SIMREG_EXTRACTOR", "gemini"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		CardFontPath:          getEnv("CARD_FONT_PATH", ""),
		CardOutputDir:         getEnv("CARD_OUTPUT_DIR", "."),
		GCSCardBucket:         getEnv("GCS_CARD_BUCKET", ""),
		ExportRetryWait:       500 * time.Millisecond,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.MaxDocumentSizeMB, err = getIntEnv("MAX_DOCUMENT_SIZE_MB", 5); err != nil {
		return nil, err
	}
	if config.MaxPortraitSizeMB, err = getIntEnv("MAX_PORTRAIT_SIZE_MB", 2); err != nil {
		return nil, err
	}
	if config.ExportMaxRetry, err = getIntEnv("EXPORT_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	timeoutSecs, err := getIntEnv("DETECT_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	config.DetectTimeout = time.Duration(timeoutSecs) * time.Second

	scale, err := strconv.ParseFloat(getEnv("CARD_SCALE", "2.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("CARD_SCALE must be a number: %w", err)
	}
	config.CardScale = clampScale(scale)

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Detector {
	case "gemini", "vision", "openai":
	default:
		return fmt.Errorf("SIMREG_DETECTOR must be one of gemini, vision, openai (got %q)", c.Detector)
	}
	switch c.Extractor {
	case "gemini", "documentai", "openai":
	default:
		return fmt.Errorf("SIMREG_EXTRACTOR must be one of gemini, documentai, openai (got %q)", c.Extractor)
	}
	if c.MaxDocumentSizeMB <= 0 {
		return fmt.Errorf("MAX_DOCUMENT_SIZE_MB must be positive")
	}
	if c.MaxPortraitSizeMB <= 0 {
		return fmt.Errorf("MAX_PORTRAIT_SIZE_MB must be positive")
	}
	if c.DetectTimeout <= 0 {
		return fmt.Errorf("DETECT_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// Policies returns the per-slot upload policies derived from the size limits.
func (c *Config) Policies() upload.Policies {
	return upload.DefaultPolicies().
		WithMaxBytes(upload.DocumentFront, int64(c.MaxDocumentSizeMB)*1024*1024).
		WithMaxBytes(upload.DocumentBack, int64(c.MaxDocumentSizeMB)*1024*1024).
		WithMaxBytes(upload.Portrait, int64(c.MaxPortraitSizeMB)*1024*1024)
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func clampScale(scale float64) float64 {
	if scale < minCardScale {
		return minCardScale
	}
	if scale > maxCardScale {
		return maxCardScale
	}
	return scale
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}
