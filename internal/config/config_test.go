package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simreg/internal/upload"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SIMREG_DETECTOR", "SIMREG_EXTRACTOR", "GEMINI_API_KEY", "API_KEY",
		"MAX_DOCUMENT_SIZE_MB", "MAX_PORTRAIT_SIZE_MB", "DETECT_TIMEOUT_SECONDS",
		"CARD_SCALE", "EXPORT_MAX_RETRIES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Detector)
	assert.Equal(t, "gemini", cfg.Extractor)
	assert.Equal(t, 5, cfg.MaxDocumentSizeMB)
	assert.Equal(t, 2, cfg.MaxPortraitSizeMB)
	assert.Equal(t, 60*time.Second, cfg.DetectTimeout)
	assert.Equal(t, 2.5, cfg.CardScale)
	assert.Equal(t, 3, cfg.ExportMaxRetry)
	assert.Empty(t, cfg.GeminiAPIKey)
}

func TestLoad(t *testing.T) {
	t.Run("falls back to API_KEY for Gemini", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("API_KEY", "legacy-key")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "legacy-key", cfg.GeminiAPIKey)
	})

	t.Run("clamps the card scale", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CARD_SCALE", "4")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 3.0, cfg.CardScale)
	})

	t.Run("rejects an unknown detector", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SIMREG_DETECTOR", "tesseract")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects a non-numeric size limit", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAX_PORTRAIT_SIZE_MB", "two")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestConfig_Policies(t *testing.T) {
	cfg := &Config{MaxDocumentSizeMB: 5, MaxPortraitSizeMB: 1}
	policies := cfg.Policies()

	assert.Equal(t, int64(5*1024*1024), policies[upload.DocumentFront].MaxBytes)
	assert.Equal(t, int64(5*1024*1024), policies[upload.DocumentBack].MaxBytes)
	assert.Equal(t, int64(1024*1024), policies[upload.Portrait].MaxBytes)
}
