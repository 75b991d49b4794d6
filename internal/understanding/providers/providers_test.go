package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simreg/internal/config"
	"simreg/internal/understanding"
)

func TestNewDetector_MissingCredentials(t *testing.T) {
	for _, name := range []string{"gemini", "openai"} {
		t.Run(name, func(t *testing.T) {
			det, closeFn, err := NewDetector(context.Background(), &config.Config{Detector: name})
			assert.Nil(t, det)
			require.NotNil(t, closeFn)
			assert.NoError(t, closeFn())
			assert.True(t, understanding.IsConfigurationError(err))
		})
	}
}

func TestNewExtractor_MissingCredentials(t *testing.T) {
	for _, name := range []string{"gemini", "openai", "documentai"} {
		t.Run(name, func(t *testing.T) {
			_, _, err := NewExtractor(context.Background(), &config.Config{Extractor: name})
			assert.True(t, understanding.IsConfigurationError(err))
		})
	}
}

func TestNewExtractor_OpenAI(t *testing.T) {
	ext, closeFn, err := NewExtractor(context.Background(), &config.Config{Extractor: "openai", OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	assert.NotNil(t, ext)
	assert.NoError(t, closeFn())
}

func TestNewDetector_Unknown(t *testing.T) {
	_, _, err := NewDetector(context.Background(), &config.Config{Detector: "tesseract"})
	assert.Error(t, err)
}
