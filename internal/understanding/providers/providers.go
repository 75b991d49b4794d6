// Package providers builds the configured image-understanding capabilities.
package providers

import (
	"context"
	"fmt"

	"simreg/internal/config"
	"simreg/internal/understanding"
	"simreg/internal/understanding/documentai"
	"simreg/internal/understanding/gemini"
	"simreg/internal/understanding/openai"
	"simreg/internal/understanding/vision"
)

// NewDetector returns the detector selected by cfg.Detector. The returned
// close function releases the provider's client and is never nil.
func NewDetector(ctx context.Context, cfg *config.Config) (understanding.CardDetector, func() error, error) {
	switch cfg.Detector {
	case "gemini":
		s, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case "vision":
		d, err := vision.New(ctx)
		if err != nil {
			return nil, noop, err
		}
		return d, d.Close, nil
	case "openai":
		s, err := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown detector %q", cfg.Detector)
	}
}

// NewExtractor returns the field extractor selected by cfg.Extractor.
func NewExtractor(ctx context.Context, cfg *config.Config) (understanding.FieldExtractor, func() error, error) {
	switch cfg.Extractor {
	case "gemini":
		s, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case "documentai":
		e, err := documentai.New(ctx, documentai.Config{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
			Timeout:     cfg.DetectTimeout,
		})
		if err != nil {
			return nil, noop, err
		}
		return e, e.Close, nil
	case "openai":
		s, err := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown extractor %q", cfg.Extractor)
	}
}

func noop() error { return nil }
