package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"

	"simreg/internal/config"
	"simreg/internal/detect"
	"simreg/internal/export"
	"simreg/internal/understanding"
	"simreg/internal/upload"
)

// loadConfig loads the configuration for commands that need it.
func loadConfig(log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// readUpload reads an image or PDF from disk.
func readUpload(path string, log zerolog.Logger) (upload.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("File not found")
			return upload.File{}, fmt.Errorf("file not found: %s", path)
		}
		if os.IsPermission(err) {
			log.Error().Str("file", path).Msg("Permission denied accessing file")
			return upload.File{}, fmt.Errorf("permission denied accessing file: %s", path)
		}
		return upload.File{}, fmt.Errorf("error accessing file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return upload.File{}, fmt.Errorf("path is not a regular file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return upload.File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := filepath.Base(path)
	f := upload.File{Name: name, MIMEType: upload.MIMEFromName(name), Data: data}
	log.Debug().
		Str("file", path).
		Str("mime_type", f.MIMEType).
		Int64("size", f.Size()).
		Msg("File loaded")
	return f, nil
}

// writeFile writes data to path, or to stdout when path is empty.
func writeFile(path string, data []byte, log zerolog.Logger) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Failed to write output")
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Info().Str("file", path).Int("bytes", len(data)).Msg("Output written")
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// newExporter builds the card exporter: a local directory and, when bucket
// is set, a Cloud Storage bucket. The returned close function is never nil.
func newExporter(ctx context.Context, cfg *config.Config, dir, bucket string) (*export.Exporter, func() error, error) {
	sinks := []export.Sink{export.FileSink{Dir: dir}}
	if bucket == "" {
		return export.NewExporter(sinks...), func() error { return nil }, nil
	}

	client, err := gcs.NewClient(ctx, understanding.GoogleCredentialOptions()...)
	if err != nil {
		return nil, func() error { return nil }, fmt.Errorf("failed to create storage client: %w", err)
	}
	sinks = append(sinks, export.NewGCSSink(export.NewObjectStore(client), bucket, "cards", cfg.ExportMaxRetry, cfg.ExportRetryWait))
	return export.NewExporter(sinks...), client.Close, nil
}

// handleCapabilityError provides user-friendly error messages for detector
// and extractor failures.
func handleCapabilityError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Image understanding failed")

	errStr := err.Error()
	var cfgErr *understanding.ConfigurationError

	switch {
	case errors.As(err, &cfgErr):
		return fmt.Errorf("%s is not configured: set %s. Manual cropping and entry still work without it", cfgErr.Provider, cfgErr.Setting)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("the image-understanding provider timed out. Try increasing DETECT_TIMEOUT_SECONDS")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("processing was canceled")
	case errors.Is(err, detect.ErrNoCardDetected):
		return fmt.Errorf("no ID card was detected in the image. Crop it manually with 'simreg crop'")
	case errors.Is(err, understanding.ErrUnsupportedInput):
		return fmt.Errorf("this provider cannot read the file. Use a JPEG or PNG scan")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "API key not valid") ||
		strings.Contains(errStr, "401"):
		return fmt.Errorf("authentication with the image-understanding provider failed. Check your API key or Google Cloud credentials:\n\n"+
			"  GEMINI_API_KEY / OPENAI_API_KEY for Gemini and OpenAI\n"+
			"  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS for Cloud Vision and Document AI\n\n"+
			"Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "permission"):
		return fmt.Errorf("permission denied by the image-understanding provider: %w", err)
	case strings.Contains(errStr, "QUOTA_EXCEEDED") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "429"):
		return fmt.Errorf("the image-understanding provider quota is exhausted. Try again later")
	case errors.Is(err, detect.ErrDetectionUnavailable):
		return fmt.Errorf("automatic card detection is unavailable. Crop the card manually with 'simreg crop': %w", err)
	default:
		return fmt.Errorf("image understanding failed: %w", err)
	}
}
