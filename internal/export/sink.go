// Package export delivers rendered cards to a local directory and, when
// configured, to a Cloud Storage bucket.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"simreg/internal/logger"
)

// Sink stores a rendered card and returns where it was written.
type Sink interface {
	Name() string
	Save(ctx context.Context, object string, data []byte) (string, error)
}

// FileSink writes cards into a directory, creating it when missing.
type FileSink struct {
	Dir string
}

func (s FileSink) Name() string { return "file" }

func (s FileSink) Save(ctx context.Context, object string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &ExportError{Sink: s.Name(), Object: object, Err: err}
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", &ExportError{Sink: s.Name(), Object: object, Err: err}
	}
	path := filepath.Join(s.Dir, filepath.Base(object))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &ExportError{Sink: s.Name(), Object: object, Err: err}
	}
	return path, nil
}

// Exporter writes a card to every configured sink in order and stops at the
// first failure.
type Exporter struct {
	sinks []Sink
	log   zerolog.Logger
}

func NewExporter(sinks ...Sink) *Exporter {
	return &Exporter{
		sinks: sinks,
		log:   logger.WithComponent("export"),
	}
}

// Export returns the locations the card was written to.
func (e *Exporter) Export(ctx context.Context, object string, data []byte) ([]string, error) {
	if len(e.sinks) == 0 {
		return nil, ErrNoSinks
	}

	locations := make([]string, 0, len(e.sinks))
	for _, sink := range e.sinks {
		location, err := sink.Save(ctx, object, data)
		if err != nil {
			e.log.Error().Err(err).Str("sink", sink.Name()).Str("object", object).Msg("Card export failed")
			return locations, fmt.Errorf("%w: %w", ErrExportFailed, err)
		}
		e.log.Info().Str("sink", sink.Name()).Str("location", location).Int("bytes", len(data)).Msg("Card exported")
		locations = append(locations, location)
	}
	return locations, nil
}
