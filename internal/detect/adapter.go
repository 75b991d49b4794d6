// Package detect locates an ID card in an uploaded document image and crops
// it without user interaction.
//
// Detection is best effort. A detector that cannot be reached or answers with
// unusable data is logged and reported the same way as "no card": a nil file.
// Only problems on our side of the call propagate, namely a missing provider
// credential or an upload that cannot be decoded or rasterized.
package detect

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"simreg/internal/geometry"
	"simreg/internal/logger"
	"simreg/internal/raster"
	"simreg/internal/understanding"
	"simreg/internal/upload"
)

// Cropper copies a natural-space region out of a decoded source.
type Cropper interface {
	CropRegion(src raster.Source, region geometry.Region) ([]byte, error)
}

// Adapter turns a detector's normalized box into a cropped PNG.
type Adapter struct {
	detector understanding.CardDetector
	cropper  Cropper
	timeout  time.Duration
	log      zerolog.Logger
}

// NewAdapter creates an adapter. A zero timeout leaves the caller's deadline in charge.
func NewAdapter(detector understanding.CardDetector, cropper Cropper, timeout time.Duration) *Adapter {
	return &Adapter{
		detector: detector,
		cropper:  cropper,
		timeout:  timeout,
		log:      logger.WithComponent("detect"),
	}
}

// DetectAndCrop returns the cropped card, or nil when no card was confidently
// found or the detector failed.
func (a *Adapter) DetectAndCrop(ctx context.Context, image upload.File) (*upload.File, error) {
	cropped, err := a.Detect(ctx, image)
	switch {
	case err == nil:
		return cropped, nil
	case errors.Is(err, ErrNoCardDetected):
		return nil, nil
	case errors.Is(err, ErrDetectionUnavailable):
		a.log.Warn().Err(err).Str("file", image.Name).Msg("Card detection unavailable, falling back to manual crop")
		return nil, nil
	default:
		return nil, err
	}
}

// Detect is DetectAndCrop with the soft outcomes kept apart: it returns
// ErrNoCardDetected or ErrDetectionUnavailable instead of a nil file.
func (a *Adapter) Detect(ctx context.Context, image upload.File) (*upload.File, error) {
	const op = "Detect"

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	region, err := a.detector.DetectCardRegion(ctx, image)
	if err != nil {
		if understanding.IsConfigurationError(err) {
			return nil, err
		}
		return nil, WrapDetectError(op, errors.Join(ErrDetectionUnavailable, err), image.Name)
	}

	a.log.Debug().
		Str("file", image.Name).
		Bool("present", region.Present).
		Dur("duration", time.Since(start)).
		Msg("Detector answered")

	if !region.Present || region.Box == nil {
		return nil, WrapDetectError(op, ErrNoCardDetected, image.Name)
	}

	src, err := raster.Decode(image)
	if err != nil {
		return nil, err
	}

	bounds := region.Box.Denormalize(src.Natural)
	if geometry.RoundPixels(bounds.Width) <= 0 || geometry.RoundPixels(bounds.Height) <= 0 {
		return nil, WrapDetectError(op, ErrNoCardDetected, "detected box has no area")
	}

	data, err := a.cropper.CropRegion(src, bounds)
	if err != nil {
		return nil, err
	}

	cropped := raster.PNGFile(image.Name, data)
	a.log.Info().
		Str("file", image.Name).
		Int("bytes", len(data)).
		Msg("Card detected and cropped")
	return &cropped, nil
}
