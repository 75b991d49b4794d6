package cmd

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"simreg/internal/cropper"
	"simreg/internal/geometry"
	"simreg/internal/logger"
	"simreg/internal/raster"
	"simreg/internal/upload"
)

var cropCmd = &cobra.Command{
	Use:   "crop [image]",
	Short: "Crop an ID card scan or portrait manually",
	Long: `Crop an image the way the manual crop dialog does.

Without a rectangle the centered initial crop for the slot is used: the
ID card ratio 85.6:54 for document slots and 3:4 for the portrait. The
rectangle is given in displayed pixels (--unit px) or in percent of the
displayed image (--unit %). The image is displayed at its natural size
unless --display-width and --display-height emulate a scaled preview.
Rotation is applied around the crop center in 90 degree steps.`,
	Example: `  # Centered ID card crop
  simreg crop front.jpg -o front_card.png

  # Portrait crop rotated a quarter turn clockwise
  simreg crop selfie.jpg --slot portrait --rotate 90 -o portrait.png

  # Explicit rectangle in percent of the image
  simreg crop back.jpg --unit % --x 10 --y 20 --width 80 --height 50 -o back_card.png`,
	Args: cobra.ExactArgs(1),
	RunE: runCrop,
}

func init() {
	rootCmd.AddCommand(cropCmd)

	cropCmd.Flags().StringP("output", "o", "", "Output PNG path (default: stdout)")
	cropCmd.Flags().String("slot", string(upload.DocumentFront), "Target slot: document-front, document-back or portrait")
	cropCmd.Flags().Int("rotate", 0, "Rotation in degrees, a multiple of 90")
	cropCmd.Flags().Float64("x", 0, "Crop rectangle left edge")
	cropCmd.Flags().Float64("y", 0, "Crop rectangle top edge")
	cropCmd.Flags().Float64("width", 0, "Crop rectangle width (0 uses the initial crop)")
	cropCmd.Flags().Float64("height", 0, "Crop rectangle height")
	cropCmd.Flags().String("unit", string(geometry.Pixels), "Rectangle unit: px or %")
	cropCmd.Flags().Float64("display-width", 0, "Displayed image width (default: natural width)")
	cropCmd.Flags().Float64("display-height", 0, "Displayed image height (default: natural height)")
}

func runCrop(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	slotName, _ := cmd.Flags().GetString("slot")
	rotate, _ := cmd.Flags().GetInt("rotate")
	x, _ := cmd.Flags().GetFloat64("x")
	y, _ := cmd.Flags().GetFloat64("y")
	width, _ := cmd.Flags().GetFloat64("width")
	height, _ := cmd.Flags().GetFloat64("height")
	unit, _ := cmd.Flags().GetString("unit")
	displayWidth, _ := cmd.Flags().GetFloat64("display-width")
	displayHeight, _ := cmd.Flags().GetFloat64("display-height")

	slot, err := upload.ParseSlot(slotName)
	if err != nil {
		return err
	}
	if unit != string(geometry.Pixels) && unit != string(geometry.Percent) {
		return fmt.Errorf("--unit must be px or %%, got %q", unit)
	}
	log := logger.WithSlot("crop", string(slot))

	file, err := readUpload(args[0], log)
	if err != nil {
		return err
	}
	if file.IsPDF() {
		return fmt.Errorf("PDF files cannot be cropped; they are stored as they are")
	}

	src, err := raster.Decode(file)
	if err != nil {
		return handleCropError(err, log)
	}

	src = src.WithDisplay(geometry.Size{Width: displayWidth, Height: displayHeight})

	session := cropper.New(slot).Load(file.Name, src)
	log.Info().
		Str("session", session.ID).
		Str("title", session.Title).
		Str("initial_crop", session.Rect.String()).
		Msg("Crop session opened")

	if width > 0 || height > 0 {
		rect := geometry.Rect{X: x, Y: y, Width: width, Height: height, Unit: geometry.Unit(unit)}
		if session, err = session.UpdateCropRect(rect); err != nil {
			return handleCropError(err, log)
		}
	}
	if rotate != 0 {
		if session, err = session.Rotate(rotate); err != nil {
			return handleCropError(err, log)
		}
	}

	committed, out, err := session.Commit(raster.NewImageEngine())
	if err != nil {
		return handleCropError(err, log)
	}

	log.Info().
		Str("session", committed.ID).
		Str("crop", committed.Rect.String()).
		Int("rotation", committed.Rotation.Normalized()).
		Int64("bytes", out.Size()).
		Msg("Crop committed")

	return writeFile(outputPath, out.Data, log)
}

// handleCropError provides user-friendly error messages for crop failures
func handleCropError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Crop failed")

	switch {
	case errors.Is(err, raster.ErrDecode):
		return fmt.Errorf("the file could not be decoded as a JPEG or PNG image")
	case errors.Is(err, cropper.ErrCropTooSmall):
		return fmt.Errorf("crop rectangle is too small: %w", err)
	case errors.Is(err, geometry.ErrInvalidCrop):
		return fmt.Errorf("select an area to crop: width and height must be positive")
	case errors.Is(err, geometry.ErrUnsupportedRotation):
		return fmt.Errorf("--rotate must be a multiple of 90 degrees")
	case errors.Is(err, raster.ErrRaster):
		return fmt.Errorf("the cropped image could not be created: %w", err)
	default:
		return fmt.Errorf("crop failed: %w", err)
	}
}
