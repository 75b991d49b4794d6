package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"simreg/internal/detect"
	"simreg/internal/logger"
	"simreg/internal/raster"
	"simreg/internal/understanding/providers"
)

var detectCmd = &cobra.Command{
	Use:   "detect [image]",
	Short: "Detect the ID card on a scan and crop it automatically",
	Long: `Send a scan to the configured detector (SIMREG_DETECTOR), crop the
detected card and write it as PNG.

The command exits with an error when no card is found or the detector
cannot be reached. In both cases crop the card with 'simreg crop'.

Required environment variables depend on the detector:
  gemini  GEMINI_API_KEY (or API_KEY)
  vision  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
  openai  OPENAI_API_KEY`,
	Example: `  simreg detect front.jpg -o front_card.png
  SIMREG_DETECTOR=vision simreg detect back.jpg -o back_card.png`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringP("output", "o", "", "Output PNG path (default: stdout)")
}

func runDetect(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("detect")
	outputPath, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	file, err := readUpload(args[0], log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(cfg.DetectTimeout, log)
	defer cancel()

	detector, closeDetector, err := providers.NewDetector(ctx, cfg)
	if err != nil {
		return handleCapabilityError(err, log)
	}
	defer func() {
		if err := closeDetector(); err != nil {
			log.Warn().Err(err).Msg("Failed to close detector")
		}
	}()

	log.Info().
		Str("file", file.Name).
		Str("detector", cfg.Detector).
		Msg("Detecting card")

	adapter := detect.NewAdapter(detector, raster.NewImageEngine(), cfg.DetectTimeout)
	cropped, err := adapter.Detect(ctx, file)
	if err != nil {
		return handleCapabilityError(err, log)
	}
	if cropped == nil {
		return fmt.Errorf("no ID card was detected in the image")
	}

	return writeFile(outputPath, cropped.Data, log)
}
