package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"simreg/internal/autofill"
	"simreg/internal/logger"
	"simreg/internal/understanding/providers"
)

var autofillCmd = &cobra.Command{
	Use:   "autofill [front-image] [back-image]",
	Short: "Read the form fields from both sides of a national ID card",
	Long: `Send the front and back scans of a national ID card to the configured
extractor (SIMREG_EXTRACTOR) and print the values auto-fill would write into
the registration form. The address is split into village, post office and
upazila on commas and the Bengali full stop.

Required environment variables depend on the extractor:
  gemini      GEMINI_API_KEY (or API_KEY)
  documentai  GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID and Google credentials
  openai      OPENAI_API_KEY`,
	Example: `  simreg autofill front.jpg back.jpg
  simreg autofill front.jpg back.jpg --json > fields.json`,
	Args: cobra.ExactArgs(2),
	RunE: runAutofill,
}

func init() {
	rootCmd.AddCommand(autofillCmd)

	autofillCmd.Flags().Bool("json", false, "Output as JSON")
}

func runAutofill(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("autofill")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	front, err := readUpload(args[0], log)
	if err != nil {
		return err
	}
	back, err := readUpload(args[1], log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(2*cfg.DetectTimeout, log)
	defer cancel()

	extractor, closeExtractor, err := providers.NewExtractor(ctx, cfg)
	if err != nil {
		return handleCapabilityError(err, log)
	}
	defer func() {
		if err := closeExtractor(); err != nil {
			log.Warn().Err(err).Msg("Failed to close extractor")
		}
	}()

	result, err := autofill.NewService(extractor, cfg.DetectTimeout).Extract(ctx, &front, &back)
	if err != nil {
		if errors.Is(err, autofill.ErrExtractionFailed) {
			log.Error().Err(err).Msg("Extraction failed")
			return fmt.Errorf("failed to read the card. Please fill the form manually: %w", err)
		}
		return handleCapabilityError(err, log)
	}

	if jsonOutput {
		return printJSON(result)
	}

	rows := []struct{ label, value string }{
		{"Name", result.Name},
		{"Father's name", result.FatherName},
		{"Mother's name", result.MotherName},
		{"Date of birth", result.DateOfBirth},
		{"NID number", result.NIDNumber},
		{"Village", result.Village},
		{"Post office", result.PostOffice},
		{"Upazila", result.Upazila},
		{"Address", result.Address},
	}
	for _, row := range rows {
		fmt.Printf("%-14s %s\n", row.label+":", row.value)
	}
	return nil
}
