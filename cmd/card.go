package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"

	"simreg/internal/card"
	"simreg/internal/form"
	"simreg/internal/logger"
	"simreg/internal/raster"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Render the registration card of a submitted application",
	Long: `Render the shareable registration card from the JSON summary written by
'simreg register --json' and export it as <application id>.png.

The card is rendered at CARD_SCALE (2.5 to 3). Bengali names need a
TrueType font with Bengali glyphs in CARD_FONT_PATH.`,
	Example: `  simreg register ... --json > registration.json
  simreg card --record registration.json --portrait portrait.png --card-dir cards`,
	Args: cobra.NoArgs,
	RunE: runCard,
}

func init() {
	rootCmd.AddCommand(cardCmd)

	cardCmd.Flags().String("record", "", "Registration summary JSON")
	cardCmd.Flags().String("portrait", "", "Cropped portrait image")
	cardCmd.Flags().String("card-dir", "", "Directory for the card PNG (default: CARD_OUTPUT_DIR)")
	cardCmd.Flags().String("gcs-bucket", "", "Also upload the card to this bucket (default: GCS_CARD_BUCKET)")

	_ = cardCmd.MarkFlagRequired("record")
}

func runCard(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("card")

	recordPath, _ := cmd.Flags().GetString("record")
	portraitPath, _ := cmd.Flags().GetString("portrait")
	cardDir, _ := cmd.Flags().GetString("card-dir")
	bucket, _ := cmd.Flags().GetString("gcs-bucket")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if cardDir == "" {
		cardDir = cfg.CardOutputDir
	}
	if bucket == "" {
		bucket = cfg.GCSCardBucket
	}

	data, err := os.ReadFile(recordPath)
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}
	var reg registrationOutput
	if err := json.Unmarshal(data, &reg); err != nil {
		return fmt.Errorf("record is not a registration summary: %w", err)
	}
	if !form.ValidApplicationID(reg.ApplicationID) {
		return fmt.Errorf("record has no valid application ID (got %q)", reg.ApplicationID)
	}

	var portrait image.Image
	if portraitPath != "" {
		file, err := readUpload(portraitPath, log)
		if err != nil {
			return err
		}
		src, err := raster.Decode(file)
		if err != nil {
			return handleCropError(err, log)
		}
		portrait = src.Image
	}

	ctx, cancel := createContextWithTimeout(cfg.DetectTimeout, log)
	defer cancel()

	locations, err := renderAndExport(ctx, cfg, card.Card{
		ApplicationID: reg.ApplicationID,
		Record:        reg.Record,
		Portrait:      portrait,
	}, cardDir, bucket, log)
	if err != nil {
		return err
	}

	for _, l := range locations {
		fmt.Println(l)
	}
	return nil
}
