package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"simreg/internal/autofill"
	"simreg/internal/card"
	"simreg/internal/config"
	"simreg/internal/detect"
	"simreg/internal/form"
	"simreg/internal/logger"
	"simreg/internal/raster"
	"simreg/internal/registration"
	"simreg/internal/understanding"
	"simreg/internal/understanding/providers"
	"simreg/internal/upload"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Run a complete SIM registration and render its card",
	Long: `Run one registration end to end: upload both sides of the national ID
card and the customer portrait, optionally auto-fill the form from the card,
apply the field values from --fields, submit and export the card.

ID card scans are auto-detected and cropped. Whenever detection finds
nothing or is unavailable, and always for the portrait, a manual crop
session opens; here it is committed with the centered initial crop, after
the rotation given for that slot.

--fields is a JSON object keyed by form field:
  customerName, fatherName, motherName, dateOfBirth, nidNumber, village,
  postOffice, upazila, district, mobileNumber, additionalInfo
Values from --fields override auto-filled ones.`,
	Example: `  simreg register --front front.jpg --back back.jpg --portrait me.jpg \
    --fields fields.json --autofill --card-dir cards

  # Manual only, with the back scan rotated
  simreg register --front front.jpg --back back.pdf --portrait me.jpg \
    --fields fields.json --no-detect --rotate-front 90`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

// registrationOutput is the JSON summary of a submitted registration. The
// card command reads the same shape.
type registrationOutput struct {
	ApplicationID string      `json:"applicationId"`
	SubmittedAt   time.Time   `json:"submittedAt"`
	Record        form.Record `json:"record"`
	Cards         []string    `json:"cards,omitempty"`
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("front", "", "Front side of the national ID card (JPEG, PNG or PDF)")
	registerCmd.Flags().String("back", "", "Back side of the national ID card (JPEG, PNG or PDF)")
	registerCmd.Flags().String("portrait", "", "Customer portrait (JPEG or PNG)")
	registerCmd.Flags().String("fields", "", "JSON file with form field values")
	registerCmd.Flags().Bool("autofill", false, "Auto-fill the form from the ID card")
	registerCmd.Flags().Bool("no-detect", false, "Skip automatic card detection")
	registerCmd.Flags().Int("rotate-front", 0, "Rotation for a manual crop of the front side")
	registerCmd.Flags().Int("rotate-back", 0, "Rotation for a manual crop of the back side")
	registerCmd.Flags().Int("rotate-portrait", 0, "Rotation for the portrait crop")
	registerCmd.Flags().String("card-dir", "", "Directory for the card PNG (default: CARD_OUTPUT_DIR)")
	registerCmd.Flags().String("gcs-bucket", "", "Also upload the card to this bucket (default: GCS_CARD_BUCKET)")
	registerCmd.Flags().Bool("json", false, "Output the registration summary as JSON")

	_ = registerCmd.MarkFlagRequired("front")
	_ = registerCmd.MarkFlagRequired("back")
	_ = registerCmd.MarkFlagRequired("portrait")
}

func runRegister(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("register")

	paths := map[upload.Slot]string{}
	paths[upload.DocumentFront], _ = cmd.Flags().GetString("front")
	paths[upload.DocumentBack], _ = cmd.Flags().GetString("back")
	paths[upload.Portrait], _ = cmd.Flags().GetString("portrait")
	rotations := map[upload.Slot]int{}
	rotations[upload.DocumentFront], _ = cmd.Flags().GetInt("rotate-front")
	rotations[upload.DocumentBack], _ = cmd.Flags().GetInt("rotate-back")
	rotations[upload.Portrait], _ = cmd.Flags().GetInt("rotate-portrait")
	fieldsPath, _ := cmd.Flags().GetString("fields")
	useAutofill, _ := cmd.Flags().GetBool("autofill")
	noDetect, _ := cmd.Flags().GetBool("no-detect")
	cardDir, _ := cmd.Flags().GetString("card-dir")
	bucket, _ := cmd.Flags().GetString("gcs-bucket")
	jsonOutput, _ := cmd.Flags().GetBool("json")

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

	fields, err := readFields(fieldsPath, log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(5*cfg.DetectTimeout, log)
	defer cancel()

	opts := registration.Options{
		Policies: cfg.Policies(),
		Notifier: registration.NotifierFunc(func(n registration.Notice) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Kind, n.Message)
		}),
	}

	if !noDetect {
		detector, closeDetector, err := providers.NewDetector(ctx, cfg)
		switch {
		case understanding.IsConfigurationError(err):
			log.Warn().Err(err).Msg("Detector not configured, every scan goes to manual crop")
			opts.DetectorErr = err
		case err != nil:
			return handleCapabilityError(err, log)
		default:
			defer closeQuietly(closeDetector, "detector", log)
			opts.Detector = detect.NewAdapter(detector, raster.NewImageEngine(), cfg.DetectTimeout)
		}
	}
	if useAutofill {
		extractor, closeExtractor, err := providers.NewExtractor(ctx, cfg)
		switch {
		case understanding.IsConfigurationError(err):
			log.Warn().Err(err).Msg("Extractor not configured, auto-fill is unavailable")
		case err != nil:
			return handleCapabilityError(err, log)
		default:
			defer closeQuietly(closeExtractor, "extractor", log)
			opts.Extractor = autofill.NewService(extractor, cfg.DetectTimeout)
		}
	}

	orch := registration.New(opts)

	for _, slot := range upload.Slots {
		file, err := readUpload(paths[slot], logger.WithSlot("register", string(slot)))
		if err != nil {
			return err
		}
		if err := orch.HandleFileSelected(ctx, file, slot); err != nil {
			return fmt.Errorf("%s rejected: %w", slot, err)
		}
		if err := resolveSessions(orch, rotations, log); err != nil {
			return err
		}
	}
	orch.Advance()

	if useAutofill {
		if err := orch.AutoFill(ctx); err != nil {
			log.Warn().Err(err).Msg("Auto-fill failed, continuing with the given fields")
		}
	}

	for id, value := range fields {
		if err := orch.SetField(id, value); err != nil {
			return err
		}
	}
	orch.Advance()

	if err := orch.Submit(); err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("registration is incomplete: %w", err)
		}
		return err
	}

	state := orch.State()
	locations, err := exportCard(ctx, cfg, state, cardDir, bucket, log)
	if err != nil {
		return err
	}

	out := registrationOutput{
		ApplicationID: state.ApplicationID,
		SubmittedAt:   state.SubmittedAt,
		Record:        state.Record,
		Cards:         locations,
	}
	if jsonOutput {
		return printJSON(out)
	}

	fmt.Printf("Application ID: %s\n", out.ApplicationID)
	for _, l := range out.Cards {
		fmt.Printf("Card:           %s\n", l)
	}
	return nil
}

// resolveSessions commits every open crop session with its initial crop.
func resolveSessions(orch *registration.Orchestrator, rotations map[upload.Slot]int, log zerolog.Logger) error {
	for {
		session, ok := orch.ActiveSession()
		if !ok {
			return nil
		}
		if r := rotations[session.Slot]; r != 0 {
			if err := orch.RotateSession(r); err != nil {
				return fmt.Errorf("rotate %s: %w", session.Slot, err)
			}
		}
		log.Info().
			Str("slot", string(session.Slot)).
			Str("title", session.Title).
			Str("crop", session.Rect.String()).
			Msg("Committing manual crop")
		if err := orch.CommitSession(); err != nil {
			return handleCropError(err, log)
		}
	}
}

// readFields reads a JSON object of form field values.
func readFields(path string, log zerolog.Logger) (map[form.FieldID]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fields file: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("fields file must be a JSON object of strings: %w", err)
	}

	fields := make(map[form.FieldID]string, len(raw))
	for key, value := range raw {
		id, err := form.ParseFieldID(key)
		if err != nil {
			return nil, err
		}
		if id == form.FieldDistrict && value != "" && !form.IsDistrict(value) {
			log.Warn().Str("district", value).Msg("District is not in the district list, see 'simreg districts'")
		}
		fields[id] = value
	}
	return fields, nil
}

// exportCard renders the card of a submitted application and writes it to
// the configured destinations.
func exportCard(ctx context.Context, cfg *config.Config, state form.State, dir, bucket string, log zerolog.Logger) ([]string, error) {
	c, err := card.FromState(state)
	if err != nil {
		return nil, err
	}
	return renderAndExport(ctx, cfg, c, dir, bucket, log)
}

func renderAndExport(ctx context.Context, cfg *config.Config, c card.Card, dir, bucket string, log zerolog.Logger) ([]string, error) {
	fonts, err := card.LoadFonts(cfg.CardFontPath)
	if err != nil {
		return nil, err
	}
	data, err := card.NewRenderer(cfg.CardScale, fonts).RenderPNG(c)
	if err != nil {
		log.Error().Err(err).Msg("Card rendering failed")
		return nil, fmt.Errorf("কার্ড ডাউনলোড করতে ব্যর্থ হয়েছে। %w", err)
	}

	exporter, closeExporter, err := newExporter(ctx, cfg, dir, bucket)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(closeExporter, "storage client", log)

	return exporter.Export(ctx, card.FileName(c.ApplicationID), data)
}

func closeQuietly(close func() error, what string, log zerolog.Logger) {
	if err := close(); err != nil {
		log.Warn().Err(err).Msgf("Failed to close %s", what)
	}
}
