package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"simreg/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "simreg",
	Short: "simreg - SIM registration intake from the command line",
	Long: `simreg collects a SIM registration: it crops the national ID scans and
the customer portrait, auto-detects the card on each scan, auto-fills the
form from the card and renders the shareable registration card.

Automatic detection and auto-fill use an image-understanding provider
(Gemini, Cloud Vision, Document AI or OpenAI). Every step has a manual
fallback, so registrations work without any provider configured.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("simreg executed")

		fmt.Println("Welcome to simreg!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
