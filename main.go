package main

import (
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"simreg/cmd"
	"simreg/internal/config"
	"simreg/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithRunID(uuid.NewString())
	log.Info().Msg("Starting simreg")

	cmd.Execute()

	log.Info().Msg("simreg shutdown")
	os.Exit(0)
}
