package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"tradeassist/internal/cli"
	"tradeassist/internal/logging"
)

func main() {
	// A missing .env is fine; config falls back to files and defaults.
	_ = godotenv.Load()

	logger := logging.NewLogger()

	rootCmd := cli.NewRootCmd(logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
