package main

import (
	"os"
	"strings"

	"github.com/MariluHA/cognitive-risk-prediction/internal/cfg"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "riskpredictor",
	Short: "Alzheimer risk prediction service",
	Long:  "riskpredictor serves pre-trained Alzheimer risk classifiers over HTTP and fetches their artifacts.",
	// Running without a subcommand starts the server.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// loadSettings reads configuration and applies the logging settings.
func loadSettings() (cfg.Settings, error) {
	settings, err := cfg.Load()
	if err != nil {
		return cfg.Settings{}, err
	}
	setupLogging(settings.LogLevel, settings.LogFormat)
	return settings, nil
}

func setupLogging(levelName, format string) {
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
