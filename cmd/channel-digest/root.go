package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-channel-digest/internal/config"
	"github.com/tbourn/go-channel-digest/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	envFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:           "channel-digest",
	Short:         "Summaries of the Telegram channels you monitor",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// A missing .env is fine; the environment may already be set.
		_ = godotenv.Load(envFile)

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		sysutil.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(serveCmd, digestCmd)
}

func appVersion() string {
	return sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
}
