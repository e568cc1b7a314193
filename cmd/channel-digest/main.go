// Command channel-digest serves the channel summary HTTP API and Telegram
// bot, or prints one user's report from the command line.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("channel-digest failed")
		os.Exit(1)
	}
}
