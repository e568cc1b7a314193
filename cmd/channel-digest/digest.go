package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-channel-digest/internal/bot"
	"github.com/tbourn/go-channel-digest/internal/domain"
)

var digestTimeout time.Duration

var digestCmd = &cobra.Command{
	Use:   "digest <user-id>",
	Short: "Print the summary report for one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), digestTimeout)
		defer cancel()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.digest.SummarizeForUser(ctx, args[0])
		if err != nil {
			return err
		}
		return printReport(cmd.OutOrStdout(), rep)
	},
}

func init() {
	digestCmd.Flags().DurationVar(&digestTimeout, "timeout", 5*time.Minute, "overall deadline for the report")
}

func printReport(w io.Writer, rep *domain.Report) error {
	if rep.NothingMonitored() {
		_, err := fmt.Fprintln(w, "No channels are being monitored.")
		return err
	}
	_, err := fmt.Fprintln(w, bot.FormatReport(rep))
	return err
}
