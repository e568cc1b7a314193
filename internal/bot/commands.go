// Package bot exposes subscriptions and summary reports as Telegram
// commands. Commands holds the transport-free dispatch logic; Bot drives it
// from the Bot API long-polling loop.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-channel-digest/internal/domain"
	"github.com/tbourn/go-channel-digest/internal/services"
)

// Command names, without the leading slash.
const (
	CmdStart         = "start"
	CmdAddChannel    = "add_channel"
	CmdListChannels  = "list_channels"
	CmdRemoveChannel = "remove_channel"
	CmdGetSummary    = "get_summary"
)

const (
	textWelcome = "Welcome to Channel Summarizer Bot! 📚\n\n" +
		"Commands:\n" +
		"/add_channel <channel_username> - Add a channel to monitor\n" +
		"/list_channels - List monitored channels\n" +
		"/remove_channel <channel_username> - Remove a channel\n" +
		"/get_summary - Get today's summary of all channels"

	textAddUsage      = "Please provide a channel username. Usage: /add_channel <channel_username>"
	textRemoveUsage   = "Please provide a channel username. Usage: /remove_channel <channel_username>"
	textInvalid       = "Invalid channel name. Use a channel username like @durov or a t.me link."
	textNoneListed    = "No channels are currently being monitored."
	textNotFound      = "Channel not found in the monitored list."
	textNoneToSummary = "No channels are being monitored. Add channels using /add_channel command."
	textFetching      = "Fetching and summarizing channel messages... This may take a moment."
	textSummaryFailed = "An error occurred while generating summaries. Please try again later."
	textStorageFailed = "Could not access your channel list. Please try again later."
	textUnknown       = "Unknown command. Send /start to see the available commands."
	textNoMessages    = "No recent messages found."
)

// Subscriptions is the subset of the subscription service the bot needs.
type Subscriptions interface {
	AddChannel(ctx context.Context, userID, channel string) (string, bool, error)
	Remove(ctx context.Context, userID, channel string) (bool, error)
	List(ctx context.Context, userID string) ([]string, error)
}

// Digest builds summary reports.
type Digest interface {
	SummarizeForUser(ctx context.Context, userID string) (*domain.Report, error)
}

// Reply sends one text message back to the user who issued a command.
type Reply func(text string) error

// Commands dispatches bot commands to the services.
type Commands struct {
	subs   Subscriptions
	digest Digest
	log    zerolog.Logger
}

// NewCommands returns a dispatcher bound to the given services.
func NewCommands(subs Subscriptions, digest Digest, log zerolog.Logger) *Commands {
	return &Commands{subs: subs, digest: digest, log: log}
}

// Handle runs command for userID. args is the raw text after the command;
// only its first word is used. The returned error comes from reply only;
// service failures are reported to the user and logged.
func (c *Commands) Handle(ctx context.Context, userID, command, args string, reply Reply) error {
	lg := c.log.With().Str("user_id", userID).Str("command", command).Logger()

	switch command {
	case CmdStart, "help":
		return reply(textWelcome)

	case CmdAddChannel:
		arg := firstArg(args)
		if arg == "" {
			return reply(textAddUsage)
		}
		ch, created, err := c.subs.AddChannel(ctx, userID, arg)
		switch {
		case errors.Is(err, services.ErrInvalidChannel):
			return reply(textInvalid)
		case err != nil:
			lg.Error().Err(err).Msg("add channel failed")
			return reply(textStorageFailed)
		case !created:
			return reply(fmt.Sprintf("Channel %s is already being monitored.", ch))
		}
		return reply(fmt.Sprintf("Channel %s added successfully!", ch))

	case CmdListChannels:
		chans, err := c.subs.List(ctx, userID)
		if err != nil {
			lg.Error().Err(err).Msg("list channels failed")
			return reply(textStorageFailed)
		}
		if len(chans) == 0 {
			return reply(textNoneListed)
		}
		return reply(FormatChannelList(chans))

	case CmdRemoveChannel:
		arg := firstArg(args)
		if arg == "" {
			return reply(textRemoveUsage)
		}
		removed, err := c.subs.Remove(ctx, userID, arg)
		switch {
		case errors.Is(err, services.ErrInvalidChannel):
			return reply(textInvalid)
		case err != nil:
			lg.Error().Err(err).Msg("remove channel failed")
			return reply(textStorageFailed)
		case !removed:
			return reply(textNotFound)
		}
		ch, _ := domain.NormalizeChannel(arg)
		return reply(fmt.Sprintf("Channel %s removed successfully!", ch))

	case CmdGetSummary:
		return c.summary(ctx, lg, userID, reply)

	default:
		return reply(textUnknown)
	}
}

// summary reads the channel list before the report so the progress notice is
// only sent when there is something to summarize. The report reads it again;
// a list emptied in between still gets textNoneToSummary.
func (c *Commands) summary(ctx context.Context, lg zerolog.Logger, userID string, reply Reply) error {
	chans, err := c.subs.List(ctx, userID)
	if err != nil {
		lg.Error().Err(err).Msg("list channels failed")
		return reply(textSummaryFailed)
	}
	if len(chans) == 0 {
		return reply(textNoneToSummary)
	}
	if err := reply(textFetching); err != nil {
		return err
	}

	rep, err := c.digest.SummarizeForUser(ctx, userID)
	if err != nil {
		lg.Error().Err(err).Msg("summary report failed")
		return reply(textSummaryFailed)
	}
	if rep.NothingMonitored() {
		return reply(textNoneToSummary)
	}
	if n := rep.Failed(); n > 0 {
		lg.Warn().Int("failed", n).Int("channels", len(rep.Results)).Msg("summary report has failed channels")
	}
	return reply(FormatReport(rep))
}

func firstArg(args string) string {
	f := strings.Fields(args)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}
