package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	pollTimeout = 30 // seconds, long-polling
	maxInflight = 16
)

// Sender is the part of *tgbotapi.BotAPI used to reply.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot long-polls the Telegram Bot API and dispatches commands.
type Bot struct {
	api  *tgbotapi.BotAPI
	send Sender
	cmds *Commands
	log  zerolog.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

var menu = []tgbotapi.BotCommand{
	{Command: CmdStart, Description: "Show help"},
	{Command: CmdAddChannel, Description: "Add a channel to monitor"},
	{Command: CmdListChannels, Description: "List monitored channels"},
	{Command: CmdRemoveChannel, Description: "Remove a channel"},
	{Command: CmdGetSummary, Description: "Get today's summary of all channels"},
}

// New authenticates with token and returns a Bot ready to Run.
func New(token string, cmds *Commands, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	b := newBot(api, cmds, log)
	b.api = api
	return b, nil
}

func newBot(s Sender, cmds *Commands, log zerolog.Logger) *Bot {
	return &Bot{
		send: s,
		cmds: cmds,
		log:  log.With().Str("component", "telegram").Logger(),
		sem:  make(chan struct{}, maxInflight),
	}
}

// Run processes updates until ctx is cancelled, then waits for in-flight
// commands to finish.
func (b *Bot) Run(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(menu...)); err != nil {
		b.log.Warn().Err(err).Msg("set bot commands failed")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)
	b.log.Info().Str("bot", b.api.Self.UserName).Msg("telegram bot polling")

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, upd)
		}
	}
}

// dispatch handles upd on its own goroutine, blocking while maxInflight
// commands are already running.
func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update) {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	b.wg.Add(1)
	go func() {
		defer func() {
			<-b.sem
			b.wg.Done()
		}()
		b.handleUpdate(ctx, upd)
	}()
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error().Interface("panic", rec).Int("update_id", upd.UpdateID).Msg("command panicked")
		}
	}()

	uid := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID
	reply := func(text string) error {
		for _, part := range Split(text, MaxMessageLen) {
			if _, err := b.send.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := b.cmds.Handle(ctx, uid, msg.Command(), msg.CommandArguments(), reply); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Str("command", msg.Command()).Msg("reply failed")
	}
}
