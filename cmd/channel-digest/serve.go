package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-channel-digest/internal/bot"
	httpapi "github.com/tbourn/go-channel-digest/internal/http"
	"github.com/tbourn/go-channel-digest/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when enabled, the Telegram bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	shutdownTracing, err := observability.Setup(ctx, cfg.OTEL, appVersion())
	if err != nil {
		return err
	}
	defer func() {
		if err := observability.Shutdown(shutdownTracing, shutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("close resources")
		}
	}()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Subscriptions: a.subs,
		Digest:        a.digest,
		Ready:         a.ready,
	}, cfg)
	srv := newServer(cfg, r)

	var tg *bot.Bot
	if cfg.Telegram.Enabled {
		tg, err = bot.New(cfg.Telegram.BotToken, bot.NewCommands(a.subs, a.digest, log.Logger), log.Logger)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", appVersion()).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down http server")
		return srv.Shutdown(sctx)
	})

	if tg != nil {
		g.Go(func() error { return tg.Run(gctx) })
	}

	return g.Wait()
}
