package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-channel-digest/internal/cache"
	"github.com/tbourn/go-channel-digest/internal/config"
	"github.com/tbourn/go-channel-digest/internal/repo"
	"github.com/tbourn/go-channel-digest/internal/services"
	"github.com/tbourn/go-channel-digest/internal/source"
	"github.com/tbourn/go-channel-digest/internal/summarizer"
)

// app owns the long-lived components shared by every command.
type app struct {
	db     *gorm.DB
	cache  cache.Cache
	redis  *cache.RedisCache
	subs   *services.SubscriptionService
	digest *services.DigestService
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	db, err := repo.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &app{db: db}

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			// Reads degrade to misses until Redis is reachable.
			log.Warn().Err(err).Msg("redis unreachable at startup; continuing")
			rc = cache.OpenRedis(cfg.RedisURL)
		}
		a.redis, a.cache = rc, rc
	} else {
		log.Info().Msg("REDIS_URL not set; using in-process summary cache")
		a.cache = cache.NewMemory()
	}

	sum, err := summarizer.FromConfig(cfg.Summarizer)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	src := source.NewFeedSource(cfg.SourceURLTemplate, nil)

	a.subs = services.NewSubscriptionService(db, nil)
	a.digest = services.NewDigestService(a.subs, a.cache, src, sum, cfg.Digest)
	return a, nil
}

// ready reports whether the database and, when configured, Redis respond.
func (a *app) ready(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, repo.Close(a.db))
	}
	return errors.Join(errs...)
}

func newServer(cfg config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

const shutdownTimeout = 10 * time.Second
