// Package services – DigestService
//
// DigestService builds a user's summary report. For every monitored channel
// it serves a fresh cached summary when one exists; otherwise it runs a
// summarization job (fetch recent messages, summarize, store) shared by all
// concurrent requesters of the same channel.
//
// Jobs are keyed by channel id in a singleflight.Group, so at most one job
// per channel is in flight process-wide and every joiner observes the same
// outcome. A job runs under a context detached from the requester that
// started it and bounded by JobTimeout, so one requester going away does not
// fail the others. Only successful summaries are cached; failures and empty
// channels are recomputed on the next request.
//
// Cache failures never fail a request: a failed read is a miss, a failed
// write is logged and skipped.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-channel-digest/internal/cache"
	"github.com/tbourn/go-channel-digest/internal/config"
	"github.com/tbourn/go-channel-digest/internal/domain"
	"github.com/tbourn/go-channel-digest/internal/source"
	"github.com/tbourn/go-channel-digest/internal/summarizer"
)

// Defaults applied by NewDigestService to zero-valued settings.
const (
	DefaultFetchLimit  = source.DefaultLimit
	DefaultJobTimeout  = 60 * time.Second
	DefaultMaxParallel = 4
)

// DigestService orchestrates cache lookups and summarization jobs.
type DigestService struct {
	Store      ChannelStore
	Cache      cache.Cache
	Source     source.MessageSource
	Summarizer summarizer.Summarizer

	TTL         time.Duration
	FetchLimit  int
	JobTimeout  time.Duration
	MaxParallel int

	Log zerolog.Logger
	Now func() time.Time

	jobs singleflight.Group
}

// NewDigestService wires a DigestService with cfg applied and defaults
// filled in.
func NewDigestService(store ChannelStore, c cache.Cache, src source.MessageSource, sum summarizer.Summarizer, cfg config.DigestConfig) *DigestService {
	s := &DigestService{
		Store:       store,
		Cache:       c,
		Source:      src,
		Summarizer:  sum,
		TTL:         cfg.SummaryTTL,
		FetchLimit:  cfg.FetchLimit,
		JobTimeout:  cfg.JobTimeout,
		MaxParallel: cfg.MaxParallel,
		Log:         log.Logger,
		Now:         time.Now,
	}
	if s.TTL <= 0 {
		s.TTL = cache.DefaultTTL
	}
	if s.FetchLimit <= 0 {
		s.FetchLimit = DefaultFetchLimit
	}
	if s.JobTimeout <= 0 {
		s.JobTimeout = DefaultJobTimeout
	}
	if s.MaxParallel <= 0 {
		s.MaxParallel = DefaultMaxParallel
	}
	return s
}

// SummarizeForUser returns one result per channel monitored by userID, in
// list order. A user with no channels gets an empty report for which
// NothingMonitored is true. Only a ChannelStore failure fails the call.
func (s *DigestService) SummarizeForUser(ctx context.Context, userID string) (*domain.Report, error) {
	ctx, span := otel.Tracer("services/DigestService").Start(ctx, "SummarizeForUser",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	channels, err := s.Store.List(ctx, userID)
	if err != nil {
		err = storageErr("list", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "list channels")
		return nil, err
	}

	report := &domain.Report{
		UserID:      userID,
		Results:     make([]domain.ChannelResult, len(channels)),
		GeneratedAt: s.now(),
	}
	if len(channels) == 0 {
		span.SetAttributes(attribute.Bool("digest.nothing_monitored", true))
		return report, nil
	}

	g := new(errgroup.Group)
	g.SetLimit(s.MaxParallel)
	for i, ch := range channels {
		g.Go(func() error {
			report.Results[i] = s.SummarizeChannel(ctx, ch)
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("digest.channels", len(channels)),
		attribute.Int("digest.failed", report.Failed()),
	)
	return report, nil
}

// SummarizeChannel produces the result for a single channel, either from the
// cache or by running (or joining) its summarization job.
func (s *DigestService) SummarizeChannel(ctx context.Context, channelID string) domain.ChannelResult {
	if err := ctx.Err(); err != nil {
		return errorResult(channelID, err)
	}

	if summary, ok := s.lookup(ctx, channelID); ok {
		return domain.ChannelResult{
			ChannelID: channelID,
			Status:    domain.StatusSummary,
			Summary:   summary,
			Cached:    true,
		}
	}

	owner := false
	ch := s.jobs.DoChan(channelID, func() (any, error) {
		owner = true
		// A job that finished between our lookup and DoChan has already
		// stored its summary; reuse it instead of fetching again.
		if summary, ok := s.recheck(ctx, channelID); ok {
			return domain.ChannelResult{
				ChannelID: channelID,
				Status:    domain.StatusSummary,
				Summary:   summary,
				Cached:    true,
			}, nil
		}
		return s.runJob(ctx, channelID), nil
	})

	select {
	case r := <-ch:
		if !owner {
			jobJoins.Inc()
		}
		return r.Val.(domain.ChannelResult)
	case <-ctx.Done():
		return errorResult(channelID, ctx.Err())
	}
}

// lookup reads the cache, treating any backend failure as a miss.
func (s *DigestService) lookup(ctx context.Context, channelID string) (string, bool) {
	if s.Cache == nil {
		return "", false
	}
	summary, ok, err := s.Cache.Get(ctx, channelID)
	switch {
	case err != nil:
		cacheLookups.WithLabelValues(lookupUnavailable).Inc()
		s.Log.Warn().Err(err).Str("channel", channelID).Msg("summary cache read failed; treating as miss")
		return "", false
	case ok:
		cacheLookups.WithLabelValues(lookupHit).Inc()
		return summary, true
	default:
		cacheLookups.WithLabelValues(lookupMiss).Inc()
		return "", false
	}
}

// recheck is a quiet cache read made once the job key is held. Failures were
// already reported by lookup and count as a miss.
func (s *DigestService) recheck(ctx context.Context, channelID string) (string, bool) {
	if s.Cache == nil {
		return "", false
	}
	summary, ok, err := s.Cache.Get(ctx, channelID)
	if err != nil || !ok {
		return "", false
	}
	return summary, true
}

// runJob performs one fetch → summarize → store cycle. It never panics and
// always returns a terminal result.
func (s *DigestService) runJob(parent context.Context, channelID string) (res domain.ChannelResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.JobTimeout)
	defer cancel()

	ctx, span := otel.Tracer("services/DigestService").Start(ctx, "SummarizationJob",
		trace.WithAttributes(attribute.String("channel.id", channelID)),
	)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			res = errorResult(channelID, fmt.Errorf("summarization job panicked: %v", p))
		}
		elapsed := time.Since(start)
		jobsTotal.WithLabelValues(string(res.Status)).Inc()
		jobDuration.Observe(elapsed.Seconds())

		span.SetAttributes(attribute.String("job.status", string(res.Status)))
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, string(res.Status))
			s.Log.Warn().Err(res.Err).
				Str("channel", channelID).
				Dur("latency", elapsed).
				Msg("summarization job failed")
		} else {
			s.Log.Debug().
				Str("channel", channelID).
				Str("status", string(res.Status)).
				Dur("latency", elapsed).
				Msg("summarization job done")
		}
		span.End()
	}()

	msgs, err := s.Source.Fetch(ctx, channelID, s.FetchLimit)
	if err != nil {
		return errorResult(channelID, &FetchError{Channel: channelID, Err: err})
	}
	if len(msgs) > s.FetchLimit {
		msgs = msgs[:s.FetchLimit]
	}
	if len(msgs) == 0 {
		return domain.ChannelResult{ChannelID: channelID, Status: domain.StatusNoMessages}
	}

	summary, err := s.Summarizer.Summarize(ctx, strings.Join(msgs, "\n"))
	if err != nil {
		return errorResult(channelID, &SummarizationError{Channel: channelID, Err: err})
	}

	if s.Cache != nil {
		if err := s.Cache.Put(ctx, channelID, summary, s.TTL); err != nil {
			cacheWriteFailures.Inc()
			s.Log.Warn().Err(err).Str("channel", channelID).Msg("summary cache write failed; continuing")
		}
	}
	return domain.ChannelResult{ChannelID: channelID, Status: domain.StatusSummary, Summary: summary}
}

func (s *DigestService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func errorResult(channelID string, err error) domain.ChannelResult {
	return domain.ChannelResult{ChannelID: channelID, Status: domain.StatusError, Err: err}
}

// IsJobTimeout reports whether a result failed because its job exceeded
// JobTimeout.
func IsJobTimeout(r domain.ChannelResult) bool {
	return r.Status == domain.StatusError && errors.Is(r.Err, context.DeadlineExceeded)
}
