// Package services – SubscriptionService
//
// This file implements SubscriptionService, the ChannelStore used by the
// digest orchestrator and the transport adapters. It normalizes channel
// references, delegates persistence to the repository and wraps every
// storage failure into *StorageError.
package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-channel-digest/internal/domain"
	"github.com/tbourn/go-channel-digest/internal/repo"
)

// ChannelStore maps a user to the set of channels they monitor.
//
// Add is idempotent. Remove reports whether the pair existed. List returns
// channel ids in insertion order and an empty slice when there are none.
type ChannelStore interface {
	Add(ctx context.Context, userID, channelID string) error
	Remove(ctx context.Context, userID, channelID string) (bool, error)
	List(ctx context.Context, userID string) ([]string, error)
}

// SubscriptionRepo defines the repository contract required by
// SubscriptionService.
type SubscriptionRepo interface {
	AddSubscription(ctx context.Context, db *gorm.DB, userID, channelID string) (bool, error)
	RemoveSubscription(ctx context.Context, db *gorm.DB, userID, channelID string) (bool, error)
	ListChannels(ctx context.Context, db *gorm.DB, userID string) ([]string, error)
	SubscriptionStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, uint, error)
}

// RepoFuncs adapts the repo package's free functions to SubscriptionRepo.
type RepoFuncs struct{}

func (RepoFuncs) AddSubscription(ctx context.Context, db *gorm.DB, userID, channelID string) (bool, error) {
	return repo.AddSubscription(ctx, db, userID, channelID)
}

func (RepoFuncs) RemoveSubscription(ctx context.Context, db *gorm.DB, userID, channelID string) (bool, error) {
	return repo.RemoveSubscription(ctx, db, userID, channelID)
}

func (RepoFuncs) ListChannels(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	return repo.ListChannels(ctx, db, userID)
}

func (RepoFuncs) SubscriptionStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, uint, error) {
	return repo.SubscriptionStats(ctx, db, userID)
}

// SubscriptionService manages per-user channel subscriptions.
type SubscriptionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the subscription repository used by this service.
	Repo SubscriptionRepo
}

// NewSubscriptionService constructs a SubscriptionService. A nil repo
// selects RepoFuncs.
func NewSubscriptionService(db *gorm.DB, r SubscriptionRepo) *SubscriptionService {
	if r == nil {
		r = RepoFuncs{}
	}
	return &SubscriptionService{DB: db, Repo: r}
}

var _ ChannelStore = (*SubscriptionService)(nil)

func (s *SubscriptionService) span(ctx context.Context, name, userID, channel string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("user.id", userID)}
	if channel != "" {
		attrs = append(attrs, attribute.String("channel.id", channel))
	}
	return otel.Tracer("services/SubscriptionService").Start(ctx, name, trace.WithAttributes(attrs...))
}

// Add starts monitoring channel for userID. Adding a channel that is
// already monitored succeeds without change.
func (s *SubscriptionService) Add(ctx context.Context, userID, channel string) error {
	_, _, err := s.AddChannel(ctx, userID, channel)
	return err
}

// AddChannel is Add that also returns the canonical channel id and whether
// a new subscription was created.
func (s *SubscriptionService) AddChannel(ctx context.Context, userID, channel string) (string, bool, error) {
	ch, err := s.validate(userID, channel)
	if err != nil {
		return "", false, err
	}
	ctx, span := s.span(ctx, "Add", userID, ch)
	defer span.End()

	created, err := s.Repo.AddSubscription(ctx, s.DB, userID, ch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "add subscription")
		return "", false, storageErr("add", err)
	}
	span.SetAttributes(attribute.Bool("subscription.created", created))
	return ch, created, nil
}

// Remove stops monitoring channel. It returns false, nil when the channel was
// not monitored.
func (s *SubscriptionService) Remove(ctx context.Context, userID, channel string) (bool, error) {
	ch, err := s.validate(userID, channel)
	if err != nil {
		return false, err
	}
	ctx, span := s.span(ctx, "Remove", userID, ch)
	defer span.End()

	removed, err := s.Repo.RemoveSubscription(ctx, s.DB, userID, ch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remove subscription")
		return false, storageErr("remove", err)
	}
	return removed, nil
}

// List returns the channels monitored by userID in the order they were added.
func (s *SubscriptionService) List(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	ctx, span := s.span(ctx, "List", userID, "")
	defer span.End()

	chans, err := s.Repo.ListChannels(ctx, s.DB, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list subscriptions")
		return nil, storageErr("list", err)
	}
	if chans == nil {
		chans = []string{}
	}
	span.SetAttributes(attribute.Int("channels.count", len(chans)))
	return chans, nil
}

// Version returns a compact fingerprint of userID's subscription list,
// suitable for a weak ETag. It changes whenever the list changes.
func (s *SubscriptionService) Version(ctx context.Context, userID string) (count int64, latest *time.Time, maxID uint, err error) {
	count, latest, maxID, err = s.Repo.SubscriptionStats(ctx, s.DB, userID)
	if err != nil {
		return 0, nil, 0, storageErr("stats", err)
	}
	return count, latest, maxID, nil
}

func (s *SubscriptionService) validate(userID, channel string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrMissingUser
	}
	return domain.NormalizeChannel(channel)
}
