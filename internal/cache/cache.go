// Package cache stores generated channel summaries for a bounded time so
// repeated digest requests inside the window do not re-fetch or
// re-summarize. Keys are derived from the channel id only; summaries are
// shared across users.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every backend failure. Callers treat it as a miss on
// read and ignore it on write.
var ErrUnavailable = errors.New("cache unavailable")

// DefaultTTL is the lifetime of a summary entry.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "summary:"

// Cache is the summary store used by the digest orchestrator.
//
// Get returns ok=false on a miss or after expiry. Put replaces any existing
// entry and restarts its TTL.
type Cache interface {
	Get(ctx context.Context, channelID string) (summary string, ok bool, err error)
	Put(ctx context.Context, channelID, summary string, ttl time.Duration) error
}

// Key returns the storage key for channelID.
func Key(channelID string) string { return keyPrefix + channelID }
