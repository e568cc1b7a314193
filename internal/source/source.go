// Package source reads recent channel messages for summarization.
package source

import "context"

// DefaultLimit is the number of messages read per channel when the caller
// does not specify one.
const DefaultLimit = 10

// MessageSource returns up to limit recent text messages of a channel,
// newest first. Messages without text are never returned. An empty slice
// with a nil error means the channel has nothing to summarize.
type MessageSource interface {
	Fetch(ctx context.Context, channelID string, limit int) ([]string, error)
}
