// Package summarizer turns a block of channel messages into a short
// natural-language summary by delegating to an external model.
package summarizer

import (
	"context"
	"strings"
)

// DefaultMinWords is the input length, in words, below which text is
// returned unchanged.
const DefaultMinWords = 10

// Summarizer condenses text. Implementations must be safe for concurrent use.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// tooShort reports whether text has fewer than minWords words.
func tooShort(text string, minWords int) bool {
	if minWords <= 0 {
		return strings.TrimSpace(text) == ""
	}
	return len(strings.Fields(text)) < minWords
}
