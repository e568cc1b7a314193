package domain

import "time"

// Status is the terminal outcome of summarizing one channel.
type Status string

const (
	// StatusSummary means Summary holds text, either cached or freshly produced.
	StatusSummary Status = "summary"
	// StatusNoMessages means the source returned nothing to summarize. It is
	// a valid outcome, not a failure.
	StatusNoMessages Status = "no_messages"
	// StatusError means fetching or summarizing failed; Err holds the cause.
	StatusError Status = "error"
)

// ChannelResult is the per-channel entry of a Report.
type ChannelResult struct {
	ChannelID string
	Status    Status
	Summary   string
	Err       error
	// Cached is true when Summary was served from the summary cache without
	// any external call.
	Cached bool
}

// Report is the ordered, per-channel outcome of one summary request. Results
// follow the order of the user's channel list.
type Report struct {
	UserID      string
	Results     []ChannelResult
	GeneratedAt time.Time
}

// NothingMonitored reports whether the user had no channels at request time.
func (r *Report) NothingMonitored() bool { return r == nil || len(r.Results) == 0 }

// Failed returns the number of channels that ended in StatusError.
func (r *Report) Failed() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusError {
			n++
		}
	}
	return n
}
