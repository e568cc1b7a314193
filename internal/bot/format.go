package bot

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-channel-digest/internal/domain"
	"github.com/tbourn/go-channel-digest/internal/services"
)

// MaxMessageLen is the Telegram limit for one text message, in characters.
const MaxMessageLen = 4096

// FormatChannelList renders channels as a numbered list.
func FormatChannelList(chans []string) string {
	var b strings.Builder
	b.WriteString("Monitored channels:")
	for i, ch := range chans {
		fmt.Fprintf(&b, "\n%d. %s", i+1, ch)
	}
	return b.String()
}

// FormatReport renders a report as one block per channel, in report order.
func FormatReport(rep *domain.Report) string {
	blocks := make([]string, 0, len(rep.Results))
	for _, r := range rep.Results {
		var body string
		switch r.Status {
		case domain.StatusSummary:
			body = r.Summary
		case domain.StatusNoMessages:
			body = textNoMessages
		default:
			body = fmt.Sprintf("⚠️ Summary unavailable (%s).", services.Reason(r))
		}
		blocks = append(blocks, r.ChannelID+":\n"+body)
	}
	return "Today's Channel Summaries:\n\n" + strings.Join(blocks, "\n\n")
}

// Split breaks text into parts of at most max runes, preferring to cut at a
// newline in the second half of each window.
func Split(text string, max int) []string {
	if max <= 0 {
		max = MaxMessageLen
	}
	r := []rune(text)
	var parts []string
	for len(r) > max {
		cut := max
		for i := max; i > max/2; i-- {
			if r[i-1] == '\n' {
				cut = i
				break
			}
		}
		if part := strings.TrimRight(string(r[:cut]), "\n"); part != "" {
			parts = append(parts, part)
		}
		r = r[cut:]
	}
	if len(r) > 0 || len(parts) == 0 {
		parts = append(parts, string(r))
	}
	return parts
}
