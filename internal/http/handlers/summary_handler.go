package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-channel-digest/internal/domain"
	"github.com/tbourn/go-channel-digest/internal/services"
)

// ChannelSummary is one entry of a SummaryResponse.
type ChannelSummary struct {
	Channel string `json:"channel"`
	Status  string `json:"status"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
	Cached  bool   `json:"cached"`
}

// SummaryResponse is the body of GET /summaries. Monitored is false when the
// user has no channels; Results is then empty.
type SummaryResponse struct {
	Monitored   bool             `json:"monitored"`
	GeneratedAt time.Time        `json:"generated_at"`
	Results     []ChannelSummary `json:"results"`
}

// GetSummaries handles GET /summaries. Per-channel failures are reported
// inside the body with status "error"; only a storage failure fails the
// request.
func (h *Handlers) GetSummaries(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}

	rep, err := h.digest.SummarizeForUser(c.Request.Context(), uid)
	if err != nil {
		var se *services.StorageError
		if errors.As(err, &se) {
			fail(c, http.StatusInternalServerError, ErrCodeStorageFailed, "could not load monitored channels")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDigestFailed, "could not build summaries")
		return
	}

	c.Header("Cache-Control", "no-store")
	ok(c, http.StatusOK, toSummaryResponse(rep))
}

func toSummaryResponse(rep *domain.Report) SummaryResponse {
	resp := SummaryResponse{
		Monitored:   !rep.NothingMonitored(),
		GeneratedAt: rep.GeneratedAt,
		Results:     make([]ChannelSummary, 0, len(rep.Results)),
	}
	for _, r := range rep.Results {
		resp.Results = append(resp.Results, ChannelSummary{
			Channel: r.ChannelID,
			Status:  string(r.Status),
			Summary: r.Summary,
			Error:   services.Reason(r),
			Cached:  r.Cached,
		})
	}
	return resp
}
