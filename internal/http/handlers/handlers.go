// Package handlers provides HTTP handler implementations for the public API.
//
// Endpoints (mounted under the configured API base path):
//   - POST   /channels            (start monitoring a channel)
//   - GET    /channels            (list monitored channels, ETag support)
//   - DELETE /channels/{channel}  (stop monitoring)
//   - GET    /summaries           (per-channel summary report)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-channel-digest/internal/domain"
)

// HeaderUserID carries the caller's user id.
const HeaderUserID = "X-User-ID"

//
// Service contracts (context-aware)
//

// SubscriptionService manages the channels a user monitors.
type SubscriptionService interface {
	// AddChannel normalizes and stores channel, returning the canonical id
	// and whether it was newly added.
	AddChannel(ctx context.Context, userID, channel string) (string, bool, error)
	// Remove stops monitoring; false means it was not monitored.
	Remove(ctx context.Context, userID, channel string) (bool, error)
	// List returns channel ids in insertion order.
	List(ctx context.Context, userID string) ([]string, error)
	// Version fingerprints the list for conditional requests.
	Version(ctx context.Context, userID string) (int64, *time.Time, uint, error)
}

// DigestService builds summary reports.
type DigestService interface {
	SummarizeForUser(ctx context.Context, userID string) (*domain.Report, error)
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	subs   SubscriptionService
	digest DigestService
}

// New constructs Handlers bound to the given services.
func New(subs SubscriptionService, digest DigestService) *Handlers {
	return &Handlers{subs: subs, digest: digest}
}

// userID extracts the caller id from the Gin context (set by upstream
// middleware) or the X-User-ID header. It returns "" when neither is present.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		return strings.TrimSpace(c.GetHeader(HeaderUserID))
	}
	return ""
}

// requireUser writes 401 and returns false when the request has no user id.
func requireUser(c *gin.Context) (string, bool) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-User-ID header required")
		return "", false
	}
	return uid, true
}
