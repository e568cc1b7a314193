package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-channel-digest/internal/services"
)

// AddChannelRequest is the JSON payload for POST /channels. Channel may be
// "name", "@name" or a t.me link.
type AddChannelRequest struct {
	Channel string `json:"channel" binding:"required"`
}

// AddChannelResponse echoes the canonical channel id.
type AddChannelResponse struct {
	Channel string `json:"channel"`
	Created bool   `json:"created"`
}

// ListChannelsResponse lists monitored channels in the order they were added.
type ListChannelsResponse struct {
	Channels []string `json:"channels"`
}

// AddChannel handles POST /channels. Adding an already monitored channel
// returns 200 instead of 201.
func (h *Handlers) AddChannel(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	var req AddChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "channel is required")
		return
	}

	ch, created, err := h.subs.AddChannel(c.Request.Context(), uid, req.Channel)
	switch {
	case errors.Is(err, services.ErrInvalidChannel):
		fail(c, http.StatusBadRequest, ErrCodeInvalidChannel, "invalid channel name")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeStorageFailed, "could not save channel")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, AddChannelResponse{Channel: ch, Created: created})
}

// ListChannels handles GET /channels. It sets a weak ETag derived from the
// subscription fingerprint and answers 304 when If-None-Match matches.
func (h *Handlers) ListChannels(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if count, latest, maxID, err := h.subs.Version(ctx, uid); err == nil {
		var ts int64
		if latest != nil {
			ts = latest.UnixNano()
		}
		etag := fmt.Sprintf(`W/"channels:%s:%d:%d:%d"`, uid, count, maxID, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	chans, err := h.subs.List(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStorageFailed, "could not list channels")
		return
	}
	ok(c, http.StatusOK, ListChannelsResponse{Channels: chans})
}

// RemoveChannel handles DELETE /channels/:channel. It answers 404 when the
// channel was not monitored.
func (h *Handlers) RemoveChannel(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	removed, err := h.subs.Remove(c.Request.Context(), uid, c.Param("channel"))
	switch {
	case errors.Is(err, services.ErrInvalidChannel):
		fail(c, http.StatusBadRequest, ErrCodeInvalidChannel, "invalid channel name")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeStorageFailed, "could not remove channel")
	case !removed:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "channel not found in the monitored list")
	default:
		noContent(c)
	}
}
