package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-channel-digest/internal/domain"
)

// ---------- service stubs ----------

type stubSubs struct {
	addFn     func(ctx context.Context, uid, ch string) (string, bool, error)
	removeFn  func(ctx context.Context, uid, ch string) (bool, error)
	listFn    func(ctx context.Context, uid string) ([]string, error)
	versionFn func(ctx context.Context, uid string) (int64, *time.Time, uint, error)
}

func (s stubSubs) AddChannel(ctx context.Context, uid, ch string) (string, bool, error) {
	if s.addFn == nil {
		return ch, true, nil
	}
	return s.addFn(ctx, uid, ch)
}

func (s stubSubs) Remove(ctx context.Context, uid, ch string) (bool, error) {
	if s.removeFn == nil {
		return true, nil
	}
	return s.removeFn(ctx, uid, ch)
}

func (s stubSubs) List(ctx context.Context, uid string) ([]string, error) {
	if s.listFn == nil {
		return []string{}, nil
	}
	return s.listFn(ctx, uid)
}

func (s stubSubs) Version(ctx context.Context, uid string) (int64, *time.Time, uint, error) {
	if s.versionFn == nil {
		return 0, nil, 0, errors.New("no version")
	}
	return s.versionFn(ctx, uid)
}

type stubDigest struct {
	fn func(ctx context.Context, uid string) (*domain.Report, error)
}

func (s stubDigest) SummarizeForUser(ctx context.Context, uid string) (*domain.Report, error) {
	return s.fn(ctx, uid)
}

// ---------- router helpers ----------

func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/channels", h.AddChannel)
	r.GET("/channels", h.ListChannels)
	r.DELETE("/channels/:channel", h.RemoveChannel)
	r.GET("/summaries", h.GetSummaries)
	return r
}

func do(t *testing.T, r http.Handler, method, path, uid, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if uid != "" {
		req.Header.Set(HeaderUserID, uid)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
