package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-channel-digest/internal/repo"
	"github.com/tbourn/go-channel-digest/internal/services"
)

func newSubsService(t *testing.T) *services.SubscriptionService {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close(db) })
	return services.NewSubscriptionService(db, nil)
}

func decodeErr(t *testing.T, body []byte) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		t.Fatalf("json: %v (%s)", err, body)
	}
	return er
}

func TestChannels_RequireUser(t *testing.T) {
	r := newRouter(New(stubSubs{}, nil))
	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/channels", `{"channel":"news"}`},
		{http.MethodGet, "/channels", ""},
		{http.MethodDelete, "/channels/news", ""},
	} {
		w := do(t, r, tc.method, tc.path, "", tc.body)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status=%d", tc.method, tc.path, w.Code)
		}
		if er := decodeErr(t, w.Body.Bytes()); er.Code != ErrCodeUnauthorized {
			t.Fatalf("code=%q", er.Code)
		}
	}
}

func TestAddChannel_Lifecycle_SQLite(t *testing.T) {
	r := newRouter(New(newSubsService(t), nil))

	w := do(t, r, http.MethodPost, "/channels", "u1", `{"channel":"https://t.me/Durov"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("first add status=%d body=%s", w.Code, w.Body.String())
	}
	var resp AddChannelResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Channel != "@durov" || !resp.Created {
		t.Fatalf("unexpected body: %+v", resp)
	}

	// Same channel in another spelling is a no-op.
	w = do(t, r, http.MethodPost, "/channels", "u1", `{"channel":"@durov"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("second add status=%d", w.Code)
	}

	_ = do(t, r, http.MethodPost, "/channels", "u1", `{"channel":"telegram"}`)

	w = do(t, r, http.MethodGet, "/channels", "u1", "")
	var list ListChannelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(list.Channels) != 2 || list.Channels[0] != "@durov" || list.Channels[1] != "@telegram" {
		t.Fatalf("list=%v", list.Channels)
	}

	// Other users see their own list.
	w = do(t, r, http.MethodGet, "/channels", "u2", "")
	if w.Body.String() != `{"channels":[]}` {
		t.Fatalf("u2 list=%s", w.Body.String())
	}

	w = do(t, r, http.MethodDelete, "/channels/durov", "u1", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", w.Code)
	}
	w = do(t, r, http.MethodDelete, "/channels/durov", "u1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", w.Code)
	}
}

func TestAddChannel_BadInput(t *testing.T) {
	r := newRouter(New(newSubsService(t), nil))

	w := do(t, r, http.MethodPost, "/channels", "u1", `{}`)
	if w.Code != http.StatusBadRequest || decodeErr(t, w.Body.Bytes()).Code != ErrCodeBadRequest {
		t.Fatalf("missing channel: status=%d body=%s", w.Code, w.Body.String())
	}
	w = do(t, r, http.MethodPost, "/channels", "u1", `{"channel":"bad name!"}`)
	if w.Code != http.StatusBadRequest || decodeErr(t, w.Body.Bytes()).Code != ErrCodeInvalidChannel {
		t.Fatalf("invalid channel: status=%d body=%s", w.Code, w.Body.String())
	}
	w = do(t, r, http.MethodDelete, "/channels/bad%20name!", "u1", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid delete: status=%d", w.Code)
	}
}

func TestChannels_StorageFailures(t *testing.T) {
	boom := &services.StorageError{Op: "test", Err: errors.New("db down")}
	subs := stubSubs{
		addFn:    func(context.Context, string, string) (string, bool, error) { return "", false, boom },
		removeFn: func(context.Context, string, string) (bool, error) { return false, boom },
		listFn:   func(context.Context, string) ([]string, error) { return nil, boom },
	}
	r := newRouter(New(subs, nil))

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/channels", `{"channel":"news"}`},
		{http.MethodGet, "/channels", ""},
		{http.MethodDelete, "/channels/news", ""},
	} {
		w := do(t, r, tc.method, tc.path, "u1", tc.body)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s: status=%d", tc.method, tc.path, w.Code)
		}
		if er := decodeErr(t, w.Body.Bytes()); er.Code != ErrCodeStorageFailed {
			t.Fatalf("code=%q", er.Code)
		}
	}
}

func TestListChannels_ETag(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	calls := 0
	subs := stubSubs{
		versionFn: func(context.Context, string) (int64, *time.Time, uint, error) { return 2, &ts, 7, nil },
		listFn: func(context.Context, string) ([]string, error) {
			calls++
			return []string{"a", "b"}, nil
		},
	}
	r := newRouter(New(subs, nil))

	w := do(t, r, http.MethodGet, "/channels", "u1", "")
	etag := w.Header().Get("ETag")
	want := fmt.Sprintf(`W/"channels:u1:2:7:%d"`, ts.UnixNano())
	if w.Code != http.StatusOK || etag != want {
		t.Fatalf("status=%d etag=%q want %q", w.Code, etag, want)
	}

	w = do(t, r, http.MethodGet, "/channels", "u1", "", "If-None-Match", etag)
	if w.Code != http.StatusNotModified || w.Body.Len() != 0 {
		t.Fatalf("expected 304, got %d %q", w.Code, w.Body.String())
	}
	if calls != 1 {
		t.Fatalf("List called %d times; want 1", calls)
	}
}
