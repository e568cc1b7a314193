package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tbourn/go-channel-digest/internal/cache"
)

// ----- Fake ChannelStore -----

type fakeStore struct {
	mu    sync.Mutex
	lists map[string][]string
	err   error
}

func newFakeStore(lists map[string][]string) *fakeStore {
	return &fakeStore{lists: lists}
}

func (s *fakeStore) Add(_ context.Context, userID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.lists[userID] {
		if c == channelID {
			return nil
		}
	}
	s.lists[userID] = append(s.lists[userID], channelID)
	return nil
}

func (s *fakeStore) Remove(_ context.Context, userID, channelID string) (bool, error) {
	return false, nil
}

func (s *fakeStore) List(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := append([]string{}, s.lists[userID]...)
	return out, nil
}

// ----- Fake MessageSource -----

type fakeSource struct {
	mu       sync.Mutex
	messages map[string][]string
	errs     map[string]error
	calls    map[string]int
	limits   []int

	// When gate is non-nil every Fetch signals started and blocks until gate
	// is closed or ctx is done.
	gate    chan struct{}
	started chan string
	panics  bool
}

func newFakeSource(messages map[string][]string) *fakeSource {
	return &fakeSource{messages: messages, errs: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeSource) Fetch(ctx context.Context, channelID string, limit int) ([]string, error) {
	f.mu.Lock()
	f.calls[channelID]++
	f.limits = append(f.limits, limit)
	gate, started, panics := f.gate, f.started, f.panics
	msgs, err := f.messages[channelID], f.errs[channelID]
	f.mu.Unlock()

	if panics {
		panic("source exploded")
	}
	if gate != nil {
		if started != nil {
			started <- channelID
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return append([]string{}, msgs...), nil
}

func (f *fakeSource) Calls(channelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[channelID]
}

func (f *fakeSource) SetErr(channelID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, channelID)
		return
	}
	f.errs[channelID] = err
}

// ----- Fake Summarizer -----

type fakeSummarizer struct {
	mu     sync.Mutex
	inputs []string
	fail   error
	calls  atomic.Int32
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, text)
	if f.fail != nil {
		return "", f.fail
	}
	return "sum(" + text + ")", nil
}

func (f *fakeSummarizer) SetFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func (f *fakeSummarizer) Inputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.inputs...)
}

// ----- Cache doubles -----

// downCache fails every operation the way an unreachable backend does.
type downCache struct{ gets, puts atomic.Int32 }

func (d *downCache) Get(context.Context, string) (string, bool, error) {
	d.gets.Add(1)
	return "", false, errors.Join(cache.ErrUnavailable, errors.New("connection refused"))
}

func (d *downCache) Put(context.Context, string, string, time.Duration) error {
	d.puts.Add(1)
	return errors.Join(cache.ErrUnavailable, errors.New("connection refused"))
}

// countingCache wraps a Cache and counts Get calls.
type countingCache struct {
	cache.Cache
	gets atomic.Int32
}

func (c *countingCache) Get(ctx context.Context, ch string) (string, bool, error) {
	c.gets.Add(1)
	return c.Cache.Get(ctx, ch)
}

// staleMissCache reports a miss for the next Get after missNext is set, as a
// lookup that ran just before a concurrent Put would.
type staleMissCache struct {
	cache.Cache
	missNext atomic.Bool
}

func (c *staleMissCache) Get(ctx context.Context, ch string) (string, bool, error) {
	if c.missNext.CompareAndSwap(true, false) {
		return "", false, nil
	}
	return c.Cache.Get(ctx, ch)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
