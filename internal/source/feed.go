package source

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const userAgent = "channel-digest/1.0"

// FeedSource reads a channel through an RSS/Atom mirror. The URL is built
// from a template where %s is the channel name without its '@' prefix,
// e.g. "https://rsshub.app/telegram/channel/%s".
//
// A gofeed.Parser is not safe for concurrent use, so each Fetch builds its
// own around the shared client.
type FeedSource struct {
	template string
	client   *http.Client
}

// NewFeedSource returns a FeedSource. A nil client selects one with
// conservative timeouts.
func NewFeedSource(template string, client *http.Client) *FeedSource {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
			},
		}
	}
	return &FeedSource{template: template, client: client}
}

// URL returns the feed address for channelID.
func (s *FeedSource) URL(channelID string) string {
	return fmt.Sprintf(s.template, strings.TrimPrefix(channelID, "@"))
}

func (s *FeedSource) Fetch(ctx context.Context, channelID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	p := gofeed.NewParser()
	p.Client = s.client
	p.UserAgent = userAgent
	feed, err := p.ParseURLWithContext(s.URL(channelID), ctx)
	if err != nil {
		return nil, fmt.Errorf("read feed for %s: %w", channelID, err)
	}

	items := newestFirst(feed.Items)
	out := make([]string, 0, limit)
	for _, it := range items {
		if len(out) == limit {
			break
		}
		if text := itemText(it); text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

// newestFirst orders items by publication time, descending. When any item
// lacks a parsable date the feed's own order is kept.
func newestFirst(items []*gofeed.Item) []*gofeed.Item {
	for _, it := range items {
		if it == nil || it.PublishedParsed == nil {
			return items
		}
	}
	sorted := make([]*gofeed.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedParsed.After(*sorted[j].PublishedParsed)
	})
	return sorted
}

func itemText(it *gofeed.Item) string {
	if it == nil {
		return ""
	}
	for _, raw := range []string{it.Content, it.Description, it.Title} {
		if t := plainText(raw); t != "" {
			return t
		}
	}
	return ""
}

// plainText strips markup, keeping line breaks and dropping blank lines.
func plainText(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
