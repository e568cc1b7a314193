package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPSummarizer calls a summarization service exposing
// POST /summarize {"text": "..."} -> {"summary": "..."}.
type HTTPSummarizer struct {
	baseURL  string
	client   *http.Client
	minWords int
}

type summarizeRequest struct {
	Text string `json:"text"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
	Detail  string `json:"detail,omitempty"`
}

// NewHTTP returns an HTTPSummarizer for baseURL (e.g. "http://summarizer:8000").
// A nil client gets a 90s timeout; model inference is slow.
func NewHTTP(baseURL string, client *http.Client, minWords int) *HTTPSummarizer {
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	return &HTTPSummarizer{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		minWords: minWords,
	}
}

func (s *HTTPSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if tooShort(text, s.minWords) {
		return text, nil
	}

	body, err := json.Marshal(summarizeRequest{Text: text})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/summarize", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarizer request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("summarizer read: %w", err)
	}
	var out summarizeResponse
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = json.Unmarshal(raw, &out)
		if out.Detail != "" {
			return "", fmt.Errorf("summarizer status %d: %s", resp.StatusCode, out.Detail)
		}
		return "", fmt.Errorf("summarizer status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("summarizer decode: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", fmt.Errorf("summarizer returned empty summary")
	}
	return out.Summary, nil
}
