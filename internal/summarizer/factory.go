package summarizer

import (
	"fmt"

	"github.com/tbourn/go-channel-digest/internal/config"
)

// FromConfig builds the backend selected by SUMMARIZER_BACKEND.
func FromConfig(cfg config.SummarizerConfig) (Summarizer, error) {
	switch cfg.Backend {
	case "http", "":
		return NewHTTP(cfg.URL, nil, cfg.MinWords), nil
	case "openai":
		return NewOpenAI(OpenAIConfig{
			APIKey:   cfg.OpenAIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Model:    cfg.OpenAIModel,
			MinWords: cfg.MinWords,
		}), nil
	default:
		return nil, fmt.Errorf("unknown summarizer backend %q", cfg.Backend)
	}
}
