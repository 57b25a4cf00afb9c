package llm

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/comigor/tutor-go/internal/config"
)

// ErrUnknownProvider is returned by New for an unsupported llm.provider.
var ErrUnknownProvider = errors.New("unknown llm provider")

// New creates the streamer for the configured provider.
func New(cfg config.LLMConfig) (Streamer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", config.ProviderGemini:
		return NewGemini(cfg.BaseURL), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.BaseURL), nil
	default:
		return nil, errors.Wrapf(ErrUnknownProvider, "%q", cfg.Provider)
	}
}
