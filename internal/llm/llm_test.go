package llm

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/comigor/tutor-go/internal/config"
)

func TestNew(t *testing.T) {
	s, err := New(config.LLMConfig{Provider: "gemini"})
	require.NoError(t, err)
	require.IsType(t, &Gemini{}, s)

	s, err = New(config.LLMConfig{})
	require.NoError(t, err)
	require.IsType(t, &Gemini{}, s)

	s, err = New(config.LLMConfig{Provider: "OpenAI", BaseURL: "http://localhost"})
	require.NoError(t, err)
	require.IsType(t, &OpenAI{}, s)

	_, err = New(config.LLMConfig{Provider: "carrier-pigeon"})
	require.True(t, errors.Is(err, ErrUnknownProvider))
	require.Contains(t, err.Error(), "carrier-pigeon")
}
