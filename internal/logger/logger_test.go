package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for in, want := range cases {
		SetLevel(in)
		require.Equal(t, want, levelVar.Level(), in)
	}
}

func TestSetOutput(t *testing.T) {
	t.Cleanup(func() {
		SetLevel("info")
		SetOutput(os.Stdout)
	})

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("warn")

	L.Info("dropped")
	L.Warn("kept", "session", "abc")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "kept", rec["msg"])
	require.Equal(t, "abc", rec["session"])
}

func TestSetOutput_WhileLogging(t *testing.T) {
	t.Cleanup(func() { SetOutput(os.Stdout) })
	SetOutput(io.Discard)

	before := L
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				L.Info("tick", "n", j)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		SetOutput(io.Discard)
	}
	wg.Wait()

	var buf bytes.Buffer
	SetOutput(&buf)
	L.Warn("after swap")
	require.Same(t, before, L)
	require.Contains(t, buf.String(), "after swap")
}
