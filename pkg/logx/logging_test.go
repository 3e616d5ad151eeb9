package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kit "hwbot/internal/transport"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" INFO ", LevelInfo},
		{"warning", LevelWarn},
		{"critical", LevelFatal},
		{"bogus", LevelError},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in, LevelError); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	assert.True(t, ValidLevel(""))
	assert.True(t, ValidLevel("trace"))
	assert.False(t, ValidLevel("loud"))
}

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "DEBUG").With(String("comp", "poller"))
	log.Info("poll done", Int64("watermark", 1000), Uint64("started", 3))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "poller", m["comp"])
	assert.Equal(t, float64(1000), m["watermark"])
	assert.Equal(t, float64(3), m["started"])
	assert.Equal(t, "poll done", m["message"])
	assert.NotEmpty(t, m["caller"])
}

func TestFatalDoesNotExit(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "INFO").Fatal("missing secrets")
	assert.Contains(t, buf.String(), `"level":"fatal"`)
}

func TestZeroLoggerIsSafe(t *testing.T) {
	var l Logger
	assert.True(t, l.IsZero())
	l.Info("nothing happens")
}

func TestServiceWritesAppendOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("previous line\n"), 0o644))

	svc, log := New(Config{Level: "DEBUG", File: FileConfig{Enabled: true, Path: path}}, nil)
	log.Debug("cycle started")
	require.NoError(t, svc.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "previous line\n"))
	assert.Contains(t, string(b), "cycle started")
}

func TestServiceApplyChangesLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	svc, log := New(Config{Level: "INFO", File: FileConfig{Enabled: true, Path: path}}, nil)
	defer svc.Close()

	log.Debug("hidden")
	svc.Apply(Config{Level: "DEBUG", File: FileConfig{Enabled: true, Path: path}})
	log.Debug("visible")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hidden")
	assert.Contains(t, string(b), "visible")
	assert.Equal(t, "DEBUG", svc.Config().Level)
}

func TestTelegramSinkForwardsErrors(t *testing.T) {
	got := make(chan string, 4)
	sender := kit.SenderFunc(func(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
		assert.Equal(t, int64(99), to.ChatID)
		got <- text
		return kit.MessageRef{}, nil
	})

	svc, log := New(Config{
		Level:    "DEBUG",
		Telegram: TelegramConfig{Enabled: true, ChatID: 99, MinLevel: "ERROR", RatePerSec: 5},
	}, sender)
	defer svc.Close()

	log.Info("not forwarded")
	log.Error("poll failed", String("comp", "poller"))

	select {
	case msg := <-got:
		assert.True(t, strings.HasPrefix(msg, "[ERROR] poll failed"), msg)
		assert.Contains(t, msg, "- comp=poller")
	case <-time.After(2 * time.Second):
		t.Fatal("telegram sink did not forward the error line")
	}
	select {
	case msg := <-got:
		t.Fatalf("unexpected forward: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFormatTelegramJSON(t *testing.T) {
	t.Parallel()
	line := []byte(`{"level":"warn","time":"x","message":"hello","b":"2","a":1}` + "\n")
	assert.Equal(t, "[WARN] hello\n- a=1\n- b=2", formatTelegramJSON(line))
	assert.Equal(t, "plain text", formatTelegramJSON([]byte("  plain text \n")))
	assert.Len(t, formatTelegramJSON([]byte(strings.Repeat("x", 5000))), telegramMaxLen)
}
