package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

// fakeBotAPI records sendMessage calls and answers like the Bot API does.
type fakeBotAPI struct {
	mu    sync.Mutex
	texts []string
	fail  bool
	// failAfter makes every call after the first failAfter ones fail (0: never).
	failAfter int
}

func (f *fakeBotAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottest-token/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var params map[string]any
		_ = json.NewDecoder(r.Body).Decode(&params)
		f.mu.Lock()
		if s, ok := params["text"].(string); ok {
			f.texts = append(f.texts, s)
		}
		fail := f.fail || (f.failAfter > 0 && len(f.texts) > f.failAfter)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if fail {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":1,"chat":{"id":42,"type":"private"},"text":"x"}}`))
	}
}

func newTestAdapter(t *testing.T, api *fakeBotAPI) *Adapter {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	a, err := New(Config{Token: "test-token", APIURL: srv.URL}, logx.Nop())
	require.NoError(t, err)
	return a
}

func TestNewRejectsEmptyToken(t *testing.T) {
	_, err := New(Config{Token: "  "}, logx.Nop())
	assert.Error(t, err)
}

func TestSendTextDelivers(t *testing.T) {
	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)

	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, ref.MessageID)
	assert.Equal(t, int64(42), ref.ChatID)
	assert.Equal(t, []string{"hello"}, api.texts)
}

func TestSendTextReportsAPIError(t *testing.T) {
	api := &fakeBotAPI{fail: true}
	a := newTestAdapter(t, api)

	_, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, "hello", nil)
	assert.Error(t, err)
	assert.Len(t, api.texts, 1, "send must not be retried")
}

func TestSendTextHonorsCanceledContext(t *testing.T) {
	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.SendText(ctx, kit.ChatTarget{ChatID: 42}, "hello", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.texts)
}

func TestSendTextLaterChunkFailureKeepsEarlierChunks(t *testing.T) {
	api := &fakeBotAPI{failAfter: 1}
	a := newTestAdapter(t, api)

	long := strings.Repeat("a", telegramTextLimit) + strings.Repeat("b", 10)
	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, long, nil)
	require.Error(t, err)
	assert.Equal(t, 7, ref.MessageID)
	assert.Len(t, api.texts, 2)
}

func TestSendTextTruncateIsOneCall(t *testing.T) {
	api := &fakeBotAPI{failAfter: 1}
	a := newTestAdapter(t, api)

	long := strings.Repeat("a", telegramTextLimit) + strings.Repeat("b", 10)
	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, long, &kit.SendOptions{Truncate: true})
	require.NoError(t, err)
	assert.Equal(t, 7, ref.MessageID)
	assert.Equal(t, []string{strings.Repeat("a", telegramTextLimit)}, api.texts)
}

func TestSetLoggerRoutesAdapterLogs(t *testing.T) {
	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)

	var buf bytes.Buffer
	a.SetLogger(logx.NewWriter(&buf, "DEBUG").With(logx.String("comp", "telegram")))
	_, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, "hello", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "message sent")
	assert.Contains(t, buf.String(), "telegram")

	a.SetLogger(logx.Logger{})
	_, err = a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, "again", nil)
	require.NoError(t, err)
}

func TestSplitTelegramText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		in     string
		limit  int
		mode   string
		chunks int
	}{
		{name: "short", in: "abc", limit: 10, chunks: 1},
		{name: "exact", in: strings.Repeat("a", 10), limit: 10, chunks: 1},
		{name: "hard split", in: strings.Repeat("a", 25), limit: 10, chunks: 3},
		{name: "newline split", in: strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6), limit: 10, chunks: 2},
		{name: "cyrillic counts runes", in: strings.Repeat("ж", 10), limit: 10, chunks: 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := splitTelegramText(tt.in, tt.limit, tt.mode)
			if len(got) != tt.chunks {
				t.Fatalf("chunks = %d, want %d (%q)", len(got), tt.chunks, got)
			}
			if strings.Join(got, "") != strings.ReplaceAll(tt.in, "\n", "") {
				t.Fatalf("content lost: %q", got)
			}
		})
	}
}

func TestSplitTelegramTextAvoidsHTMLTags(t *testing.T) {
	in := strings.Repeat("a", 8) + "<b>bold</b>"
	got := splitTelegramText(in, 10, "HTML")
	if !strings.HasPrefix(got[1], "<b>") {
		t.Fatalf("tag was split: %q", got)
	}
}
