package adapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

type Config struct {
	Token string
	// APIURL overrides the Bot API base URL (tests, local Bot API servers).
	APIURL  string
	Timeout time.Duration
}

// Adapter is a send-only Telegram client. The bot never consumes updates, so
// no long poller is started.
type Adapter struct {
	cfg Config
	log atomic.Pointer[logx.Logger]
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		URL:    strings.TrimSpace(cfg.APIURL),
		Client: &http.Client{Timeout: timeout},
		// Skip getMe at construction: startup must not depend on Telegram being reachable.
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	a := &Adapter{cfg: cfg, bot: b}
	a.SetLogger(log)
	return a, nil
}

// SetLogger replaces the adapter logger. The app builds the adapter before
// its log service exists (the service's Telegram sink sends through it), so
// the real logger is attached afterwards.
func (a *Adapter) SetLogger(log logx.Logger) {
	if log.IsZero() {
		log = logx.Nop()
	}
	a.log.Store(&log)
}

const telegramTextLimit = 4000

// splitTelegramText splits long messages into chunks that are safe to send to Telegram.
// It prefers newline boundaries and (best-effort) avoids splitting inside HTML tags when ParseMode is HTML.
func splitTelegramText(s string, limit int, parseMode string) []string {
	if limit <= 0 {
		limit = telegramTextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := min(start+limit, len(rs))

		// Prefer splitting on a newline near the end of the window.
		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				// Avoid extremely small chunks.
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		if strings.EqualFold(parseMode, "HTML") && end < len(rs) {
			lastOpen, lastClose := -1, -1
			for i := start; i < end; i++ {
				switch rs[i] {
				case '<':
					lastOpen = i
				case '>':
					lastClose = i
				}
			}
			if lastOpen > lastClose && lastOpen > start+1 {
				end = lastOpen
			}
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))

		start = end
		// Skip leading newlines to avoid empty chunks.
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

// SendText delivers text to the target chat. It performs exactly one API call
// per chunk and never retries. Without Truncate a failure on a later chunk
// leaves the earlier chunks delivered.
func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	chunks := splitTelegramText(text, telegramTextLimit, opt.ParseMode)
	if opt.Truncate && len(chunks) > 1 {
		chunks = chunks[:1]
	}
	chat := &tele.Chat{ID: to.ChatID}

	var first kit.MessageRef
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return first, err
		}

		msg, err := a.bot.Send(chat, chunk, &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
			DisableNotification:   opt.Silent,
			ThreadID:              to.ThreadID,
		})
		if err != nil {
			return first, err
		}

		if i == 0 {
			first = kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: msg.ID}
		}
	}

	a.log.Load().Debug("message sent", logx.Int64("chat_id", to.ChatID), logx.Int("chunks", len(chunks)))
	return first, nil
}
