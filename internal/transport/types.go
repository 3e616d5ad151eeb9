package transport

import "context"

type ChatTarget struct {
	ChatID   int64
	ThreadID int // telegram forum topic thread id (0 if none)
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	Silent         bool
	// Truncate sends only the first chunk of an over-long text, so delivery
	// is a single API call that either lands or fails as a whole.
	Truncate bool
}

// Sender delivers a single text message. Implementations must not retry:
// a failed send is reported to the caller and retried (if at all) by the
// next poll cycle.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}

// SenderFunc adapts a plain function to Sender.
type SenderFunc func(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)

func (f SenderFunc) SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error) {
	return f(ctx, to, text, opt)
}
