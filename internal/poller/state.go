package poller

// State is the process-local poll state. It lives for the process lifetime,
// is never persisted, and is only mutated after a confirmed delivery.
type State struct {
	// Watermark is the from_date sent with the next request.
	Watermark int64
	// LastNotified is the text of the last delivered message (status or error).
	LastNotified string

	hasLast bool
}

// HasLast reports whether anything was delivered yet.
func (s State) HasLast() bool { return s.hasLast }

// seen reports whether text equals the last delivered message.
func (s State) seen(text string) bool { return s.hasLast && s.LastNotified == text }

func (s *State) remember(text string) {
	s.LastNotified = text
	s.hasLast = true
}
