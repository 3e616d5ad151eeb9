package poller

import "hwbot/internal/homework"

// Outcome tags what one poll cycle did. The set is closed.
type Outcome int

const (
	// OutcomeNotified: a new status was delivered and the watermark advanced.
	OutcomeNotified Outcome = iota + 1
	// OutcomeUnchanged: the latest status equals the last delivered one.
	OutcomeUnchanged
	// OutcomeNoChanges: the homework list was empty.
	OutcomeNoChanges
	// OutcomeEmptyPayload: the answer had no homeworks key; logged only.
	OutcomeEmptyPayload
	// OutcomeDeliveryFailed: a new status could not be delivered; retried next cycle.
	OutcomeDeliveryFailed
	// OutcomeFailed: fetch, shape or parse error; escalated to the chat when new.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotified:
		return "notified"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeNoChanges:
		return "no_changes"
	case OutcomeEmptyPayload:
		return "empty_payload"
	case OutcomeDeliveryFailed:
		return "delivery_failed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes one poll cycle.
type Result struct {
	CycleID string
	Outcome Outcome
	// Kind classifies Err; KindOK when Err is nil.
	Kind homework.Kind
	// Message is the text that was (or would have been) sent.
	Message string
	Err     error
	// Delivered reports whether a message reached the chat during the cycle.
	Delivered bool
}
