package homework

import (
	"errors"
	"fmt"
	"net/url"
)

// Error taxonomy of one poll cycle. Callers dispatch with errors.Is;
// Classify maps an error to its Kind.
var (
	// ErrAnswer: the request failed or the status code was not 200.
	ErrAnswer = errors.New("status api answer error")
	// ErrMalformed: the body is not an object or "homeworks" is not a list.
	ErrMalformed = errors.New("malformed api response")
	// ErrEmptyPayload: the body has no "homeworks" key at all.
	ErrEmptyPayload = errors.New("empty api payload")
	// ErrStatusParse: the record has no name or an unknown status.
	ErrStatusParse = errors.New("homework status parse error")
)

type Kind int

const (
	KindOK Kind = iota
	KindAnswer
	KindMalformed
	KindEmptyPayload
	KindStatusParse
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindAnswer:
		return "answer"
	case KindMalformed:
		return "malformed"
	case KindEmptyPayload:
		return "empty_payload"
	case KindStatusParse:
		return "status_parse"
	default:
		return "unexpected"
	}
}

// Classify returns the Kind of err. nil is KindOK; anything outside the
// taxonomy is KindUnexpected.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrEmptyPayload):
		return KindEmptyPayload
	case errors.Is(err, ErrAnswer):
		return KindAnswer
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrStatusParse):
		return KindStatusParse
	default:
		return KindUnexpected
	}
}

// AnswerError carries the request parameters and status code of a failed
// status request. The Authorization header is never included.
type AnswerError struct {
	URL        string
	Params     url.Values
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *AnswerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("status api: unexpected http status %d (url=%s params=%s)", e.StatusCode, e.URL, e.Params.Encode())
	}
	return fmt.Sprintf("status api: request failed (url=%s params=%s): %v", e.URL, e.Params.Encode(), e.Err)
}

func (e *AnswerError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAnswer}
	}
	return []error{ErrAnswer, e.Err}
}
