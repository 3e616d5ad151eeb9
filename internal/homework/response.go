package homework

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is a validated status API answer.
type Response struct {
	// Homeworks is ordered most recent first.
	Homeworks []Homework
	// CurrentDate is the server time to use as the next watermark.
	CurrentDate    int64
	HasCurrentDate bool
}

// Homework is one submission record. Records are decoded leniently: a broken
// record only fails when its status is extracted.
type Homework struct {
	Name    string
	Status  string
	HasName bool

	raw       json.RawMessage
	decodeErr error
}

func decodeHomework(raw json.RawMessage) Homework {
	h := Homework{raw: raw}
	if !isJSONObject(raw) {
		h.decodeErr = fmt.Errorf("record is not an object")
		return h
	}
	var w struct {
		Name   *string `json:"homework_name"`
		Status string  `json:"status"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		h.decodeErr = err
		return h
	}
	if w.Name != nil {
		h.Name, h.HasName = *w.Name, true
	}
	h.Status = w.Status
	return h
}

// ValidateResponse checks the payload shape:
//   - the top level must be a JSON object (ErrMalformed otherwise)
//   - the "homeworks" key must exist (ErrEmptyPayload otherwise)
//   - "homeworks" must be a JSON array, possibly empty (ErrMalformed otherwise)
func ValidateResponse(body json.RawMessage) (*Response, error) {
	if !isJSONObject(body) {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformed)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	rawList, ok := top["homeworks"]
	if !ok {
		return nil, fmt.Errorf("%w: key \"homeworks\" is missing", ErrEmptyPayload)
	}
	if !isJSONArray(rawList) {
		return nil, fmt.Errorf("%w: \"homeworks\" is not a list", ErrMalformed)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawList, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	resp := &Response{Homeworks: make([]Homework, 0, len(items))}
	for _, it := range items {
		resp.Homeworks = append(resp.Homeworks, decodeHomework(it))
	}

	if rawDate, ok := top["current_date"]; ok {
		// A null date counts as absent.
		var ts *int64
		if err := json.Unmarshal(rawDate, &ts); err == nil && ts != nil {
			resp.CurrentDate, resp.HasCurrentDate = *ts, true
		}
	}
	return resp, nil
}

func isJSONObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

func isJSONArray(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '['
}
