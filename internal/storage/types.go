package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": JSON Lines file at <path>.deliveries.jsonl
//   - "sqlite": SQLite database file (modernc.org/sqlite, no cgo)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

const (
	KindStatus = "status"
	KindError  = "error"
)

// Delivery records one message that reached the chat.
// Keep it compact and schema-stable.
type Delivery struct {
	At        time.Time `json:"at"`
	CycleID   string    `json:"cycle_id"`
	Kind      string    `json:"kind"`
	ChatID    int64     `json:"chat_id"`
	Watermark int64     `json:"watermark"`
	Text      string    `json:"text"`
}
