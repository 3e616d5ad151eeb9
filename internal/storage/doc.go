// Package storage keeps an optional append-only audit of delivered
// notifications. It is write-only from the bot's point of view: poll state
// is never restored from it.
package storage
