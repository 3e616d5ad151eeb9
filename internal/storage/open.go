package storage

import (
	"context"
	"errors"
	"strings"

	logx "hwbot/pkg/logx"
)

// Store is the persistence API used by the poller.
type Store interface {
	AppendDelivery(ctx context.Context, d Delivery) error
	// Recent returns up to n deliveries, newest first.
	Recent(ctx context.Context, n int) ([]Delivery, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(context.Background(), cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
