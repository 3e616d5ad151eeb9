package app

import (
	"context"
	"fmt"

	"hwbot/internal/config"
	"hwbot/internal/storage"
	logx "hwbot/pkg/logx"
)

// History returns up to n of the most recent deliveries recorded by the
// configured audit store, newest first. It needs no secrets.
func History(ctx context.Context, cfgPath string, n int) ([]storage.Delivery, error) {
	cfg, err := config.NewConfigManager(cfgPath).Load()
	if err != nil {
		return nil, err
	}
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, fmt.Errorf("delivery history: %w (set storage.driver)", storage.ErrDisabled)
	}
	if n <= 0 {
		n = 10
	}

	st, err := storage.Open(sc, logx.Nop())
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Recent(ctx, n)
}
