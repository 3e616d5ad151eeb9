package app

import (
	"fmt"
	"net/url"

	"hwbot/internal/config"
	"hwbot/internal/schedule"
)

// CheckReport summarizes a configuration check.
type CheckReport struct {
	ConfigPath string
	Endpoint   string
	Period     schedule.Spec
	ChatID     int64
	Storage    string
	LogFile    string
}

// Check loads and validates the config file and the secrets without
// touching the network. Secret errors are returned unwrapped so callers can
// map them to an exit code.
func Check(cfgPath string, lookup config.LookupFunc) (CheckReport, error) {
	cfg, err := config.NewConfigManager(cfgPath).Load()
	if err != nil {
		return CheckReport{}, err
	}
	sec, err := config.LoadSecrets(lookup)
	if err != nil {
		return CheckReport{}, err
	}
	spec, err := schedule.Parse(cfg.Poll.Period)
	if err != nil {
		return CheckReport{}, fmt.Errorf("poll.period: %w", err)
	}
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		return CheckReport{}, err
	}

	r := CheckReport{
		ConfigPath: cfgPath,
		Endpoint:   cfg.Practicum.Endpoint,
		Period:     spec,
		ChatID:     sec.ChatID,
		Storage:    "none",
	}
	if u, err := url.Parse(cfg.Practicum.Endpoint); err == nil {
		r.Endpoint = u.Scheme + "://" + u.Host + u.Path
	}
	if enabled {
		r.Storage = sc.Driver + ":" + sc.Path
	}
	if cfg.Logging.File.Enabled {
		r.LogFile = cfg.Logging.File.Path
	}
	return r, nil
}
