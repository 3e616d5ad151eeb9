package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"hwbot/internal/schedule"
	logx "hwbot/pkg/logx"
)

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// Validate rejects configs that would fail at wiring time, so a bad hot
// reload never replaces a working config.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	u, err := url.Parse(strings.TrimSpace(cfg.Practicum.Endpoint))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("practicum.endpoint: invalid url %q", cfg.Practicum.Endpoint)
	}
	if _, err := ParseDurationField("practicum.timeout", cfg.Practicum.Timeout); err != nil {
		return err
	}
	if _, err := schedule.Parse(cfg.Poll.Period); err != nil {
		return fmt.Errorf("poll.period: %w", err)
	}
	if _, err := ParseDurationField("telegram.timeout", cfg.Telegram.Timeout); err != nil {
		return err
	}

	if !logx.ValidLevel(cfg.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	if !logx.ValidLevel(cfg.Logging.Telegram.MinLevel) {
		return fmt.Errorf("logging.telegram.min_level: unknown level %q", cfg.Logging.Telegram.MinLevel)
	}
	if cfg.Logging.Telegram.Enabled && cfg.Logging.Telegram.ChatID == 0 {
		return fmt.Errorf("logging.telegram.chat_id is required when logging.telegram.enabled=true")
	}
	if cfg.Logging.Telegram.RatePerSec < 0 {
		return fmt.Errorf("logging.telegram.rate_per_sec must be >= 0")
	}

	if sc := cfg.Storage; sc != nil {
		switch strings.ToLower(strings.TrimSpace(sc.Driver)) {
		case "", "none":
		case "file", "sqlite", "sqlite3":
			if strings.TrimSpace(sc.Path) == "" {
				return fmt.Errorf("storage.path is required when storage.driver=%s", sc.Driver)
			}
		default:
			return fmt.Errorf("unknown storage.driver: %s", sc.Driver)
		}
		if _, err := ParseDurationField("storage.busy_timeout", sc.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}
