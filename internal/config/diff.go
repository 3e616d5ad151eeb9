package config

import (
	"reflect"
	"strings"

	logx "hwbot/pkg/logx"
)

// SummarizeConfigChange returns the changed top-level sections and safe
// structured attrs for logging.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 8)

	if oldCfg.Practicum != newCfg.Practicum {
		changed = append(changed, "practicum")
		attrs = append(attrs, logx.String("practicum.endpoint", strings.TrimSpace(newCfg.Practicum.Endpoint)))
	}
	if oldCfg.Poll != newCfg.Poll {
		changed = append(changed, "poll")
		attrs = append(attrs, logx.String("poll.period", newCfg.Poll.Period))
	}
	if oldCfg.Telegram != newCfg.Telegram {
		changed = append(changed, "telegram")
	}
	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.telegram_enabled", newCfg.Logging.Telegram.Enabled),
		)
	}
	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
	}
	return changed, attrs
}

// RestartRequired reports sections whose changes only take effect after a restart.
func RestartRequired(sections []string) []string {
	var out []string
	for _, s := range sections {
		switch s {
		case "practicum", "telegram", "storage":
			out = append(out, s)
		}
	}
	return out
}
