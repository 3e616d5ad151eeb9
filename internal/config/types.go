package config

// Config is the optional file configuration. Secrets never live here; they
// are read from the environment by LoadSecrets.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Practicum PracticumConfig `json:"practicum"`
	Poll      PollConfig      `json:"poll"`
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
}

type PracticumConfig struct {
	Endpoint string `json:"endpoint"`
	// Timeout bounds a single status request. "0s" keeps the default.
	Timeout string `json:"timeout,omitempty"`
}

// PollConfig controls how often the status endpoint is queried.
//
// Period accepts a Go duration ("600s", "10m"), HH:MM ("00:10") or a cron
// expression ("*/10 * * * *", "@every 10m").
type PollConfig struct {
	Period string `json:"period"`
}

type TelegramConfig struct {
	// APIURL overrides the Bot API base URL. Empty means api.telegram.org.
	APIURL  string `json:"api_url,omitempty"`
	Timeout string `json:"timeout,omitempty"`
	// ThreadID targets a forum topic in the notification chat (0 if none).
	ThreadID int `json:"thread_id,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ChatID     int64  `json:"chat_id,omitempty"`
	ThreadID   int    `json:"thread_id,omitempty"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// StorageConfig controls the optional delivery audit.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./data/hwbot" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

const (
	DefaultEndpoint   = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultPollPeriod = "600s"
)

// Default returns the configuration used when no file is given. Decoding a
// file on top of it keeps these values for omitted keys.
func Default() *Config {
	return &Config{
		Practicum: PracticumConfig{Endpoint: DefaultEndpoint, Timeout: "30s"},
		Poll:      PollConfig{Period: DefaultPollPeriod},
		Telegram:  TelegramConfig{Timeout: "10s"},
		Logging: LoggingConfig{
			Level:   "DEBUG",
			Console: true,
			File:    LoggingFile{Enabled: true, Path: "./hwbot.log"},
			Telegram: LoggingTelegram{
				MinLevel:   "ERROR",
				RatePerSec: 1,
			},
		},
	}
}
