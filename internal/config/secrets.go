package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvPracticumToken = "PRACTICUM_TOKEN"
	EnvTelegramToken  = "TELEGRAM_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
)

// RequiredEnv lists the secrets that must be present before polling starts.
var RequiredEnv = []string{EnvPracticumToken, EnvTelegramToken, EnvTelegramChatID}

// Secrets holds the environment-sourced credentials. It is built once at
// startup and passed down explicitly.
type Secrets struct {
	PracticumToken string
	TelegramToken  string
	ChatID         int64
}

var ErrInvalidSecret = errors.New("invalid secret")

// MissingSecretsError lists every required variable that was absent or blank.
type MissingSecretsError struct {
	Names []string
}

func (e *MissingSecretsError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Names, ", ")
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env") into
// the process environment. Variables already set win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadSecrets reads the required secrets. All missing names are reported at
// once so the operator can fix them in one go.
func LoadSecrets(lookup LookupFunc) (Secrets, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	vals := make(map[string]string, len(RequiredEnv))
	var missing []string
	for _, name := range RequiredEnv {
		v, ok := lookup(name)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			missing = append(missing, name)
			continue
		}
		vals[name] = v
	}
	if len(missing) > 0 {
		return Secrets{}, &MissingSecretsError{Names: missing}
	}

	chatID, err := strconv.ParseInt(vals[EnvTelegramChatID], 10, 64)
	if err != nil || chatID == 0 {
		return Secrets{}, fmt.Errorf("%w: %s must be a numeric chat id", ErrInvalidSecret, EnvTelegramChatID)
	}

	return Secrets{
		PracticumToken: vals[EnvPracticumToken],
		TelegramToken:  vals[EnvTelegramToken],
		ChatID:         chatID,
	}, nil
}
