package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/papermoonio/credits-monitor/internal/domain"
)

// Secrets is the team directory plus the bot credential used for alert
// dispatch. Loaded once and never mutated for the process lifetime.
type Secrets struct {
	BotToken string              `json:"bot_token"`
	Teams    []domain.TeamConfig `json:"teams"`
}

// LoadSecrets reads the JSON secrets file at path. A missing file is an
// explicit absence, returned as (nil, nil): dispatch is disabled but
// balance reporting proceeds. TELEGRAM_BOT_TOKEN overrides the token from
// the file, and on its own (with no file) enables a token-only Secrets
// with an empty team directory.
func LoadSecrets(path string) (*Secrets, error) {
	envToken := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	var s Secrets
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if envToken == "" {
				return nil, nil
			}
		case err != nil:
			return nil, fmt.Errorf("config: read secrets %s: %w", path, err)
		default:
			if err := json.Unmarshal(b, &s); err != nil {
				return nil, fmt.Errorf("config: %w: %s: %v", domain.ErrBadSecrets, path, err)
			}
		}
	} else if envToken == "" {
		return nil, nil
	}

	if envToken != "" {
		s.BotToken = envToken
	}
	s.BotToken = strings.TrimSpace(s.BotToken)
	if s.BotToken == "" && len(s.Teams) == 0 {
		return nil, nil
	}
	return &s, nil
}

const redacted = "***"

// Redacted returns a copy of s safe for logging: the bot token is replaced
// by a placeholder and the team slice is copied so callers cannot mutate
// the original through it.
func (s *Secrets) Redacted() Secrets {
	out := Secrets{}
	if s.BotToken != "" {
		out.BotToken = redacted
	}
	if s.Teams != nil {
		out.Teams = make([]domain.TeamConfig, len(s.Teams))
		copy(out.Teams, s.Teams)
	}
	return out
}
