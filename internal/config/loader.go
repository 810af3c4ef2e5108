package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CREDMON_* environment variable overrides, and
// returns the final Config. A missing file is not an error: the defaults
// cover the known networks, so the file only needs to exist when a
// parameter deviates. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CREDMON_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators adjust delivery behavior at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.SecretsPath, "CREDMON_SECRETS_PATH")
	setStr(&cfg.LogLevel, "CREDMON_LOG_LEVEL")

	setInt(&cfg.Notify.MaxAttempts, "CREDMON_NOTIFY_MAX_ATTEMPTS")
	setDuration(&cfg.Notify.AttemptTimeout, "CREDMON_NOTIFY_ATTEMPT_TIMEOUT")
	setBool(&cfg.Notify.Verbose, "CREDMON_NOTIFY_VERBOSE")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
