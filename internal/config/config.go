// Package config defines the monitor configuration (per-network chain
// parameters and notification settings) and the secrets provider for the
// Telegram team directory.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file merged over the built-in defaults and then optionally
// overridden by CREDMON_* environment variables.
type Config struct {
	Networks    map[string]Network `toml:"networks"`
	Notify      NotifyConfig       `toml:"notify"`
	SecretsPath string             `toml:"secrets_path"`
	LogLevel    string             `toml:"log_level"`
}

// Network holds the static chain parameters for one orchestration network.
// Loaded once at process start and immutable afterwards.
type Network struct {
	RPCURL        string    `toml:"rpc_url"`
	SS58Prefix    uint8     `toml:"ss58_prefix"`
	TokenSymbol   string    `toml:"token_symbol"`
	TokenDecimals uint32    `toml:"token_decimals"`
	DashboardURL  string    `toml:"dashboard_url"`
	Cost          ChainCost `toml:"cost"`
}

// ChainCost holds the cost model used to project a runway. The
// assignments-per-day multiplier is a policy constant (collator assignment
// recurring every six hours), kept configurable per network rather than
// baked into the calculator.
type ChainCost struct {
	BlocksPerDay              float64 `toml:"blocks_per_day"`
	CostPerBlock              float64 `toml:"cost_per_block"`
	CostCollatorAssignment    float64 `toml:"cost_collator_assignment"`
	CollatorAssignmentsPerDay float64 `toml:"collator_assignments_per_day"`
	AlertThresholdDays        float64 `toml:"alert_threshold_days"`
}

// NotifyConfig holds the Telegram delivery parameters.
type NotifyConfig struct {
	MaxAttempts    int      `toml:"max_attempts"`
	AttemptTimeout duration `toml:"attempt_timeout"`
	Verbose        bool     `toml:"verbose"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "25s", "1m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the known orchestration
// networks. These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Networks: map[string]Network{
			"dancebox": {
				RPCURL:        "wss://dancebox.tanssi-api.network",
				SS58Prefix:    42,
				TokenSymbol:   "DANCE",
				TokenDecimals: 12,
				DashboardURL:  "https://apps.tanssi.network",
				Cost: ChainCost{
					BlocksPerDay:              14400,
					CostPerBlock:              0.03,
					CostCollatorAssignment:    50,
					CollatorAssignmentsPerDay: 4,
					AlertThresholdDays:        7,
				},
			},
			"flashbox": {
				RPCURL:        "wss://flashbox.tanssi-api.network",
				SS58Prefix:    42,
				TokenSymbol:   "FLASH",
				TokenDecimals: 12,
				DashboardURL:  "https://apps.tanssi.network",
				Cost: ChainCost{
					BlocksPerDay:              14400,
					CostPerBlock:              0.03,
					CostCollatorAssignment:    50,
					CollatorAssignmentsPerDay: 4,
					AlertThresholdDays:        7,
				},
			},
		},
		Notify: NotifyConfig{
			MaxAttempts:    5,
			AttemptTimeout: duration{25 * time.Second},
			Verbose:        false,
		},
		SecretsPath: "secrets.json",
		LogLevel:    "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if len(c.Networks) == 0 {
		errs = append(errs, "networks: at least one network must be configured")
	}
	for name, n := range c.Networks {
		if n.RPCURL == "" {
			errs = append(errs, fmt.Sprintf("networks.%s: rpc_url must not be empty", name))
		}
		if n.Cost.BlocksPerDay <= 0 {
			errs = append(errs, fmt.Sprintf("networks.%s: cost.blocks_per_day must be > 0", name))
		}
		if n.Cost.CostPerBlock < 0 {
			errs = append(errs, fmt.Sprintf("networks.%s: cost.cost_per_block must be >= 0", name))
		}
		if n.Cost.CostCollatorAssignment < 0 {
			errs = append(errs, fmt.Sprintf("networks.%s: cost.cost_collator_assignment must be >= 0", name))
		}
		if n.Cost.CollatorAssignmentsPerDay < 0 {
			errs = append(errs, fmt.Sprintf("networks.%s: cost.collator_assignments_per_day must be >= 0", name))
		}
		if n.Cost.AlertThresholdDays <= 0 {
			errs = append(errs, fmt.Sprintf("networks.%s: cost.alert_threshold_days must be > 0", name))
		}
	}

	if c.Notify.MaxAttempts < 1 {
		errs = append(errs, "notify: max_attempts must be >= 1")
	}
	if c.Notify.AttemptTimeout.Duration <= 0 {
		errs = append(errs, "notify: attempt_timeout must be > 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
