// File path: internal/executor/config.go

package executor

import (
	"fmt"
	"os"
	"strconv"
)

const defaultMaxRetries = 3

// Config bounds the generate-validate-execute loop.
type Config struct {
	// MaxRetries is the total attempt budget, not a count of retries after
	// the first try. Values below one fall back to the default.
	MaxRetries int
	// NLGEnabled switches the natural-language response layer. When false
	// the executor answers with the deterministic per-skill template.
	NLGEnabled bool
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	return c
}

// LoadConfig reads the loop budget and response mode from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{MaxRetries: defaultMaxRetries, NLGEnabled: true}
	if raw := os.Getenv("MAX_RETRIES"); raw != "" {
		retries, err := strconv.Atoi(raw)
		if err != nil || retries < 1 {
			return Config{}, fmt.Errorf("executor: invalid MAX_RETRIES %q", raw)
		}
		cfg.MaxRetries = retries
	}
	if raw := os.Getenv("NLG_ENABLED"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("executor: invalid NLG_ENABLED %q", raw)
		}
		cfg.NLGEnabled = enabled
	}
	return cfg, nil
}
