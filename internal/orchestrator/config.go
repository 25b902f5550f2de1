// File path: internal/orchestrator/config.go

package orchestrator

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultCompanyID            = 29447
	defaultSynthesisTemperature = 0.7
)

// Config holds the orchestrator's slice of the configuration surface.
type Config struct {
	// DefaultCompanyID scopes questions that arrive without a tenant id.
	DefaultCompanyID int64
	// SynthesisTemperature is used for the hybrid-route synthesis call.
	SynthesisTemperature float64
}

func (c Config) withDefaults() Config {
	if c.DefaultCompanyID <= 0 {
		c.DefaultCompanyID = defaultCompanyID
	}
	if c.SynthesisTemperature <= 0 {
		c.SynthesisTemperature = defaultSynthesisTemperature
	}
	return c
}

// LoadConfig reads DEFAULT_COMPANY_ID and LLM_TEMPERATURE_RESPONSE from the
// environment.
func LoadConfig() (Config, error) {
	cfg := Config{DefaultCompanyID: defaultCompanyID, SynthesisTemperature: defaultSynthesisTemperature}
	if raw := os.Getenv("DEFAULT_COMPANY_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return Config{}, fmt.Errorf("orchestrator: invalid DEFAULT_COMPANY_ID %q", raw)
		}
		cfg.DefaultCompanyID = id
	}
	if raw := os.Getenv("LLM_TEMPERATURE_RESPONSE"); raw != "" {
		temp, err := strconv.ParseFloat(raw, 64)
		if err != nil || temp < 0 || temp > 2 {
			return Config{}, fmt.Errorf("orchestrator: invalid LLM_TEMPERATURE_RESPONSE %q", raw)
		}
		cfg.SynthesisTemperature = temp
	}
	return cfg, nil
}
