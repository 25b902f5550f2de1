// File path: internal/llm/config.go
package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the completion-provider settings resolved from the
// environment. Timeout accepts a Go duration string or a bare integer
// number of seconds.
type Config struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	EmbedModel string
	Timeout    time.Duration
	MaxRetries int
}

func DefaultConfig() Config {
	return Config{
		ChatModel:  "gpt-4o-mini",
		EmbedModel: "text-embedding-3-small",
		Timeout:    30 * time.Second,
		MaxRetries: 2,
	}
}

func LoadConfig() (Config, error) {
	cfg := Config{
		APIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:    strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		ChatModel:  strings.TrimSpace(os.Getenv("LLM_MODEL")),
		EmbedModel: strings.TrimSpace(os.Getenv("EMBEDDING_MODEL")),
	}
	if raw := strings.TrimSpace(os.Getenv("LLM_TIMEOUT")); raw != "" {
		timeout, err := parseDurationOrSeconds(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse LLM_TIMEOUT: %w", err)
		}
		cfg.Timeout = timeout
	}
	if raw := strings.TrimSpace(os.Getenv("LLM_MAX_RETRIES")); raw != "" {
		retries, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse LLM_MAX_RETRIES: %w", err)
		}
		cfg.MaxRetries = retries
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.ChatModel == "" {
		c.ChatModel = def.ChatModel
	}
	if c.EmbedModel == "" {
		c.EmbedModel = def.EmbedModel
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = def.MaxRetries
	}
}

func (c Config) validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("llm max retries must not be negative")
	}
	return nil
}

func parseDurationOrSeconds(raw string) (time.Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a duration nor seconds", raw)
	}
	return time.Duration(secs) * time.Second, nil
}
