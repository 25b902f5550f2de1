// File path: internal/postgres/config.go
package postgres

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	URL string `json:"url"`

	MaxOpenConns int `json:"max_open_conns"`
	MaxIdleConns int `json:"max_idle_conns"`

	ConnMaxLifetime       time.Duration `json:"-"`
	ConnMaxLifetimeString string        `json:"conn_max_lifetime"`

	ConnMaxIdleTime       time.Duration `json:"-"`
	ConnMaxIdleTimeString string        `json:"conn_max_idle_time"`

	// StatementTimeout bounds every query issued through Store.Query.
	StatementTimeout       time.Duration `json:"-"`
	StatementTimeoutString string        `json:"statement_timeout"`

	PingTimeout       time.Duration `json:"-"`
	PingTimeoutString string        `json:"ping_timeout"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.URL) != "" {
		result.URL = strings.TrimSpace(override.URL)
	}
	if override.MaxOpenConns > 0 {
		result.MaxOpenConns = override.MaxOpenConns
	}
	if override.MaxIdleConns > 0 {
		result.MaxIdleConns = override.MaxIdleConns
	}
	if override.ConnMaxLifetime > 0 {
		result.ConnMaxLifetime = override.ConnMaxLifetime
	}
	if strings.TrimSpace(override.ConnMaxLifetimeString) != "" {
		result.ConnMaxLifetimeString = strings.TrimSpace(override.ConnMaxLifetimeString)
	}
	if override.ConnMaxIdleTime > 0 {
		result.ConnMaxIdleTime = override.ConnMaxIdleTime
	}
	if strings.TrimSpace(override.ConnMaxIdleTimeString) != "" {
		result.ConnMaxIdleTimeString = strings.TrimSpace(override.ConnMaxIdleTimeString)
	}
	if override.StatementTimeout > 0 {
		result.StatementTimeout = override.StatementTimeout
	}
	if strings.TrimSpace(override.StatementTimeoutString) != "" {
		result.StatementTimeoutString = strings.TrimSpace(override.StatementTimeoutString)
	}
	if override.PingTimeout > 0 {
		result.PingTimeout = override.PingTimeout
	}
	if strings.TrimSpace(override.PingTimeoutString) != "" {
		result.PingTimeoutString = strings.TrimSpace(override.PingTimeoutString)
	}
	return result
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("POSTGRES_CONFIG_FILE")); path != "" {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	envCfg, err := loadConfigEnv()
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(envCfg)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 15
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		if c.ConnMaxLifetimeString != "" {
			if parsed, err := time.ParseDuration(c.ConnMaxLifetimeString); err == nil {
				c.ConnMaxLifetime = parsed
			}
		}
		if c.ConnMaxLifetime <= 0 {
			c.ConnMaxLifetime = 15 * time.Minute
		}
	}
	if c.ConnMaxIdleTime <= 0 {
		if c.ConnMaxIdleTimeString != "" {
			if parsed, err := time.ParseDuration(c.ConnMaxIdleTimeString); err == nil {
				c.ConnMaxIdleTime = parsed
			}
		}
		if c.ConnMaxIdleTime <= 0 {
			c.ConnMaxIdleTime = 5 * time.Minute
		}
	}
	if c.StatementTimeout <= 0 {
		if c.StatementTimeoutString != "" {
			if parsed, err := parseDurationOrSeconds(c.StatementTimeoutString); err == nil {
				c.StatementTimeout = parsed
			}
		}
		if c.StatementTimeout <= 0 {
			c.StatementTimeout = 30 * time.Second
		}
	}
	if c.PingTimeout <= 0 {
		if c.PingTimeoutString != "" {
			if parsed, err := parseDurationOrSeconds(c.PingTimeoutString); err == nil {
				c.PingTimeout = parsed
			}
		}
		if c.PingTimeout <= 0 {
			c.PingTimeout = 5 * time.Second
		}
	}
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read postgres config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse postgres config: %w", err)
	}
	return cfg, nil
}

func loadConfigEnv() (Config, error) {
	cfg := Config{}
	if url := strings.TrimSpace(os.Getenv("DATABASE_URL")); url != "" {
		cfg.URL = url
	}
	if openConns := strings.TrimSpace(os.Getenv("POSTGRES_MAX_OPEN_CONNS")); openConns != "" {
		value, err := strconv.Atoi(openConns)
		if err != nil {
			return Config{}, fmt.Errorf("parse POSTGRES_MAX_OPEN_CONNS: %w", err)
		}
		if value > 0 {
			cfg.MaxOpenConns = value
		}
	}
	if idleConns := strings.TrimSpace(os.Getenv("POSTGRES_MAX_IDLE_CONNS")); idleConns != "" {
		value, err := strconv.Atoi(idleConns)
		if err != nil {
			return Config{}, fmt.Errorf("parse POSTGRES_MAX_IDLE_CONNS: %w", err)
		}
		if value > 0 {
			cfg.MaxIdleConns = value
		}
	}
	if lifetime := strings.TrimSpace(os.Getenv("POSTGRES_CONN_MAX_LIFETIME")); lifetime != "" {
		cfg.ConnMaxLifetimeString = lifetime
		if parsed, err := time.ParseDuration(lifetime); err == nil {
			cfg.ConnMaxLifetime = parsed
		}
	}
	if idle := strings.TrimSpace(os.Getenv("POSTGRES_CONN_MAX_IDLE_TIME")); idle != "" {
		cfg.ConnMaxIdleTimeString = idle
		if parsed, err := time.ParseDuration(idle); err == nil {
			cfg.ConnMaxIdleTime = parsed
		}
	}
	if timeout := strings.TrimSpace(os.Getenv("SQL_TIMEOUT_SECONDS")); timeout != "" {
		parsed, err := parseDurationOrSeconds(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse SQL_TIMEOUT_SECONDS: %w", err)
		}
		cfg.StatementTimeoutString = timeout
		cfg.StatementTimeout = parsed
	}
	if timeout := strings.TrimSpace(os.Getenv("POSTGRES_PING_TIMEOUT")); timeout != "" {
		cfg.PingTimeoutString = timeout
		if parsed, err := parseDurationOrSeconds(timeout); err == nil {
			cfg.PingTimeout = parsed
		}
	}
	return cfg, nil
}

// parseDurationOrSeconds accepts either a Go duration string ("30s") or a bare
// number of seconds ("30").
func parseDurationOrSeconds(value string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("duration must be positive, got %d", seconds)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", parsed)
	}
	return parsed, nil
}
