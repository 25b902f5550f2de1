// File path: internal/vector/config.go
package vector

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the ChromaDB client connection.
type Config struct {
	Host              string  `json:"host"`
	Port              int     `json:"port"`
	Scheme            string  `json:"scheme"`
	APIKey            string  `json:"api_key"`
	SummaryCollection string  `json:"summary_collection"`
	ContentCollection string  `json:"content_collection"`
	Timeout           time.Duration
	TimeoutString     string `json:"timeout"`
	MaxIdleConns      int    `json:"max_idle_conns"`
	MaxConnsPerHost   int    `json:"max_conns_per_host"`
	IdleConnTimeout   time.Duration
	IdleTimeoutString string `json:"idle_conn_timeout"`
}

// Merge overlays non-zero fields from other onto a copy of c.
func (c Config) Merge(other Config) Config {
	merged := c
	if other.Host != "" {
		merged.Host = other.Host
	}
	if other.Port != 0 {
		merged.Port = other.Port
	}
	if other.Scheme != "" {
		merged.Scheme = other.Scheme
	}
	if other.APIKey != "" {
		merged.APIKey = other.APIKey
	}
	if other.SummaryCollection != "" {
		merged.SummaryCollection = other.SummaryCollection
	}
	if other.ContentCollection != "" {
		merged.ContentCollection = other.ContentCollection
	}
	if other.Timeout != 0 {
		merged.Timeout = other.Timeout
	}
	if other.MaxIdleConns != 0 {
		merged.MaxIdleConns = other.MaxIdleConns
	}
	if other.MaxConnsPerHost != 0 {
		merged.MaxConnsPerHost = other.MaxConnsPerHost
	}
	if other.IdleConnTimeout != 0 {
		merged.IdleConnTimeout = other.IdleConnTimeout
	}
	return merged
}

// LoadConfig builds the ChromaDB configuration from an optional JSON file
// pointed to by CHROMADB_CONFIG_FILE plus CHROMADB_* environment overrides.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("CHROMADB_CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read chromadb config: %w", err)
		}
		var fileCfg Config
		if err := json.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse chromadb config: %w", err)
		}
		cfg = cfg.Merge(fileCfg)
	}

	envCfg, err := loadConfigEnv()
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(envCfg)

	if cfg.Timeout == 0 && cfg.TimeoutString != "" {
		d, err := time.ParseDuration(cfg.TimeoutString)
		if err != nil {
			return Config{}, fmt.Errorf("parse chromadb timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if cfg.IdleConnTimeout == 0 && cfg.IdleTimeoutString != "" {
		d, err := time.ParseDuration(cfg.IdleTimeoutString)
		if err != nil {
			return Config{}, fmt.Errorf("parse chromadb idle timeout: %w", err)
		}
		cfg.IdleConnTimeout = d
	}

	cfg.applyDefaults()
	return cfg, nil
}

func loadConfigEnv() (Config, error) {
	cfg := Config{
		Host:              strings.TrimSpace(os.Getenv("CHROMADB_HOST")),
		Scheme:            strings.TrimSpace(os.Getenv("CHROMADB_SCHEME")),
		APIKey:            strings.TrimSpace(os.Getenv("CHROMADB_API_KEY")),
		SummaryCollection: strings.TrimSpace(os.Getenv("CHROMADB_SUMMARY_COLLECTION")),
		ContentCollection: strings.TrimSpace(os.Getenv("CHROMADB_CONTENT_COLLECTION")),
	}
	if raw := strings.TrimSpace(os.Getenv("CHROMADB_PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return Config{}, fmt.Errorf("invalid CHROMADB_PORT %q", raw)
		}
		cfg.Port = port
	}
	if raw := strings.TrimSpace(os.Getenv("CHROMADB_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid CHROMADB_TIMEOUT %q", raw)
		}
		cfg.Timeout = d
	}
	if raw := strings.TrimSpace(os.Getenv("CHROMADB_HTTP_MAX_IDLE_CONNS")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid CHROMADB_HTTP_MAX_IDLE_CONNS %q", raw)
		}
		cfg.MaxIdleConns = n
	}
	if raw := strings.TrimSpace(os.Getenv("CHROMADB_HTTP_MAX_CONNS_PER_HOST")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid CHROMADB_HTTP_MAX_CONNS_PER_HOST %q", raw)
		}
		cfg.MaxConnsPerHost = n
	}
	if raw := strings.TrimSpace(os.Getenv("CHROMADB_HTTP_IDLE_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid CHROMADB_HTTP_IDLE_TIMEOUT %q", raw)
		}
		cfg.IdleConnTimeout = d
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.Scheme == "" {
		c.Scheme = "http"
	}
	if c.SummaryCollection == "" {
		c.SummaryCollection = "document_summaries"
	}
	if c.ContentCollection == "" {
		c.ContentCollection = "document_content"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 64
	}
	if c.MaxConnsPerHost == 0 {
		c.MaxConnsPerHost = 16
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
}

// BaseURL renders the REST endpoint root for the configured server.
func (c Config) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d/api/v1", c.Scheme, c.Host, c.Port)
}
