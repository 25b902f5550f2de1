// File path: internal/docsearch/config.go
package docsearch

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config tunes semantic search and answer generation.
type Config struct {
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	SearchContent       bool    `json:"search_content"`
	Temperature         float64 `json:"temperature"`
	SummaryCollection   string  `json:"summary_collection"`
	ContentCollection   string  `json:"content_collection"`
}

// Merge overlays non-zero fields from other onto a copy of c.
func (c Config) Merge(other Config) Config {
	merged := c
	if other.TopK != 0 {
		merged.TopK = other.TopK
	}
	if other.SimilarityThreshold != 0 {
		merged.SimilarityThreshold = other.SimilarityThreshold
	}
	if other.SearchContent {
		merged.SearchContent = true
	}
	if other.Temperature != 0 {
		merged.Temperature = other.Temperature
	}
	if other.SummaryCollection != "" {
		merged.SummaryCollection = other.SummaryCollection
	}
	if other.ContentCollection != "" {
		merged.ContentCollection = other.ContentCollection
	}
	return merged
}

// LoadConfig reads search tuning from the environment. Collection names
// share the CHROMADB_* variables with the vector client so both layers
// stay pointed at the same collections.
func LoadConfig() (Config, error) {
	cfg := Config{
		SummaryCollection: strings.TrimSpace(os.Getenv("CHROMADB_SUMMARY_COLLECTION")),
		ContentCollection: strings.TrimSpace(os.Getenv("CHROMADB_CONTENT_COLLECTION")),
	}
	if raw := strings.TrimSpace(os.Getenv("VECTOR_TOP_K")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid VECTOR_TOP_K %q", raw)
		}
		cfg.TopK = n
	}
	if raw := strings.TrimSpace(os.Getenv("SIMILARITY_THRESHOLD")); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 || f > 1 {
			return Config{}, fmt.Errorf("invalid SIMILARITY_THRESHOLD %q", raw)
		}
		cfg.SimilarityThreshold = f
	}
	if raw := strings.TrimSpace(os.Getenv("DOCSEARCH_SEARCH_CONTENT")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DOCSEARCH_SEARCH_CONTENT %q", raw)
		}
		cfg.SearchContent = b
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.5
	}
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.SummaryCollection == "" {
		c.SummaryCollection = "document_summaries"
	}
	if c.ContentCollection == "" {
		c.ContentCollection = "document_content"
	}
}
