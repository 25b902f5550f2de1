// File path: internal/llm/llm.go
package llm

import (
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/llm/providers"
)

type Request = providers.Request

type Provider = providers.Provider

// NewProvider builds the completion provider from cfg. With an API key the
// OpenAI client is used, carrying the request timeout and transport-level
// retry budget; without one the deterministic local provider stands in.
func NewProvider(cfg Config) Provider {
	logger := common.Logger()
	if cfg.APIKey != "" {
		opts := []option.RequestOption{
			option.WithAPIKey(cfg.APIKey),
			option.WithRequestTimeout(cfg.Timeout),
			option.WithMaxRetries(cfg.MaxRetries),
		}
		if cfg.BaseURL != "" {
			logger.Info("llm: configuring OpenAI client with custom endpoint", "endpoint", cfg.BaseURL)
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		client := openai.NewClient(opts...)
		logger.Info("llm: OpenAI provider selected", "timeout", cfg.Timeout, "transport_retries", cfg.MaxRetries)
		return providers.NewOpenAIProvider(client, cfg.ChatModel, cfg.EmbedModel)
	}
	logger.Warn("llm: OPENAI_API_KEY not set; falling back to local provider")
	return providers.NewLocalProvider()
}
