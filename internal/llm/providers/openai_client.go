// File path: internal/llm/providers/openai_client.go
package providers

import (
	"context"
	"fmt"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/common/telemetry"
)

type OpenAIProvider struct {
	client     openai.Client
	chatModel  string
	embedModel string
}

func NewOpenAIProvider(client openai.Client, chatModel, embedModel string) *OpenAIProvider {
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	logger := common.Logger()
	logger.Info("llm: OpenAI provider configured", "chat_model", chatModel, "embed_model", embedModel)
	return &OpenAIProvider{client: client, chatModel: chatModel, embedModel: embedModel}
}

func (o *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	return o.complete(ctx, req, false)
}

func (o *OpenAIProvider) CompleteJSON(ctx context.Context, req Request) (string, error) {
	return o.complete(ctx, req, true)
}

func (o *OpenAIProvider) complete(ctx context.Context, req Request, jsonMode bool) (string, error) {
	logger := common.Logger()
	logger.Debug("llm: sending chat completion request", "model", o.chatModel, "json", jsonMode, "temperature", req.Temperature)
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(o.chatModel),
		Temperature: openai.Float(req.Temperature),
	}
	if req.System != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(req.System))
	}
	params.Messages = append(params.Messages, openai.UserMessage(req.User))
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	shape := "complete"
	if jsonMode {
		shape = "complete_json"
	}
	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	telemetry.RecordLLMCall(shape, time.Since(start))
	if err != nil {
		logger.Error("llm: chat completion failed", "error", err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	logger.Debug("llm: chat completion succeeded")
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, nil
	}
	logger := common.Logger()
	logger.Debug("llm: creating embeddings", "model", o.embedModel, "items", len(input))
	start := time.Now()
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(o.embedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: input},
	})
	telemetry.RecordLLMCall("embed", time.Since(start))
	if err != nil {
		logger.Error("llm: embedding request failed", "error", err)
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	vectors := make([][]float32, 0, len(resp.Data))
	for _, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		vectors = append(vectors, vec)
	}
	logger.Debug("llm: embedding request succeeded", "returned", len(vectors))
	return vectors, nil
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}
