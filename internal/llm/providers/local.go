// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// Request carries one completion call: a system context, the user content,
// and the sampling temperature for this call shape.
type Request struct {
	System      string
	User        string
	Temperature float64
}

type Provider interface {
	// Complete returns free-form text for the request.
	Complete(ctx context.Context, req Request) (string, error)
	// CompleteJSON constrains the model to emit a single JSON object and
	// returns its raw text; callers parse and validate the schema.
	CompleteJSON(ctx context.Context, req Request) (string, error)
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}

const localEmbedDim = 8

// LocalProvider is the no-credentials fallback. Completions echo the user
// content; JSON completions return an empty object, which downstream parsers
// treat as a degraded but well-formed decision.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.User) == "" {
		return "", fmt.Errorf("empty request content")
	}
	return "[local-stub] " + strings.TrimSpace(req.User), nil
}

func (l *LocalProvider) CompleteJSON(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.User) == "" {
		return "", fmt.Errorf("empty request content")
	}
	return "{}", nil
}

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i, text := range input {
		vectors[i] = hashVector(text)
	}
	return vectors, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}

// hashVector produces a stable pseudo-embedding so local search stays
// deterministic across runs.
func hashVector(text string) []float32 {
	vec := make([]float32, localEmbedDim)
	for i := 0; i < localEmbedDim; i++ {
		h := fnv.New32a()
		fmt.Fprintf(h, "%d:%s", i, text)
		vec[i] = float32(h.Sum32()%1000) / 1000
	}
	return vec
}
