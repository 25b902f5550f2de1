// File path: internal/sqlgen/generator.go

// Package sqlgen turns natural-language questions into structured SQL
// candidates with a language model. Generation never executes anything; it
// only produces a candidate for the validator and executor downstream.
package sqlgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/llm"
	"github.com/harborcover/commsight/internal/memory"
	"github.com/harborcover/commsight/internal/skill"
)

// Candidate is one structured generation result. Either SQL is populated or
// NeedsClarification is set with a question for the user, never both.
type Candidate struct {
	NeedsClarification    bool   `json:"needs_clarification"`
	ClarificationQuestion string `json:"clarification_question"`
	Reasoning             string `json:"reasoning"`
	SQL                   string `json:"sql"`
	Explanation           string `json:"explanation"`
}

// Request carries everything one generation attempt needs.
type Request struct {
	Skill     skill.Skill
	CompanyID int64
	Question  string
	History   []memory.Turn
	// Feedback is the verbatim failure from the previous attempt, empty on
	// the first attempt.
	Feedback string
}

// Generator drives candidate generation at a fixed low temperature.
type Generator struct {
	provider    llm.Provider
	temperature float64
}

func NewGenerator(provider llm.Provider, temperature float64) *Generator {
	return &Generator{provider: provider, temperature: temperature}
}

// Generate produces a candidate for req. Provider and decode failures degrade
// to an empty-SQL candidate whose Explanation carries the error, so the retry
// loop can feed it back; only context cancellation is returned as an error.
func (g *Generator) Generate(ctx context.Context, req Request) (Candidate, error) {
	logger := common.Logger()
	raw, err := g.provider.CompleteJSON(ctx, llm.Request{
		System:      skill.ContextFor(req.Skill, req.CompanyID),
		User:        buildUserPrompt(req),
		Temperature: g.temperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Candidate{}, ctx.Err()
		}
		logger.Warn("sqlgen: completion failed", "skill", req.Skill, "error", err)
		return Candidate{
			Reasoning:   "Chain execution failed",
			Explanation: fmt.Sprintf("Error generating SQL: %v", err),
		}, nil
	}

	cand, err := parseCandidate(raw)
	if err != nil {
		logger.Warn("sqlgen: candidate decode failed", "skill", req.Skill, "error", err)
		return Candidate{
			Reasoning:   "Chain execution failed",
			Explanation: fmt.Sprintf("Error generating SQL: %v", err),
		}, nil
	}
	return normalize(cand), nil
}

// normalize applies the output contract: clarification candidates carry no
// SQL, and empty-SQL candidates get a stable explanation.
func normalize(c Candidate) Candidate {
	if c.NeedsClarification {
		if strings.TrimSpace(c.ClarificationQuestion) == "" {
			c.ClarificationQuestion = "Could you please clarify your question?"
		}
		if strings.TrimSpace(c.Reasoning) == "" {
			c.Reasoning = "Question requires clarification"
		}
		c.SQL = ""
		c.Explanation = "Clarification needed before generating SQL"
		return c
	}
	c.ClarificationQuestion = ""
	if strings.TrimSpace(c.SQL) == "" {
		c.SQL = ""
		c.Explanation = "Failed to generate SQL query"
		if strings.TrimSpace(c.Reasoning) == "" {
			c.Reasoning = "No reasoning provided"
		}
	}
	return c
}

func parseCandidate(raw string) (Candidate, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return Candidate{}, fmt.Errorf("no JSON object in model output")
	}
	var c Candidate
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Candidate{}, fmt.Errorf("decode model output: %w", err)
	}
	return c, nil
}

// extractJSONObject tolerates markdown fences and prose around the object.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
