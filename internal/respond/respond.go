// File path: internal/respond/respond.go

// Package respond turns executed query results into natural-language
// answers. The prompt pairs an insurance-analyst system role with
// per-skill reading guidance and the raw rows rendered as JSON; a
// completion failure degrades to a deterministic row-count sentence so
// callers always get text back.
package respond

import (
	"context"
	"fmt"
	"strings"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/llm"
	"github.com/harborcover/commsight/internal/memory"
	"github.com/harborcover/commsight/internal/skill"
)

const (
	DefaultMaxRows = 10

	historyWindow     = 3
	recentAnswerLimit = 800
	olderAnswerLimit  = 300
)

// Request carries everything one answer generation needs. SQL is part
// of the call contract for trace parity but is not rendered into the
// prompt; the rows speak for themselves.
type Request struct {
	Question string
	SQL      string
	Rows     []map[string]any
	Skill    skill.Skill
	History  []memory.Turn
}

// Generator produces natural-language answers from query results.
type Generator struct {
	provider    llm.Provider
	temperature float64
	maxRows     int
}

// NewGenerator builds a Generator sampling at temperature and including
// at most maxRows rows in the prompt. maxRows <= 0 selects the default.
func NewGenerator(provider llm.Provider, temperature float64, maxRows int) *Generator {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Generator{
		provider:    provider,
		temperature: temperature,
		maxRows:     maxRows,
	}
}

// Generate asks the model for a concise answer grounded in the rows.
// Provider failures degrade to a row-count sentence carrying the error
// text; only context termination surfaces as an error.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	text, err := g.provider.Complete(ctx, llm.Request{
		System:      systemPrompt(req.Skill),
		User:        buildUserPrompt(req, g.maxRows),
		Temperature: g.temperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		common.Logger().Warn("respond: completion failed", "skill", string(req.Skill), "error", err)
		return fmt.Sprintf("Query completed with %d result(s). Error generating detailed response: %v", len(req.Rows), err), nil
	}
	return strings.TrimSpace(text), nil
}

func buildUserPrompt(req Request, maxRows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User Question: %s\n\n", req.Question)
	fmt.Fprintf(&b, "Query Results (%d rows):\n", len(req.Rows))
	b.WriteString(formatRows(req.Rows, req.Skill, maxRows))
	b.WriteString(formatConversation(req.History))
	b.WriteString("\n\nGenerate a natural, concise response (2-3 sentences) answering the user's question based on the query results above.")
	return b.String()
}

// formatConversation renders the trailing history window. The newest
// answer keeps more text than older ones since follow-ups usually
// reference it.
func formatConversation(history []memory.Turn) string {
	if len(history) == 0 {
		return ""
	}
	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	var b strings.Builder
	b.WriteString("\n\n## IMPORTANT: Previous Conversation Context\n")
	b.WriteString("Use this context to answer follow-up questions. If the user asks about something mentioned in a previous answer, USE THAT INFORMATION.\n\n")
	for i, turn := range recent {
		fmt.Fprintf(&b, "**Previous Q%d:** %s\n", i+1, turn.Question)
		answer := turn.Answer
		if i == len(recent)-1 {
			answer = ellipsize(answer, recentAnswerLimit)
		} else {
			answer = ellipsize(answer, olderAnswerLimit)
		}
		fmt.Fprintf(&b, "**Previous A%d:** %s\n\n", i+1, answer)
	}
	b.WriteString("---\n")
	b.WriteString("If the current question is a follow-up (e.g., 'who was that?', 'what was their name?'), LOOK IN THE PREVIOUS ANSWERS for the information.\n")
	return b.String()
}
