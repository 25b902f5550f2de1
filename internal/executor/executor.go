// File path: internal/executor/executor.go

// Package executor runs the generate-validate-execute loop for SQL-backed
// questions. Each attempt asks the generator for a candidate, checks it with
// the security validator, and runs it against the warehouse; any failure is
// fed back verbatim to the next generation attempt until the retry budget is
// spent.
package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/common/telemetry"
	"github.com/harborcover/commsight/internal/memory"
	"github.com/harborcover/commsight/internal/respond"
	"github.com/harborcover/commsight/internal/skill"
	"github.com/harborcover/commsight/internal/sqlgen"
	"github.com/harborcover/commsight/internal/validate"
)

// Generator produces SQL candidates for a question.
type Generator interface {
	Generate(ctx context.Context, req sqlgen.Request) (sqlgen.Candidate, error)
}

// Database runs validated read-only SQL and returns rows plus the column
// order reported by the driver.
type Database interface {
	Query(ctx context.Context, sqlText string) ([]map[string]any, []string, error)
}

// Responder turns query results into a natural-language answer.
type Responder interface {
	Generate(ctx context.Context, req respond.Request) (string, error)
}

// Request is one question scoped to a single company.
type Request struct {
	Question  string
	CompanyID int64
	History   []memory.Turn
}

// Trajectory records how an answer was produced, for the response trace.
type Trajectory struct {
	Question               string `json:"question"`
	DetectedSkill          string `json:"detected_skill"`
	Reasoning              string `json:"reasoning"`
	Explanation            string `json:"explanation"`
	SQLGenerated           string `json:"sql_generated"`
	Attempts               int    `json:"attempts"`
	RowsReturned           int    `json:"rows_returned"`
	ClarificationRequested bool   `json:"clarification_requested,omitempty"`
}

// Outcome is the full result of one executor run. SQL holds the display form
// of the final query; Trajectory is absent when the retry budget was spent
// without a successful execution.
type Outcome struct {
	Success            bool             `json:"success"`
	SQL                string           `json:"sql"`
	Reasoning          string           `json:"reasoning"`
	Explanation        string           `json:"explanation"`
	Rows               []map[string]any `json:"results"`
	Columns            []string         `json:"-"`
	Error              string           `json:"error,omitempty"`
	Attempts           int              `json:"attempts"`
	Skill              skill.Skill      `json:"skill"`
	NaturalResponse    string           `json:"natural_response"`
	DataSources        []string         `json:"data_sources,omitempty"`
	MetadataSummary    string           `json:"metadata_summary,omitempty"`
	Trajectory         *Trajectory      `json:"trajectory,omitempty"`
	NeedsClarification bool             `json:"needs_clarification,omitempty"`
}

// Executor owns the retry loop. It never mutates conversation memory; the
// orchestrator records exchanges after synthesis.
type Executor struct {
	generator Generator
	db        Database
	responder Responder
	cfg       Config
}

func New(generator Generator, db Database, responder Responder, cfg Config) *Executor {
	return &Executor{generator: generator, db: db, responder: responder, cfg: cfg.withDefaults()}
}

// Execute answers req with at most MaxRetries attempts. Failures inside an
// attempt become feedback for the next one; the returned Outcome is always
// well formed, with Error set when no attempt succeeded.
func (e *Executor) Execute(ctx context.Context, req Request) Outcome {
	logger := common.Logger()
	detected := skill.Detect(req.Question)
	allowed := skill.AllowedTables(detected)
	logger.Info("executor: running question",
		"skill", string(detected), "company_id", req.CompanyID, "history", len(req.History))

	var feedback, lastSQL, reasoning, explanation string
	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		cand, err := e.generator.Generate(ctx, sqlgen.Request{
			Skill:     detected,
			CompanyID: req.CompanyID,
			Question:  req.Question,
			History:   req.History,
			Feedback:  feedback,
		})
		if err != nil {
			feedback = fmt.Sprintf("Generation failed: %s", err.Error())
			logger.Warn("executor: generation aborted", "attempt", attempt, "error", err)
			return e.failed(detected, lastSQL, reasoning, explanation, feedback, attempt)
		}

		if cand.NeedsClarification {
			telemetry.RecordQueryAttempt("")
			logger.Info("executor: clarification requested", "attempt", attempt)
			return Outcome{
				Success:            true,
				Reasoning:          cand.Reasoning,
				Explanation:        cand.Explanation,
				Rows:               []map[string]any{},
				Attempts:           attempt,
				Skill:              detected,
				NaturalResponse:    fmt.Sprintf("I need a bit more information to answer your question.\n\n**%s**", cand.ClarificationQuestion),
				NeedsClarification: true,
				Trajectory: &Trajectory{
					Question:               req.Question,
					DetectedSkill:          strings.ToUpper(string(detected)),
					Reasoning:              cand.Reasoning,
					Explanation:            "Clarification needed",
					Attempts:               attempt,
					ClarificationRequested: true,
				},
			}
		}

		reasoning = cand.Reasoning
		explanation = cand.Explanation
		sqlText := strings.TrimSpace(cand.SQL)
		if sqlText == "" {
			feedback = fmt.Sprintf("Agent returned empty SQL. Explanation: %s", explanation)
			telemetry.RecordQueryAttempt("")
			logger.Warn("executor: empty SQL candidate", "attempt", attempt)
			continue
		}
		lastSQL = sqlText

		verdict := validate.Query(sqlText, req.CompanyID, allowed)
		if !verdict.Valid {
			violation := verdict.First()
			feedback = fmt.Sprintf("Validation failed: %s", violation)
			telemetry.RecordQueryAttempt(violation)
			logger.Warn("executor: validation rejected query", "attempt", attempt, "violation", violation)
			continue
		}

		rows, columns, err := e.db.Query(ctx, sqlText)
		if err != nil {
			feedback = fmt.Sprintf("Execution failed: %s", err.Error())
			telemetry.RecordQueryAttempt("")
			logger.Warn("executor: execution failed", "attempt", attempt, "error", err)
			continue
		}
		telemetry.RecordQueryAttempt("")

		sources := DataSources(sqlText)
		logger.Info("executor: query succeeded",
			"attempt", attempt, "rows", len(rows), "tables", strings.Join(sources, ", "))
		return Outcome{
			Success:         true,
			SQL:             sqlgen.Sanitize(sqlText),
			Reasoning:       reasoning,
			Explanation:     explanation,
			Rows:            rows,
			Columns:         columns,
			Attempts:        attempt,
			Skill:           detected,
			NaturalResponse: e.naturalResponse(ctx, req, sqlText, rows, columns, detected),
			DataSources:     sources,
			MetadataSummary: MetadataSummary(rows, columns, sources),
			Trajectory: &Trajectory{
				Question:      req.Question,
				DetectedSkill: strings.ToUpper(string(detected)),
				Reasoning:     reasoning,
				Explanation:   explanation,
				SQLGenerated:  sqlText,
				Attempts:      attempt,
				RowsReturned:  len(rows),
			},
		}
	}

	telemetry.RecordRetryExhausted()
	logger.Warn("executor: retry budget exhausted", "attempts", e.cfg.MaxRetries, "feedback", feedback)
	return e.failed(detected, lastSQL, reasoning, explanation, feedback, e.cfg.MaxRetries)
}

func (e *Executor) failed(detected skill.Skill, lastSQL, reasoning, explanation, feedback string, attempts int) Outcome {
	sanitized := ""
	if lastSQL != "" {
		sanitized = sqlgen.Sanitize(lastSQL)
	}
	return Outcome{
		Success:         false,
		SQL:             sanitized,
		Reasoning:       reasoning,
		Explanation:     explanation,
		Rows:            []map[string]any{},
		Error:           feedback,
		Attempts:        attempts,
		Skill:           detected,
		NaturalResponse: fmt.Sprintf("I attempted to answer your question but encountered an error: %s", feedback),
	}
}

// naturalResponse prefers the language model when enabled and falls back to
// the deterministic per-skill template on any failure.
func (e *Executor) naturalResponse(ctx context.Context, req Request, sqlText string, rows []map[string]any, columns []string, detected skill.Skill) string {
	if e.cfg.NLGEnabled && e.responder != nil {
		text, err := e.responder.Generate(ctx, respond.Request{
			Question: req.Question,
			SQL:      sqlText,
			Rows:     rows,
			Skill:    detected,
			History:  req.History,
		})
		if err == nil {
			return text
		}
		common.Logger().Warn("executor: response generation failed, using template", "error", err)
	}
	return skill.Fallback(detected, rows, columns)
}
