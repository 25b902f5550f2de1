// File path: internal/orchestrator/orchestrator.go

// Package orchestrator sequences one question through the multi-agent state
// machine: supervisor -> {sql_agent | document_agent | hybrid | conversational}
// -> synthesizer. The hybrid route always finishes the SQL branch before the
// document branch so the trace stays deterministic and the document query can
// lean on entities the SQL branch resolved.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/common/telemetry"
	"github.com/harborcover/commsight/internal/docsearch"
	"github.com/harborcover/commsight/internal/executor"
	"github.com/harborcover/commsight/internal/llm"
	"github.com/harborcover/commsight/internal/memory"
	"github.com/harborcover/commsight/internal/postgres"
	"github.com/harborcover/commsight/internal/skill"
)

const (
	agentSQL            = "sql_agent"
	agentDocument       = "document_agent"
	agentConversational = "conversational"
)

// SQLAgent runs the generate-validate-execute loop for one question.
type SQLAgent interface {
	Execute(ctx context.Context, req executor.Request) executor.Outcome
}

// DocumentAgent answers a question from the tenant's stored documents.
type DocumentAgent interface {
	Answer(ctx context.Context, companyID int64, question string, searchTerms []string) (docsearch.Response, error)
}

// Decider produces one routing decision per question.
type Decider interface {
	Decide(ctx context.Context, sessionID, question string) RouteDecision
}

// Memory is the per-session conversation window consulted by the generation
// stages and appended to after synthesis.
type Memory interface {
	AddExchange(sessionID, question, answer string)
	History(sessionID string) []memory.Turn
	ClearSession(sessionID string)
	ClearAll()
	SessionCount() int
	SessionExists(sessionID string) bool
	Window() int
}

// AgentResponse is one branch's contribution to synthesis.
type AgentResponse struct {
	AgentName  string
	Content    string
	Rows       []map[string]any
	SQL        string
	Snippets   []docsearch.Snippet
	Documents  []postgres.DocumentRecord
	Confidence float64
	Err        string
}

// Request is one caller question, scoped to a tenant and a session.
type Request struct {
	Question  string
	CompanyID int64
	SessionID string
}

// Result is the caller-facing contract for one resolved question. The first
// eight fields are the stable contract; the rest carry execution detail the
// SQL branch produced.
type Result struct {
	Success          bool                `json:"success"`
	Route            Route               `json:"route"`
	SQL              string              `json:"sql"`
	Rows             []map[string]any    `json:"rows"`
	DocumentSnippets []docsearch.Snippet `json:"document_snippets"`
	NaturalResponse  string              `json:"natural_response"`
	Trace            []string            `json:"trace"`
	Error            string              `json:"error,omitempty"`

	Skill              skill.Skill          `json:"skill,omitempty"`
	Attempts           int                  `json:"attempts,omitempty"`
	Reasoning          string               `json:"reasoning,omitempty"`
	RoutingReasoning   string               `json:"routing_reasoning,omitempty"`
	DataSources        []string             `json:"data_sources,omitempty"`
	MetadataSummary    string               `json:"metadata_summary,omitempty"`
	Trajectory         *executor.Trajectory `json:"trajectory,omitempty"`
	NeedsClarification bool                 `json:"needs_clarification,omitempty"`
}

// Orchestrator owns the state machine and the conversation memory lifecycle.
type Orchestrator struct {
	supervisor Decider
	sqlAgent   SQLAgent
	docAgent   DocumentAgent
	memory     Memory
	provider   llm.Provider
	cfg        Config
}

func New(supervisor Decider, sqlAgent SQLAgent, docAgent DocumentAgent, mem Memory, provider llm.Provider, cfg Config) *Orchestrator {
	return &Orchestrator{
		supervisor: supervisor,
		sqlAgent:   sqlAgent,
		docAgent:   docAgent,
		memory:     mem,
		provider:   provider,
		cfg:        cfg.withDefaults(),
	}
}

// Process answers one question. It always returns a well-formed Result: branch
// errors and panics are contained here and surface as Success=false with the
// partial trace preserved, never as a raw error to the caller.
func (o *Orchestrator) Process(ctx context.Context, req Request) (res Result) {
	logger := common.Logger()
	spanCtx, finish := telemetry.StartSpan(ctx, "orchestrator.process")
	defer func() {
		finish("route", string(res.Route), "success", res.Success)
	}()
	if memErr := telemetry.CheckMemoryBudget("orchestrator.process"); memErr != nil {
		logger.Warn("orchestrator: memory guard warning", "error", memErr)
	}

	companyID := req.CompanyID
	if companyID <= 0 {
		companyID = o.cfg.DefaultCompanyID
	}

	var (
		route Route
		trace []string
	)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("orchestrator: recovered from panic", "panic", r)
			res = Result{
				Success:         false,
				Route:           route,
				Trace:           trace,
				Error:           fmt.Sprintf("%v", r),
				NaturalResponse: fmt.Sprintf("I encountered an error processing your question: %v", r),
			}
		}
	}()

	logger.Info("orchestrator: processing question",
		"session", req.SessionID, "company_id", companyID)

	history := o.memory.History(req.SessionID)
	decision := o.supervisor.Decide(spanCtx, req.SessionID, req.Question)
	route = decision.Route
	telemetry.RecordRoute(string(route))
	trace = append(trace, "supervisor")

	var (
		responses   []AgentResponse
		sqlOutcome  *executor.Outcome
		docResponse *docsearch.Response
	)

	runSQL := func() {
		trace = append(trace, agentSQL)
		out := o.sqlAgent.Execute(spanCtx, executor.Request{
			Question:  req.Question,
			CompanyID: companyID,
			History:   history,
		})
		sqlOutcome = &out
		confidence := 0.0
		if out.Success {
			confidence = 1.0
		}
		responses = append(responses, AgentResponse{
			AgentName:  agentSQL,
			Content:    out.NaturalResponse,
			Rows:       out.Rows,
			SQL:        out.SQL,
			Confidence: confidence,
			Err:        out.Error,
		})
		logger.Info("orchestrator: sql branch finished",
			"rows", len(out.Rows), "attempts", out.Attempts, "success", out.Success)
	}
	runDocuments := func() error {
		trace = append(trace, agentDocument)
		resp, err := o.docAgent.Answer(spanCtx, companyID, req.Question, decision.SearchTerms)
		if err != nil {
			return err
		}
		docResponse = &resp
		responses = append(responses, AgentResponse{
			AgentName:  agentDocument,
			Content:    resp.Content,
			Snippets:   resp.Snippets,
			Documents:  resp.Documents,
			Confidence: resp.Confidence,
		})
		logger.Info("orchestrator: document branch finished",
			"snippets", len(resp.Snippets), "confidence", resp.Confidence)
		return nil
	}

	switch route {
	case RouteConversational:
		trace = append(trace, agentConversational)
		content := strings.TrimSpace(decision.ConversationalResponse)
		if content == "" {
			content = defaultConversationalReply
		}
		responses = append(responses, AgentResponse{AgentName: agentConversational, Content: content, Confidence: 1})
	case RouteSQLOnly:
		runSQL()
	case RouteDocumentSearch:
		if err := runDocuments(); err != nil {
			return o.branchFailure(route, trace, "Document retrieval failed", err)
		}
	case RouteHybrid:
		runSQL()
		if err := runDocuments(); err != nil {
			return o.branchFailure(route, trace, "Document retrieval failed", err)
		}
	}

	trace = append(trace, "synthesizer")
	answer, synthErr := o.synthesize(spanCtx, req.Question, responses)

	res = Result{
		Success:          synthErr == "",
		Route:            route,
		NaturalResponse:  answer,
		Trace:            trace,
		Error:            synthErr,
		RoutingReasoning: decision.Reasoning,
	}
	if sqlOutcome != nil {
		res.SQL = sqlOutcome.SQL
		res.Rows = sqlOutcome.Rows
		res.Skill = sqlOutcome.Skill
		res.Attempts = sqlOutcome.Attempts
		res.Reasoning = sqlOutcome.Reasoning
		res.DataSources = sqlOutcome.DataSources
		res.MetadataSummary = sqlOutcome.MetadataSummary
		res.Trajectory = sqlOutcome.Trajectory
		res.NeedsClarification = sqlOutcome.NeedsClarification
		if !sqlOutcome.Success {
			res.Success = false
			res.Error = sqlOutcome.Error
		}
	}
	if docResponse != nil {
		res.DocumentSnippets = docResponse.Snippets
		if len(docResponse.Documents) > 0 {
			res.DataSources = append(res.DataSources, "Company Documents")
		}
	}

	o.memory.AddExchange(req.SessionID, req.Question, answer)
	logger.Info("orchestrator: question resolved", "route", string(route), "success", res.Success)
	return res
}

// branchFailure converts a retrieval-branch error into the structured failure
// shape, keeping the partial trace.
func (o *Orchestrator) branchFailure(route Route, trace []string, label string, err error) Result {
	common.Logger().Error("orchestrator: branch failed",
		"route", string(route), "stage", label, "error", err)
	return Result{
		Success:         false,
		Route:           route,
		Trace:           trace,
		Error:           fmt.Sprintf("%s: %v", label, err),
		NaturalResponse: fmt.Sprintf("I encountered an error processing your question: %v", err),
	}
}

// ClearSession drops one session's conversation window and routing memory.
func (o *Orchestrator) ClearSession(sessionID string) {
	o.memory.ClearSession(sessionID)
	if c, ok := o.supervisor.(interface{ ClearSession(string) }); ok {
		c.ClearSession(sessionID)
	}
}

// ClearAllSessions drops every session's conversation window and routing
// memory.
func (o *Orchestrator) ClearAllSessions() {
	o.memory.ClearAll()
	if c, ok := o.supervisor.(interface{ ClearAll() }); ok {
		c.ClearAll()
	}
}

func (o *Orchestrator) SessionCount() int { return o.memory.SessionCount() }

func (o *Orchestrator) SessionExists(sessionID string) bool {
	return o.memory.SessionExists(sessionID)
}

func (o *Orchestrator) MemoryWindow() int { return o.memory.Window() }
