// File path: internal/orchestrator/supervisor.go

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/common/telemetry"
	"github.com/harborcover/commsight/internal/llm"
)

// Route is the retrieval strategy chosen for one question.
type Route string

const (
	RouteSQLOnly        Route = "sql_only"
	RouteDocumentSearch Route = "document_search"
	RouteHybrid         Route = "hybrid"
	RouteConversational Route = "conversational"
)

// Valid reports whether r is one of the four recognized routes.
func (r Route) Valid() bool {
	switch r {
	case RouteSQLOnly, RouteDocumentSearch, RouteHybrid, RouteConversational:
		return true
	}
	return false
}

// ParseRoute maps a label onto the closed route set, tolerating case and
// surrounding whitespace.
func ParseRoute(label string) (Route, error) {
	r := Route(strings.ToLower(strings.TrimSpace(label)))
	if !r.Valid() {
		return "", fmt.Errorf("unrecognized route %q", label)
	}
	return r, nil
}

// RouteDecision is the supervisor's structured output for one question.
type RouteDecision struct {
	Route                  Route    `json:"route"`
	Reasoning              string   `json:"reasoning"`
	SearchTerms            []string `json:"search_terms"`
	ConversationalResponse string   `json:"conversational_response"`
}

const routingPrompt = `You are a query router for Harper Insurance's data system.

Analyze the user's question and determine which agent(s) should handle it.

## CRITICAL - CHECK FOR CONVERSATIONAL MESSAGES FIRST:
BEFORE routing to any data agent, check if this is just a greeting or chitchat.
Use 'conversational' route for ANY of these (including typos/variations):
- Greetings: "hello", "hi", "hey", "good morning", "how are you", "how are yo", "hows it going"
- Thanks: "thanks", "thank you", "thx", "appreciate it"
- Farewells: "bye", "goodbye", "see you", "later"
- Small talk: "how are you doing today?", "what's up", "how's your day"
- Capability questions: "what can you do?", "help", "what do you know"

For conversational messages, provide a brief friendly response in conversational_response.
Example: "how are you today?" -> route=conversational, conversational_response="I'm doing well, thank you! How can I help you with insurance information today?"

DO NOT query the database for greetings or chitchat - this wastes resources!

## Available Agents:

**SQL Agent** handles queries about:
- Phone calls, call recordings, call summaries
- Text messages (SMS)
- Emails (quotes, communications, policy status)
- Company information (contacts, business details, address)
- Document METADATA (list documents, what files exist, document count)

**Document Search Agent** handles queries about:
- Searching WITHIN document content (what does the document say?)
- Finding specific information IN documents (policy terms, clauses, coverage details)
- "What's in the policy document?" type questions

## Routing Rules:

1. **conversational**: Use for greetings, thanks, chitchat, or questions about your capabilities - NO data needed
2. **sql_only**: Use for communications, company info, listing documents (metadata)
3. **document_search**: Use when asking about content INSIDE documents
4. **hybrid**: Use when needing BOTH SQL data AND document content search

Respond with a single JSON object and nothing else, using exactly these fields:

{
  "route": <string> One of "conversational", "sql_only", "document_search", "hybrid".
  "reasoning": <string> Brief explanation of why this routing was chosen.
  "search_terms": <array of strings> Key terms to search for in document content. Empty unless the document agent runs.
  "conversational_response": <string> If route is "conversational", a brief friendly response. Empty otherwise.
}`

// defaultConversationalReply covers conversational decisions where the model
// left the response empty, and routing anomalies.
const defaultConversationalReply = "Hello! I can help you with questions about your company's communications, documents, and account details. What would you like to know?"

const (
	routingMemoryWindow = 3
	routingClipLimit    = 80
)

type routingNote struct {
	question string
	decision string
}

// Supervisor makes one structured routing decision per question at
// temperature zero. It keeps its own per-session memory of recent decisions
// so follow-up questions route consistently; that memory is separate from the
// conversation window the generation stages see.
type Supervisor struct {
	provider llm.Provider

	mu    sync.Mutex
	notes map[string][]routingNote
}

func NewSupervisor(provider llm.Provider) *Supervisor {
	return &Supervisor{provider: provider, notes: make(map[string][]routingNote)}
}

// Decide returns a valid routing decision for question. A failed call, an
// unparseable response, or an unrecognized route value all degrade to the
// conversational route with the anomaly in the reasoning, never an error.
func (s *Supervisor) Decide(ctx context.Context, sessionID, question string) RouteDecision {
	logger := common.Logger()
	user := fmt.Sprintf("Question: %s\n\nPrevious routing decisions: %s\n\nAnalyze this question and decide the routing.",
		question, s.decisionContext(sessionID))

	raw, err := s.provider.CompleteJSON(ctx, llm.Request{
		System:      routingPrompt,
		User:        user,
		Temperature: 0,
	})
	if err != nil {
		return s.anomaly(sessionID, question, fmt.Sprintf("routing call failed: %v", err))
	}

	var decision RouteDecision
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &decision); err != nil {
		return s.anomaly(sessionID, question, fmt.Sprintf("routing decision unparseable: %v", err))
	}
	route, err := ParseRoute(string(decision.Route))
	if err != nil {
		return s.anomaly(sessionID, question, err.Error())
	}
	decision.Route = route

	logger.Info("orchestrator: routing decided",
		"route", string(decision.Route), "reasoning", decision.Reasoning)
	s.remember(sessionID, question, decision)
	return decision
}

// anomaly falls back to the conversational route and bumps the anomaly
// counter. The decision is still recorded in routing memory.
func (s *Supervisor) anomaly(sessionID, question, reason string) RouteDecision {
	telemetry.RecordRoutingAnomaly()
	common.Logger().Warn("orchestrator: routing anomaly", "reason", reason)
	decision := RouteDecision{
		Route:                  RouteConversational,
		Reasoning:              fmt.Sprintf("Defaulted to conversational due to routing anomaly: %s", reason),
		ConversationalResponse: defaultConversationalReply,
	}
	s.remember(sessionID, question, decision)
	return decision
}

func (s *Supervisor) remember(sessionID, question string, decision RouteDecision) {
	note := routingNote{
		question: question,
		decision: fmt.Sprintf("route=%s; reasoning=%s", decision.Route, decision.Reasoning),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := append(s.notes[sessionID], note)
	if len(notes) > routingMemoryWindow {
		notes = notes[len(notes)-routingMemoryWindow:]
	}
	s.notes[sessionID] = notes
}

// decisionContext renders the session's recent routing decisions for the
// prompt, oldest first.
func (s *Supervisor) decisionContext(sessionID string) string {
	s.mu.Lock()
	notes := s.notes[sessionID]
	s.mu.Unlock()
	if len(notes) == 0 {
		return "No previous routing decisions."
	}
	lines := make([]string, 0, len(notes))
	for i, note := range notes {
		lines = append(lines, fmt.Sprintf("[%d] Question: %s... -> Route: %s...",
			i+1, clipRunes(note.question, routingClipLimit), clipRunes(note.decision, routingClipLimit)))
	}
	return strings.Join(lines, "\n")
}

// ClearSession drops the routing memory for one session.
func (s *Supervisor) ClearSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, sessionID)
}

// ClearAll drops routing memory for every session.
func (s *Supervisor) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = make(map[string][]routingNote)
}

func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
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
