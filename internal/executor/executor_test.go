// File path: internal/executor/executor_test.go

package executor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harborcover/commsight/internal/memory"
	"github.com/harborcover/commsight/internal/respond"
	"github.com/harborcover/commsight/internal/skill"
	"github.com/harborcover/commsight/internal/sqlgen"
)

const (
	testCompanyID = int64(29447)
	validEmailSQL = "select subject, sender_email from communications.emails_silver where matched_company_id = 29447 order by sent_date desc limit 5"
)

type fakeGenerator struct {
	candidates []sqlgen.Candidate
	errs       []error
	requests   []sqlgen.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req sqlgen.Request) (sqlgen.Candidate, error) {
	i := len(f.requests)
	f.requests = append(f.requests, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return sqlgen.Candidate{}, f.errs[i]
	}
	if i < len(f.candidates) {
		return f.candidates[i], nil
	}
	if len(f.candidates) > 0 {
		return f.candidates[len(f.candidates)-1], nil
	}
	return sqlgen.Candidate{}, nil
}

type fakeDatabase struct {
	rows    []map[string]any
	columns []string
	errs    []error
	queries []string
}

func (f *fakeDatabase) Query(_ context.Context, sqlText string) ([]map[string]any, []string, error) {
	i := len(f.queries)
	f.queries = append(f.queries, sqlText)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, nil, f.errs[i]
	}
	return f.rows, f.columns, nil
}

type fakeResponder struct {
	text     string
	err      error
	requests []respond.Request
}

func (f *fakeResponder) Generate(_ context.Context, req respond.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func emailRows() []map[string]any {
	return []map[string]any{{"subject": "Quote follow-up", "sender_email": "broker@example.com"}}
}

func sqlCandidate(sqlText string) sqlgen.Candidate {
	return sqlgen.Candidate{
		Reasoning:   "Filter emails by the matched company",
		SQL:         sqlText,
		Explanation: "Lists the most recent emails",
	}
}

func TestExecuteSuccessFirstAttempt(t *testing.T) {
	gen := &fakeGenerator{candidates: []sqlgen.Candidate{sqlCandidate(validEmailSQL)}}
	db := &fakeDatabase{rows: emailRows(), columns: []string{"subject", "sender_email"}}
	resp := &fakeResponder{text: "The broker sent one follow-up email."}
	exec := New(gen, db, resp, Config{MaxRetries: 3, NLGEnabled: true})

	out := exec.Execute(context.Background(), Request{Question: "Show me recent emails from the broker", CompanyID: testCompanyID})

	if !out.Success {
		t.Fatalf("Execute success = false, error %q", out.Error)
	}
	if out.Skill != skill.EmailCommunications {
		t.Fatalf("skill = %q", out.Skill)
	}
	if out.Attempts != 1 {
		t.Fatalf("attempts = %d", out.Attempts)
	}
	if out.SQL != sqlgen.Sanitize(validEmailSQL) {
		t.Fatalf("returned SQL not sanitized: %q", out.SQL)
	}
	if len(db.queries) != 1 || db.queries[0] != validEmailSQL {
		t.Fatalf("executed SQL = %v, want raw candidate", db.queries)
	}
	if out.NaturalResponse != "The broker sent one follow-up email." {
		t.Fatalf("natural response = %q", out.NaturalResponse)
	}
	if len(out.Rows) != 1 || out.Rows[0]["subject"] != "Quote follow-up" {
		t.Fatalf("rows = %v", out.Rows)
	}
	if len(out.DataSources) != 1 || out.DataSources[0] != "Email Communications" {
		t.Fatalf("data sources = %v", out.DataSources)
	}
	if !strings.Contains(out.MetadataSummary, "• Tables: Email Communications") ||
		!strings.Contains(out.MetadataSummary, "• Rows: 1") {
		t.Fatalf("metadata summary = %q", out.MetadataSummary)
	}
	if out.Trajectory == nil {
		t.Fatal("trajectory missing on success")
	}
	if out.Trajectory.DetectedSkill != "EMAIL_COMMUNICATIONS" {
		t.Fatalf("trajectory skill = %q", out.Trajectory.DetectedSkill)
	}
	if out.Trajectory.SQLGenerated != validEmailSQL {
		t.Fatalf("trajectory sql = %q, want raw candidate", out.Trajectory.SQLGenerated)
	}
	if out.Trajectory.RowsReturned != 1 || out.Trajectory.Attempts != 1 {
		t.Fatalf("trajectory counters = %+v", out.Trajectory)
	}
	if out.Error != "" {
		t.Fatalf("error = %q on success", out.Error)
	}
	if len(gen.requests) != 1 || gen.requests[0].Feedback != "" {
		t.Fatalf("first attempt carried feedback: %+v", gen.requests)
	}
	if gen.requests[0].Skill != skill.EmailCommunications || gen.requests[0].CompanyID != testCompanyID {
		t.Fatalf("generation request = %+v", gen.requests[0])
	}
	if len(resp.requests) != 1 || resp.requests[0].Skill != skill.EmailCommunications {
		t.Fatalf("responder request = %+v", resp.requests)
	}
}

func TestExecuteRetriesOnValidationFailure(t *testing.T) {
	gen := &fakeGenerator{candidates: []sqlgen.Candidate{
		sqlCandidate("DELETE FROM communications.emails_silver"),
		sqlCandidate(validEmailSQL),
	}}
	db := &fakeDatabase{rows: emailRows(), columns: []string{"subject", "sender_email"}}
	exec := New(gen, db, &fakeResponder{text: "ok"}, Config{MaxRetries: 3, NLGEnabled: true})

	out := exec.Execute(context.Background(), Request{Question: "any emails?", CompanyID: testCompanyID})

	if !out.Success || out.Attempts != 2 {
		t.Fatalf("success=%v attempts=%d error=%q", out.Success, out.Attempts, out.Error)
	}
	if len(db.queries) != 1 || db.queries[0] != validEmailSQL {
		t.Fatalf("rejected SQL reached the database: %v", db.queries)
	}
	if len(gen.requests) != 2 {
		t.Fatalf("generate calls = %d", len(gen.requests))
	}
	want := "Validation failed: Only SELECT queries are allowed. Found: DELETE"
	if gen.requests[1].Feedback != want {
		t.Fatalf("feedback = %q, want %q", gen.requests[1].Feedback, want)
	}
}

func TestExecuteInjectedDropTableTriggersRetry(t *testing.T) {
	gen := &fakeGenerator{candidates: []sqlgen.Candidate{
		sqlCandidate(validEmailSQL + "; DROP TABLE communications.emails_silver"),
		sqlCandidate(validEmailSQL),
	}}
	db := &fakeDatabase{rows: emailRows(), columns: []string{"subject", "sender_email"}}
	exec := New(gen, db, &fakeResponder{text: "ok"}, Config{MaxRetries: 3, NLGEnabled: true})

	out := exec.Execute(context.Background(), Request{
		Question:  "Show recent emails'; DROP TABLE emails_silver; --",
		CompanyID: testCompanyID,
	})

	if !out.Success || out.Attempts != 2 {
		t.Fatalf("success=%v attempts=%d error=%q", out.Success, out.Attempts, out.Error)
	}
	if len(db.queries) != 1 || db.queries[0] != validEmailSQL {
		t.Fatalf("injected SQL reached the database: %v", db.queries)
	}
	want := "Validation failed: Dangerous SQL keyword detected: DROP"
	if len(gen.requests) != 2 || gen.requests[1].Feedback != want {
		t.Fatalf("feedback on retry = %+v, want %q", gen.requests, want)
	}
}

func TestExecuteEmptySQLFeedback(t *testing.T) {
	gen := &fakeGenerator{candidates: []sqlgen.Candidate{
		{Reasoning: "Chain execution failed", Explanation: "Error generating SQL: boom"},
		sqlCandidate(validEmailSQL),
	}}
	db := &fakeDatabase{rows: emailRows(), columns: []string{"subject", "sender_email"}}
	exec := New(gen, db, &fakeResponder{text: "ok"}, Config{MaxRetries: 3, NLGEnabled: true})

	out := exec.Execute(context.Background(), Request{Question: "any emails?", CompanyID: testCompanyID})

	if !out.Success || out.Attempts != 2 {
		t.Fatalf("success=%v attempts=%d error=%q", out.Success, out.Attempts, out.Error)
	}
	if len(db.queries) != 1 {
		t.Fatalf("database calls = %d", len(db.queries))
	}
	want := "Agent returned empty SQL. Explanation: Error generating SQL: boom"
	if gen.requests[1].Feedback != want {
		t.Fatalf("feedback = %q, want %q", gen.requests[1].Feedback, want)
	}
}

func TestExecuteExecutionFailureFeedback(t *testing.T) {
	gen := &fakeGenerator{candidates: []sqlgen.Candidate{sqlCandidate(validEmailSQL)}}
	db := &fakeDatabase{
		rows:    emailRows(),
		columns: []string{"subject", "sender_email"},
		errs:    []error{errors.New(`pq: column "sent_date" does not exist`)},
	}
	exec := New(gen, db, &fakeResponder{text: "ok"}, Config{MaxRetries: 3, NLGEnabled: true})

	out := exec.Execute(context.Background(), Request{Question: "any emails?", CompanyID: testCompanyID})

	if !out.Success || out.Attempts != 2 {
		t.Fatalf("success=%v attempts=%d error=%q", out.Success, out.Attempts, out.Error)
	}
	if len(db.queries) != 2 {
		t.Fatalf("database calls = %d", len(db.queries))
	}
	want := `Execution failed: pq: column "sent_date" does not exist`
	if gen.requests[1].Feedback != want {
		t.Fatalf("feedback = %q, want %q", gen.requests[1].Feedback, want)
	}
}

func TestExecuteExhaustsRetryBudget(t *testing.T) {
	raw := "DELETE FROM communications.emails_silver"
	gen := &fakeGenerator{candidates: []sqlgen.Candidate{sqlCandidate(raw)}}
	db := &fakeDatabase{}
	exec := New(gen, db, &fakeResponder{text: "ok"}, Config{MaxRetries: 3, NLGEnabled: true})

	out := exec.Execute(context.Background(), Request{Question: "any emails?", CompanyID: testCompanyID})

	if out.Success {
		t.Fatal("expected failure after exhausting retries")
	}
	if len(gen.requests) != 3 {
		t.Fatalf("generate calls = %d, want exactly 3", len(gen.requests))
	}
	if len(db.queries) != 0 {
		t.Fatalf("rejected SQL reached the database: %v", db.queries)
	}
	if out.Attempts != 3 {
		t.Fatalf("attempts = %d", out.Attempts)
	}
	wantErr := "Validation failed: Only SELECT queries are allowed. Found: DELETE"
	if out.Error != wantErr {
		t.Fatalf("error = %q", out.Error)
	}
	if out.NaturalResponse != "I attempted to answer your question but encountered an error: "+wantErr {
		t.Fatalf("natural response = %q", out.NaturalResponse)
	}
	if out.SQL != sqlgen.Sanitize(raw) {
		t.Fatalf("failure SQL = %q", out.SQL)
	}
	if out.Trajectory != nil {
		t.Fatal("trajectory present on failure")
	}
	if out.DataSources != nil || out.MetadataSummary != "" {
		t.Fatalf("failure carried sources %v summary %q", out.DataSources, out.MetadataSummary)
	}
	if len(out.Rows) != 0 {
		t.Fatalf("rows = %v", out.Rows)
	}
}

func TestExecuteClarificationShortCircuit(t *testing.T) {
	gen := &fakeGenerator{candidates: []sqlgen.Candidate{{
		NeedsClarification:    true,
		ClarificationQuestion: "Which time period do you mean?",
		Reasoning:             "The question is ambiguous",
		Explanation:           "Needs a date range",
	}}}
	db := &fakeDatabase{}
	resp := &fakeResponder{text: "unused"}
	exec := New(gen, db, resp, Config{MaxRetries: 3, NLGEnabled: true})

	out := exec.Execute(context.Background(), Request{Question: "any emails?", CompanyID: testCompanyID})

	if !out.Success || !out.NeedsClarification {
		t.Fatalf("success=%v needs_clarification=%v", out.Success, out.NeedsClarification)
	}
	want := "I need a bit more information to answer your question.\n\n**Which time period do you mean?**"
	if out.NaturalResponse != want {
		t.Fatalf("natural response = %q", out.NaturalResponse)
	}
	if out.SQL != "" || len(out.Rows) != 0 || out.Error != "" {
		t.Fatalf("clarification outcome carried sql=%q rows=%v error=%q", out.SQL, out.Rows, out.Error)
	}
	if out.Explanation != "Needs a date range" {
		t.Fatalf("explanation = %q", out.Explanation)
	}
	if out.Trajectory == nil {
		t.Fatal("trajectory missing")
	}
	if out.Trajectory.Explanation != "Clarification needed" {
		t.Fatalf("trajectory explanation = %q", out.Trajectory.Explanation)
	}
	if !out.Trajectory.ClarificationRequested || out.Trajectory.SQLGenerated != "" {
		t.Fatalf("trajectory = %+v", out.Trajectory)
	}
	if len(db.queries) != 0 || len(resp.requests) != 0 {
		t.Fatal("clarification must not touch database or responder")
	}
}

func TestExecuteNLGDisabledUsesTemplate(t *testing.T) {
	gen := &fakeGenerator{candidates: []sqlgen.Candidate{sqlCandidate(validEmailSQL)}}
	db := &fakeDatabase{rows: emailRows(), columns: []string{"subject", "sender_email"}}
	resp := &fakeResponder{text: "should not appear"}
	exec := New(gen, db, resp, Config{MaxRetries: 3, NLGEnabled: false})

	out := exec.Execute(context.Background(), Request{Question: "any emails?", CompanyID: testCompanyID})

	if !out.Success {
		t.Fatalf("error = %q", out.Error)
	}
	if len(resp.requests) != 0 {
		t.Fatal("responder called with NLG disabled")
	}
	if want := skill.Fallback(skill.EmailCommunications, db.rows, db.columns); out.NaturalResponse != want {
		t.Fatalf("natural response = %q, want template %q", out.NaturalResponse, want)
	}
	if !strings.Contains(out.NaturalResponse, "Found 1 email(s).") {
		t.Fatalf("template response = %q", out.NaturalResponse)
	}
}

func TestExecuteResponderFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{candidates: []sqlgen.Candidate{sqlCandidate(validEmailSQL)}}
	db := &fakeDatabase{rows: emailRows(), columns: []string{"subject", "sender_email"}}
	resp := &fakeResponder{err: errors.New("model unavailable")}
	exec := New(gen, db, resp, Config{MaxRetries: 3, NLGEnabled: true})

	out := exec.Execute(context.Background(), Request{Question: "any emails?", CompanyID: testCompanyID})

	if !out.Success || out.Error != "" {
		t.Fatalf("success=%v error=%q", out.Success, out.Error)
	}
	if want := skill.Fallback(skill.EmailCommunications, db.rows, db.columns); out.NaturalResponse != want {
		t.Fatalf("natural response = %q, want template", out.NaturalResponse)
	}
}

func TestExecuteGeneratorAbortStopsLoop(t *testing.T) {
	gen := &fakeGenerator{errs: []error{context.Canceled}}
	db := &fakeDatabase{}
	exec := New(gen, db, &fakeResponder{text: "ok"}, Config{MaxRetries: 3, NLGEnabled: true})

	out := exec.Execute(context.Background(), Request{Question: "any emails?", CompanyID: testCompanyID})

	if out.Success {
		t.Fatal("expected failure")
	}
	if len(gen.requests) != 1 || len(db.queries) != 0 {
		t.Fatalf("calls after abort: gen=%d db=%d", len(gen.requests), len(db.queries))
	}
	if out.Attempts != 1 {
		t.Fatalf("attempts = %d", out.Attempts)
	}
	if out.Error != "Generation failed: context canceled" {
		t.Fatalf("error = %q", out.Error)
	}
	if !strings.HasPrefix(out.NaturalResponse, "I attempted to answer your question but encountered an error: ") {
		t.Fatalf("natural response = %q", out.NaturalResponse)
	}
}

func TestExecuteHistoryReachesGeneratorAndResponder(t *testing.T) {
	gen := &fakeGenerator{candidates: []sqlgen.Candidate{sqlCandidate(validEmailSQL)}}
	db := &fakeDatabase{rows: emailRows(), columns: []string{"subject", "sender_email"}}
	resp := &fakeResponder{text: "ok"}
	exec := New(gen, db, resp, Config{MaxRetries: 3, NLGEnabled: true})

	req := Request{
		Question:  "what was the subject?",
		CompanyID: testCompanyID,
		History:   []memory.Turn{{Question: "Who emailed us?", Answer: "The broker did."}},
	}
	out := exec.Execute(context.Background(), req)

	if !out.Success {
		t.Fatalf("error = %q", out.Error)
	}
	if len(gen.requests[0].History) != 1 || gen.requests[0].History[0].Question != "Who emailed us?" {
		t.Fatalf("generator history = %+v", gen.requests[0].History)
	}
	if len(resp.requests[0].History) != 1 || resp.requests[0].History[0].Answer != "The broker did." {
		t.Fatalf("responder history = %+v", resp.requests[0].History)
	}
}
