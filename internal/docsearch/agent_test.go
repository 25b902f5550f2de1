// File path: internal/docsearch/agent_test.go
package docsearch

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/harborcover/commsight/internal/llm"
	"github.com/harborcover/commsight/internal/postgres"
	"github.com/harborcover/commsight/internal/vector"
)

type fakeProvider struct {
	lastSystem     string
	lastUser       string
	lastTemp       float64
	lastEmbedInput []string

	completion  string
	completeErr error
	embedding   [][]float32
	embedErr    error
}

func (f *fakeProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.lastSystem = req.System
	f.lastUser = req.User
	f.lastTemp = req.Temperature
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.completion, nil
}

func (f *fakeProvider) CompleteJSON(ctx context.Context, req llm.Request) (string, error) {
	return f.Complete(ctx, req)
}

func (f *fakeProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	f.lastEmbedInput = input
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if f.embedding != nil {
		return f.embedding, nil
	}
	vecs := make([][]float32, len(input))
	for i := range input {
		vecs[i] = []float32{0.1, 0.2}
	}
	return vecs, nil
}

func (f *fakeProvider) Name() string { return "fake" }

type fakeVector struct {
	getResults   map[string][]vector.SearchResult
	queryResults map[string][]vector.SearchResult
	getErr       error
	queryErr     error

	queriedCollections []string
	lastWhere          map[string]any
	lastLimit          int

	upserts map[string][]vector.Doc
}

func (f *fakeVector) Get(ctx context.Context, collection string, where map[string]any) ([]vector.SearchResult, error) {
	f.lastWhere = where
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getResults[collection], nil
}

func (f *fakeVector) Query(ctx context.Context, collection string, vec []float32, limit int, where map[string]any) ([]vector.SearchResult, error) {
	f.queriedCollections = append(f.queriedCollections, collection)
	f.lastWhere = where
	f.lastLimit = limit
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryResults[collection], nil
}

func (f *fakeVector) Upsert(ctx context.Context, collection string, docs []vector.Doc, vectors [][]float32) error {
	if f.upserts == nil {
		f.upserts = make(map[string][]vector.Doc)
	}
	if len(vectors) != len(docs) {
		return errors.New("vector count mismatch")
	}
	f.upserts[collection] = append(f.upserts[collection], docs...)
	return nil
}

type fakeMetadata struct {
	records []postgres.DocumentRecord
	err     error
}

func (f *fakeMetadata) DocumentsForCompany(ctx context.Context, companyID int64) ([]postgres.DocumentRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func summaryHit(id int64, filename, summary string) vector.SearchResult {
	return vector.SearchResult{
		ID:       "doc_summary",
		Document: summary,
		Metadata: map[string]any{
			"document_id":  float64(id),
			"filename":     filename,
			"content_type": "application/pdf",
			"type":         "summary",
		},
	}
}

func testAgent(provider *fakeProvider, vectors *fakeVector, metadata MetadataStore) *Agent {
	cfg := Config{}
	cfg.applyDefaults()
	return NewAgent(provider, vectors, metadata, cfg)
}

func TestAnswerFormatsAllDocuments(t *testing.T) {
	vectors := &fakeVector{
		getResults: map[string][]vector.SearchResult{
			"document_summaries": {
				summaryHit(7, "policy.pdf", "General liability policy, premium $1,036.00."),
				summaryHit(9, "certificate.pdf", "Certificate of insurance."),
			},
		},
	}
	provider := &fakeProvider{completion: "The premium is $1,036.00 per policy.pdf."}
	agent := testAgent(provider, vectors, nil)

	resp, err := agent.Answer(context.Background(), 29447, "what is the premium?", nil)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if resp.Content != "The premium is $1,036.00 per policy.pdf." {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.Confidence != 0.85 {
		t.Fatalf("expected confidence 0.85, got %v", resp.Confidence)
	}
	if !strings.Contains(provider.lastSystem, "**All Documents for this Company (2 total):**") {
		t.Fatalf("prompt missing document header:\n%s", provider.lastSystem)
	}
	if !strings.Contains(provider.lastSystem, "**Document 1: policy.pdf**") {
		t.Fatalf("prompt missing first document:\n%s", provider.lastSystem)
	}
	if !strings.Contains(provider.lastSystem, "General liability policy, premium $1,036.00.") {
		t.Fatalf("prompt missing summary text:\n%s", provider.lastSystem)
	}
	if provider.lastUser != "what is the premium?" {
		t.Fatalf("unexpected user prompt: %q", provider.lastUser)
	}
	if provider.lastTemp != 0.3 {
		t.Fatalf("expected temperature 0.3, got %v", provider.lastTemp)
	}
}

func TestAnswerNoDocumentsLowConfidence(t *testing.T) {
	vectors := &fakeVector{}
	provider := &fakeProvider{completion: "I could not find any documents."}
	agent := testAgent(provider, vectors, nil)

	resp, err := agent.Answer(context.Background(), 29447, "what documents exist?", nil)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if resp.Confidence != 0.3 {
		t.Fatalf("expected confidence 0.3, got %v", resp.Confidence)
	}
	if !strings.Contains(provider.lastSystem, "No documents found for this company.") {
		t.Fatalf("prompt missing empty marker:\n%s", provider.lastSystem)
	}
}

func TestAnswerCompletionFailureFallsBackToList(t *testing.T) {
	vectors := &fakeVector{
		getResults: map[string][]vector.SearchResult{
			"document_summaries": {summaryHit(7, "policy.pdf", "Policy summary.")},
		},
	}
	provider := &fakeProvider{completeErr: errors.New("model unavailable")}
	agent := testAgent(provider, vectors, nil)

	resp, err := agent.Answer(context.Background(), 29447, "what is covered?", nil)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if !strings.Contains(resp.Content, "**All Documents for this Company (1 total):**") {
		t.Fatalf("fallback should return the document list, got %q", resp.Content)
	}
	if resp.Confidence != 0.85 {
		t.Fatalf("expected confidence 0.85, got %v", resp.Confidence)
	}
}

func TestAnswerCancelledContextPropagates(t *testing.T) {
	vectors := &fakeVector{}
	provider := &fakeProvider{completeErr: context.Canceled, embedErr: context.Canceled}
	agent := testAgent(provider, vectors, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := agent.Answer(ctx, 29447, "anything", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAnswerSearchTermsSeedSnippetQuery(t *testing.T) {
	vectors := &fakeVector{}
	provider := &fakeProvider{completion: "ok"}
	agent := testAgent(provider, vectors, nil)

	if _, err := agent.Answer(context.Background(), 29447, "what is the premium?", []string{"premium", "policy"}); err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if len(provider.lastEmbedInput) != 1 || provider.lastEmbedInput[0] != "premium policy" {
		t.Fatalf("expected search terms to seed the embedding, got %v", provider.lastEmbedInput)
	}
}

func TestAnswerIncludesRelationalMetadata(t *testing.T) {
	records := []postgres.DocumentRecord{{
		ID:          7,
		Filename:    "policy.pdf",
		ContentType: "application/pdf",
		DocumentSummary: sql.NullString{
			String: "Policy summary.",
			Valid:  true,
		},
	}}
	vectors := &fakeVector{}
	provider := &fakeProvider{completion: "ok"}
	agent := testAgent(provider, vectors, &fakeMetadata{records: records})

	resp, err := agent.Answer(context.Background(), 29447, "list documents", nil)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if len(resp.Documents) != 1 || resp.Documents[0].Filename != "policy.pdf" {
		t.Fatalf("unexpected documents: %+v", resp.Documents)
	}
}

func TestAnswerMetadataFailureIsNonFatal(t *testing.T) {
	vectors := &fakeVector{}
	provider := &fakeProvider{completion: "ok"}
	agent := testAgent(provider, vectors, &fakeMetadata{err: errors.New("db down")})

	resp, err := agent.Answer(context.Background(), 29447, "list documents", nil)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if resp.Documents != nil {
		t.Fatalf("expected no documents on metadata failure, got %+v", resp.Documents)
	}
	if resp.Content != "ok" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
}

func TestFormatCompanyDocumentsLayout(t *testing.T) {
	docs := []companyDoc{
		{DocumentID: 7, Filename: "policy.pdf", ContentType: "application/pdf", Summary: "Premium: $1,036.00"},
		{Filename: "unknown.bin", ContentType: "application/octet-stream"},
	}
	got := formatCompanyDocuments(docs)
	for _, want := range []string{
		"**All Documents for this Company (2 total):**",
		"**Document 1: policy.pdf**",
		"- Type: application/pdf",
		"- Document ID: 7",
		"**Summary:**\nPremium: $1,036.00",
		"**Document 2: unknown.bin**",
		"- Document ID: N/A",
		strings.Repeat("-", 60),
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("formatted block missing %q:\n%s", want, got)
		}
	}
	if formatCompanyDocuments(nil) != "No documents found for this company." {
		t.Fatalf("unexpected empty formatting: %q", formatCompanyDocuments(nil))
	}
}
