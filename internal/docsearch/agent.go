// File path: internal/docsearch/agent.go

// Package docsearch implements the document side of question answering:
// it pulls every stored summary for a company into LLM context, runs
// similarity search for ranked snippets, and generates a cited answer
// with a confidence score.
package docsearch

import (
	"context"
	"strings"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/llm"
	"github.com/harborcover/commsight/internal/postgres"
	"github.com/harborcover/commsight/internal/vector"
)

// VectorStore is the slice of the vector client the agent reads from.
type VectorStore interface {
	Get(ctx context.Context, collection string, where map[string]any) ([]vector.SearchResult, error)
	Query(ctx context.Context, collection string, vec []float32, limit int, where map[string]any) ([]vector.SearchResult, error)
}

// MetadataStore supplies relational document metadata for a company.
type MetadataStore interface {
	DocumentsForCompany(ctx context.Context, companyID int64) ([]postgres.DocumentRecord, error)
}

// Response is the document agent's output for one question.
type Response struct {
	Content    string
	Documents  []postgres.DocumentRecord
	Snippets   []Snippet
	Confidence float64
}

// Agent answers questions from a company's stored documents.
type Agent struct {
	provider llm.Provider
	vectors  VectorStore
	metadata MetadataStore
	cfg      Config
}

// NewAgent wires the document agent. metadata may be nil when no
// relational store is attached; answers then omit document records.
func NewAgent(provider llm.Provider, vectors VectorStore, metadata MetadataStore, cfg Config) *Agent {
	cfg.applyDefaults()
	return &Agent{
		provider: provider,
		vectors:  vectors,
		metadata: metadata,
		cfg:      cfg,
	}
}

// Answer retrieves every stored summary for the company, has the model
// locate the answer in them, and attaches ranked snippets plus
// relational metadata. Rather than trusting similarity ranking to pick
// the right context, all summaries go to the model and the search
// results only feed the caller's snippet list. Context cancellation is
// returned as an error; any other completion failure degrades to the
// formatted document list.
func (a *Agent) Answer(ctx context.Context, companyID int64, question string, searchTerms []string) (Response, error) {
	logger := common.Logger()

	summaries := a.allSummaries(ctx, companyID)
	docsInfo := formatCompanyDocuments(summaries)
	logger.Info("docsearch: summaries loaded", "company_id", companyID, "documents", len(summaries))

	var documents []postgres.DocumentRecord
	if a.metadata != nil {
		recs, err := a.metadata.DocumentsForCompany(ctx, companyID)
		if err != nil {
			logger.Warn("docsearch: document metadata lookup failed", "company_id", companyID, "error", err)
		} else {
			documents = recs
		}
	}

	queryText := strings.TrimSpace(strings.Join(searchTerms, " "))
	if queryText == "" {
		queryText = question
	}
	snippets, err := a.Search(ctx, queryText, companyID)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		logger.Warn("docsearch: snippet search failed", "company_id", companyID, "error", err)
		snippets = nil
	}

	system := strings.ReplaceAll(analystPrompt, "{documents}", docsInfo)
	content, err := a.provider.Complete(ctx, llm.Request{
		System:      system,
		User:        question,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		logger.Warn("docsearch: answer generation failed; returning document list", "error", err)
		content = docsInfo
	}
	content = strings.TrimSpace(content)
	if content == "" {
		content = docsInfo
	}

	confidence := 0.3
	if len(summaries) > 0 {
		confidence = 0.85
	}
	return Response{
		Content:    content,
		Documents:  documents,
		Snippets:   snippets,
		Confidence: confidence,
	}, nil
}

// allSummaries fetches every summary stored for the company without any
// similarity filtering. A retrieval failure yields an empty set so the
// answer path can still respond.
func (a *Agent) allSummaries(ctx context.Context, companyID int64) []companyDoc {
	hits, err := a.vectors.Get(ctx, a.cfg.SummaryCollection, map[string]any{"company_id": companyID})
	if err != nil {
		common.Logger().Warn("docsearch: summary retrieval failed", "company_id", companyID, "error", err)
		return nil
	}
	docs := make([]companyDoc, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, companyDoc{
			DocumentID:  metaInt64(hit.Metadata, "document_id"),
			Filename:    metaString(hit.Metadata, "filename", "Unknown"),
			ContentType: metaString(hit.Metadata, "content_type", "Unknown"),
			Summary:     hit.Document,
			Type:        metaString(hit.Metadata, "type", "summary"),
		})
	}
	return docs
}
