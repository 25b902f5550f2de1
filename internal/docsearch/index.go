// File path: internal/docsearch/index.go
package docsearch

import (
	"context"
	"fmt"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/llm"
	"github.com/harborcover/commsight/internal/postgres"
	"github.com/harborcover/commsight/internal/vector"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// DocumentSource lists the documents eligible for indexing.
type DocumentSource interface {
	IndexableDocuments(ctx context.Context) ([]postgres.DocumentRecord, error)
}

// VectorWriter is the slice of the vector client the indexer writes to.
type VectorWriter interface {
	Upsert(ctx context.Context, collection string, docs []vector.Doc, vectors [][]float32) error
}

// Indexer embeds document summaries and content chunks into the vector
// store. Summary IDs follow "doc_{id}_summary" and chunk IDs follow
// "doc_{id}_chunk_{i}" so re-runs overwrite instead of duplicating.
type Indexer struct {
	provider llm.Provider
	vectors  VectorWriter
	source   DocumentSource
	cfg      Config
}

// IndexStats reports one indexing run.
type IndexStats struct {
	Documents int `json:"documents"`
	Summaries int `json:"summaries"`
	Chunks    int `json:"chunks"`
	Failures  int `json:"failures"`
}

func NewIndexer(provider llm.Provider, vectors VectorWriter, source DocumentSource, cfg Config) *Indexer {
	cfg.applyDefaults()
	return &Indexer{
		provider: provider,
		vectors:  vectors,
		source:   source,
		cfg:      cfg,
	}
}

// Reindex embeds and upserts every indexable document. Per-document
// failures are counted and logged but do not stop the run; context
// cancellation does.
func (ix *Indexer) Reindex(ctx context.Context) (IndexStats, error) {
	logger := common.Logger()
	records, err := ix.source.IndexableDocuments(ctx)
	if err != nil {
		return IndexStats{}, fmt.Errorf("load indexable documents: %w", err)
	}
	stats := IndexStats{Documents: len(records)}
	logger.Info("docsearch: reindex started", "documents", len(records))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if summary := rec.Summary(); summary != "" {
			if err := ix.indexSummary(ctx, rec, summary); err != nil {
				stats.Failures++
				logger.Warn("docsearch: summary indexing failed", "document_id", rec.ID, "error", err)
			} else {
				stats.Summaries++
			}
		}
		if content := rec.Content(); content != "" {
			chunks, err := ix.indexContent(ctx, rec, content)
			if err != nil {
				stats.Failures++
				logger.Warn("docsearch: content indexing failed", "document_id", rec.ID, "error", err)
			} else {
				stats.Chunks += chunks
			}
		}
	}

	logger.Info("docsearch: reindex finished",
		"documents", stats.Documents,
		"summaries", stats.Summaries,
		"chunks", stats.Chunks,
		"failures", stats.Failures)
	return stats, nil
}

func (ix *Indexer) indexSummary(ctx context.Context, rec postgres.DocumentRecord, summary string) error {
	vecs, err := ix.provider.Embed(ctx, []string{summary})
	if err != nil {
		return fmt.Errorf("embed summary: %w", err)
	}
	doc := vector.Doc{
		ID:   fmt.Sprintf("doc_%d_summary", rec.ID),
		Text: summary,
		Metadata: map[string]any{
			"document_id":      rec.ID,
			"type":             "summary",
			"filename":         rec.Filename,
			"content_type":     rec.ContentType,
			"company_id":       rec.CompanyID,
			"document_summary": summary,
		},
	}
	return ix.vectors.Upsert(ctx, ix.cfg.SummaryCollection, []vector.Doc{doc}, vecs)
}

func (ix *Indexer) indexContent(ctx context.Context, rec postgres.DocumentRecord, content string) (int, error) {
	chunks := chunkText(content, chunkSize, chunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}
	vecs, err := ix.provider.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	docs := make([]vector.Doc, len(chunks))
	for i, chunk := range chunks {
		docs[i] = vector.Doc{
			ID:   fmt.Sprintf("doc_%d_chunk_%d", rec.ID, i),
			Text: chunk,
			Metadata: map[string]any{
				"document_id":      rec.ID,
				"type":             "content_chunk",
				"chunk_index":      i,
				"filename":         rec.Filename,
				"content_type":     rec.ContentType,
				"company_id":       rec.CompanyID,
				"document_summary": rec.Summary(),
			},
		}
	}
	if err := ix.vectors.Upsert(ctx, ix.cfg.ContentCollection, docs, vecs); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// chunkText splits text into overlapping windows measured in runes.
// Text shorter than one window comes back whole.
func chunkText(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) < size {
		return []string{text}
	}
	step := size - overlap
	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
