// File path: internal/docsearch/index_test.go
package docsearch

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/harborcover/commsight/internal/postgres"
)

type fakeSource struct {
	records []postgres.DocumentRecord
	err     error
}

func (f *fakeSource) IndexableDocuments(ctx context.Context) ([]postgres.DocumentRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestReindexUpsertsSummariesAndChunks(t *testing.T) {
	content := strings.Repeat("a", 1500)
	source := &fakeSource{records: []postgres.DocumentRecord{{
		ID:              7,
		CompanyID:       29447,
		Filename:        "policy.pdf",
		ContentType:     "application/pdf",
		DocumentSummary: nullString("Premium: $1,036.00"),
		ParsedContent:   nullString(content),
	}}}
	vectors := &fakeVector{}
	indexer := NewIndexer(&fakeProvider{}, vectors, source, Config{})

	stats, err := indexer.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex returned error: %v", err)
	}
	if stats.Documents != 1 || stats.Summaries != 1 || stats.Chunks != 2 || stats.Failures != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	summaries := vectors.upserts["document_summaries"]
	if len(summaries) != 1 || summaries[0].ID != "doc_7_summary" {
		t.Fatalf("unexpected summary upserts: %+v", summaries)
	}
	meta := summaries[0].Metadata
	if meta["type"] != "summary" || meta["company_id"] != int64(29447) || meta["filename"] != "policy.pdf" {
		t.Fatalf("unexpected summary metadata: %v", meta)
	}

	chunks := vectors.upserts["document_content"]
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunk upserts, got %d", len(chunks))
	}
	if chunks[0].ID != "doc_7_chunk_0" || chunks[1].ID != "doc_7_chunk_1" {
		t.Fatalf("unexpected chunk ids: %q %q", chunks[0].ID, chunks[1].ID)
	}
	if chunks[1].Metadata["chunk_index"] != 1 || chunks[1].Metadata["type"] != "content_chunk" {
		t.Fatalf("unexpected chunk metadata: %v", chunks[1].Metadata)
	}
	if len(chunks[0].Text) != 1000 || len(chunks[1].Text) != 700 {
		t.Fatalf("unexpected chunk sizes: %d %d", len(chunks[0].Text), len(chunks[1].Text))
	}
}

func TestReindexSkipsDocumentsWithoutText(t *testing.T) {
	source := &fakeSource{records: []postgres.DocumentRecord{{
		ID:       9,
		Filename: "empty.pdf",
	}}}
	vectors := &fakeVector{}
	indexer := NewIndexer(&fakeProvider{}, vectors, source, Config{})

	stats, err := indexer.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex returned error: %v", err)
	}
	if stats.Documents != 1 || stats.Summaries != 0 || stats.Chunks != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(vectors.upserts) != 0 {
		t.Fatalf("expected no upserts, got %v", vectors.upserts)
	}
}

func TestReindexCountsEmbeddingFailures(t *testing.T) {
	source := &fakeSource{records: []postgres.DocumentRecord{
		{ID: 1, DocumentSummary: nullString("first summary")},
		{ID: 2, DocumentSummary: nullString("second summary")},
	}}
	provider := &fakeProvider{embedErr: errors.New("embedding down")}
	indexer := NewIndexer(provider, &fakeVector{}, source, Config{})

	stats, err := indexer.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex returned error: %v", err)
	}
	if stats.Failures != 2 || stats.Summaries != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestReindexSourceFailurePropagates(t *testing.T) {
	indexer := NewIndexer(&fakeProvider{}, &fakeVector{}, &fakeSource{err: errors.New("db down")}, Config{})
	if _, err := indexer.Reindex(context.Background()); err == nil {
		t.Fatal("expected source error")
	}
}

func TestReindexStopsOnCancelledContext(t *testing.T) {
	source := &fakeSource{records: []postgres.DocumentRecord{
		{ID: 1, DocumentSummary: nullString("summary")},
	}}
	indexer := NewIndexer(&fakeProvider{}, &fakeVector{}, source, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := indexer.Reindex(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestChunkTextWindows(t *testing.T) {
	chunks := chunkText(strings.Repeat("x", 1500), 1000, 200)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1000 || len(chunks[1]) != 700 {
		t.Fatalf("unexpected chunk lengths: %d %d", len(chunks[0]), len(chunks[1]))
	}

	short := chunkText("short text", 1000, 200)
	if len(short) != 1 || short[0] != "short text" {
		t.Fatalf("short text should come back whole: %v", short)
	}

	if chunkText("", 1000, 200) != nil {
		t.Fatal("empty text should yield no chunks")
	}

	long := chunkText(strings.Repeat("y", 2600), 1000, 200)
	if len(long) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(long))
	}
	if len(long[3]) != 200 {
		t.Fatalf("unexpected final chunk length: %d", len(long[3]))
	}
}

func TestConfigDefaultsAndEnv(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	if cfg.TopK != 5 || cfg.SimilarityThreshold != 0.5 || cfg.Temperature != 0.3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SummaryCollection != "document_summaries" || cfg.ContentCollection != "document_content" {
		t.Fatalf("unexpected collection defaults: %+v", cfg)
	}
	if cfg.SearchContent {
		t.Fatal("content search should default off")
	}

	t.Setenv("VECTOR_TOP_K", "8")
	t.Setenv("SIMILARITY_THRESHOLD", "0.35")
	t.Setenv("DOCSEARCH_SEARCH_CONTENT", "true")
	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if loaded.TopK != 8 || loaded.SimilarityThreshold != 0.35 || !loaded.SearchContent {
		t.Fatalf("unexpected loaded config: %+v", loaded)
	}
}

func TestConfigRejectsBadValues(t *testing.T) {
	t.Setenv("VECTOR_TOP_K", "zero")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for invalid VECTOR_TOP_K")
	}
	t.Setenv("VECTOR_TOP_K", "5")
	t.Setenv("SIMILARITY_THRESHOLD", "1.5")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for out-of-range SIMILARITY_THRESHOLD")
	}
}
