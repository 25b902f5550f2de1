// File path: internal/vector/chromadb_test.go
package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type fakeChroma struct {
	t *testing.T

	mu              sync.Mutex
	collections     map[string]string
	nextID          int
	findFailures    int
	hideUntilCreate bool
	conflictCreate  bool
	upsertGone      bool
	heartbeatErr    bool

	findCalls   int
	createCalls int
	upsertCalls int
	addCalls    int
	queryCalls  int
	getCalls    int

	lastUpsertPayload map[string]any
	lastQueryPayload  map[string]any
	lastGetPayload    map[string]any
	lastAuth          string
}

func newFakeChroma(t *testing.T) *fakeChroma {
	t.Helper()
	return &fakeChroma{
		t:           t,
		collections: make(map[string]string),
	}
}

func (f *fakeChroma) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.lastAuth = r.Header.Get("Authorization")
	f.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/api/v1/heartbeat":
		f.handleHeartbeat(w)
	case path == "/api/v1/collections" && r.Method == http.MethodGet:
		f.handleList(w)
	case path == "/api/v1/collections" && r.Method == http.MethodPost:
		f.handleCreate(w, r)
	case strings.HasSuffix(path, "/upsert"):
		f.handleUpsert(w, r)
	case strings.HasSuffix(path, "/add"):
		f.handleAdd(w, r)
	case strings.HasSuffix(path, "/query"):
		f.handleQuery(w, r)
	case strings.HasSuffix(path, "/get"):
		f.handleGet(w, r)
	case strings.HasSuffix(path, "/count"):
		f.handleCount(w)
	case strings.HasPrefix(path, "/api/v1/collections/"):
		f.handleFind(w, strings.TrimPrefix(path, "/api/v1/collections/"))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeChroma) handleHeartbeat(w http.ResponseWriter) {
	f.mu.Lock()
	fail := f.heartbeatErr
	f.mu.Unlock()
	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("heartbeat failure"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"nanosecond heartbeat": 1}`))
}

func (f *fakeChroma) handleFind(w http.ResponseWriter, name string) {
	f.mu.Lock()
	f.findCalls++
	if f.findFailures > 0 {
		f.findFailures--
		f.mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("lookup failed"))
		return
	}
	id, ok := f.collections[name]
	hidden := f.hideUntilCreate
	f.mu.Unlock()
	if !ok || hidden {
		http.NotFound(w, nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "name": name})
}

func (f *fakeChroma) handleList(w http.ResponseWriter) {
	f.mu.Lock()
	infos := make([]map[string]string, 0, len(f.collections))
	if !f.hideUntilCreate {
		for name, id := range f.collections {
			infos = append(infos, map[string]string{"id": id, "name": name})
		}
	}
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(infos)
}

func (f *fakeChroma) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.createCalls++
	if f.conflictCreate {
		f.conflictCreate = false
		f.hideUntilCreate = false
		f.mu.Unlock()
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("already exists"))
		return
	}
	id, ok := f.collections[payload.Name]
	if !ok {
		f.nextID++
		id = fmt.Sprintf("col-%d", f.nextID)
		f.collections[payload.Name] = id
	}
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "name": payload.Name})
}

func (f *fakeChroma) handleUpsert(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	f.mu.Lock()
	gone := f.upsertGone
	f.mu.Unlock()
	if gone {
		http.NotFound(w, r)
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.upsertCalls++
	f.lastUpsertPayload = payload
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeChroma) handleAdd(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.addCalls++
	f.lastUpsertPayload = payload
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeChroma) handleQuery(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.queryCalls++
	f.lastQueryPayload = payload
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{
		"ids":       [][]string{{"doc_7_summary", "doc_9_summary"}},
		"distances": [][]float64{{0.12, 0.35}},
		"metadatas": [][]map[string]any{{
			{"document_id": 7, "filename": "policy.pdf"},
			{"document_id": 9, "filename": "certificate.pdf"},
		}},
		"documents": [][]string{{"Policy summary", "Certificate summary"}},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeChroma) handleGet(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.getCalls++
	f.lastGetPayload = payload
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{
		"ids":       []string{"doc_7_summary"},
		"metadatas": []map[string]any{{"filename": "policy.pdf", "document_id": 7}},
		"documents": []string{"Policy summary"},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeChroma) handleCount(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("3"))
}

func (f *fakeChroma) counts() (find, create, upsert, add, query, get int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findCalls, f.createCalls, f.upsertCalls, f.addCalls, f.queryCalls, f.getCalls
}

func (f *fakeChroma) lastUpsert() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUpsertPayload
}

func (f *fakeChroma) lastQuery() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQueryPayload
}

func (f *fakeChroma) lastGet() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastGetPayload
}

func (f *fakeChroma) authHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

func newTestClient(server *httptest.Server, cfg Config) *Client {
	return &Client{
		cfg:           cfg,
		httpClient:    server.Client(),
		baseURL:       strings.TrimRight(server.URL, "/") + "/api/v1",
		collectionIDs: make(map[string]string),
	}
}

func TestAvailableHeartbeat(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	if !client.Available(context.Background()) {
		t.Fatal("expected heartbeat to succeed")
	}

	fake.mu.Lock()
	fake.heartbeatErr = true
	fake.mu.Unlock()
	if client.Available(context.Background()) {
		t.Fatal("expected heartbeat failure to report unavailable")
	}
}

func TestUpsertCreatesCollectionAndSendsPayload(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	docs := []Doc{
		{ID: "doc_7_summary", Text: "Policy summary", Metadata: map[string]any{"document_id": 7, "type": "summary"}},
		{ID: "doc_9_summary", Text: "Certificate summary", Metadata: map[string]any{"document_id": 9, "type": "summary"}},
	}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.Upsert(context.Background(), "document_summaries", docs, vectors); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	_, createCalls, upsertCalls, _, _, _ := fake.counts()
	if createCalls != 1 {
		t.Fatalf("expected collection to be created once, got %d", createCalls)
	}
	if upsertCalls != 1 {
		t.Fatalf("expected 1 upsert call, got %d", upsertCalls)
	}

	payload := fake.lastUpsert()
	ids, ok := payload["ids"].([]any)
	if !ok || len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", payload["ids"])
	}
	if ids[0] != "doc_7_summary" || ids[1] != "doc_9_summary" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	embeddings, ok := payload["embeddings"].([]any)
	if !ok || len(embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %v", payload["embeddings"])
	}
	metadatas, ok := payload["metadatas"].([]any)
	if !ok || len(metadatas) != 2 {
		t.Fatalf("expected 2 metadatas, got %v", payload["metadatas"])
	}
	first, ok := metadatas[0].(map[string]any)
	if !ok || first["type"] != "summary" {
		t.Fatalf("unexpected first metadata: %v", metadatas[0])
	}
}

func TestUpsertFallsBackToAdd(t *testing.T) {
	fake := newFakeChroma(t)
	fake.upsertGone = true
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	docs := []Doc{{ID: "doc_1_summary", Text: "hello"}}
	vectors := [][]float32{{0.5}}

	if err := client.Upsert(context.Background(), "document_summaries", docs, vectors); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	_, _, _, addCalls, _, _ := fake.counts()
	if addCalls != 1 {
		t.Fatalf("expected fallback add call, got %d", addCalls)
	}
}

func TestUpsertRejectsVectorMismatch(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	docs := []Doc{{ID: "a", Text: "a"}, {ID: "b", Text: "b"}}
	vectors := [][]float32{{0.1}}

	err := client.Upsert(context.Background(), "document_summaries", docs, vectors)
	if err == nil || !strings.Contains(err.Error(), "2 docs but 1 vectors") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	_, _, upsertCalls, addCalls, _, _ := fake.counts()
	if upsertCalls != 0 || addCalls != 0 {
		t.Fatal("mismatched upsert should not reach the server")
	}
}

func TestQueryParsesNestedResults(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	where := map[string]any{"company_id": 29447}
	hits, err := client.Query(context.Background(), "document_summaries", []float32{0.1, 0.2}, 5, where)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "doc_7_summary" || hits[0].Distance != 0.12 {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
	if hits[0].Document != "Policy summary" {
		t.Fatalf("unexpected first document: %q", hits[0].Document)
	}
	if hits[1].Metadata["filename"] != "certificate.pdf" {
		t.Fatalf("unexpected second metadata: %v", hits[1].Metadata)
	}

	payload := fake.lastQuery()
	if payload["n_results"] != float64(5) {
		t.Fatalf("expected n_results 5, got %v", payload["n_results"])
	}
	filter, ok := payload["where"].(map[string]any)
	if !ok || filter["company_id"] != float64(29447) {
		t.Fatalf("expected company filter in payload, got %v", payload["where"])
	}
}

func TestQueryOmitsEmptyFilter(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	if _, err := client.Query(context.Background(), "document_summaries", []float32{0.1}, 3, nil); err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if _, ok := fake.lastQuery()["where"]; ok {
		t.Fatal("empty filter should be omitted from the payload")
	}
}

func TestQueryRejectsEmptyVector(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	if _, err := client.Query(context.Background(), "document_summaries", nil, 3, nil); err == nil {
		t.Fatal("expected error for empty query vector")
	}
}

func TestGetParsesFlatResults(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	hits, err := client.Get(context.Background(), "document_summaries", map[string]any{"company_id": 29447})
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].ID != "doc_7_summary" || hits[0].Document != "Policy summary" {
		t.Fatalf("unexpected hit: %+v", hits[0])
	}
	if hits[0].Distance != 0 {
		t.Fatalf("Get hits should carry zero distance, got %v", hits[0].Distance)
	}

	payload := fake.lastGet()
	filter, ok := payload["where"].(map[string]any)
	if !ok || filter["company_id"] != float64(29447) {
		t.Fatalf("expected company filter in payload, got %v", payload["where"])
	}
}

func TestCountReturnsValue(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	count, err := client.Count(context.Background(), "document_summaries")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}

func TestCollectionIDCachedAcrossCalls(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	ctx := context.Background()
	if _, err := client.Query(ctx, "document_summaries", []float32{0.1}, 3, nil); err != nil {
		t.Fatalf("first Query returned error: %v", err)
	}
	findsAfterFirst, createsAfterFirst, _, _, _, _ := fake.counts()
	if _, err := client.Query(ctx, "document_summaries", []float32{0.2}, 3, nil); err != nil {
		t.Fatalf("second Query returned error: %v", err)
	}
	finds, creates, _, _, queries, _ := fake.counts()
	if finds != findsAfterFirst || creates != createsAfterFirst {
		t.Fatal("second query should reuse the cached collection id")
	}
	if queries != 2 {
		t.Fatalf("expected 2 query calls, got %d", queries)
	}
}

func TestSeparateCollectionsResolvedIndependently(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	ctx := context.Background()
	if _, err := client.Query(ctx, "document_summaries", []float32{0.1}, 3, nil); err != nil {
		t.Fatalf("summaries Query returned error: %v", err)
	}
	if _, err := client.Query(ctx, "document_content", []float32{0.1}, 3, nil); err != nil {
		t.Fatalf("content Query returned error: %v", err)
	}
	_, creates, _, _, _, _ := fake.counts()
	if creates != 2 {
		t.Fatalf("expected 2 collection creations, got %d", creates)
	}
	fake.mu.Lock()
	_, hasSummaries := fake.collections["document_summaries"]
	_, hasContent := fake.collections["document_content"]
	fake.mu.Unlock()
	if !hasSummaries || !hasContent {
		t.Fatal("both collections should exist on the server")
	}
}

func TestCreateConflictRefetchesCollection(t *testing.T) {
	fake := newFakeChroma(t)
	fake.collections["document_summaries"] = "col-existing"
	fake.hideUntilCreate = true
	fake.conflictCreate = true
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	if _, err := client.Query(context.Background(), "document_summaries", []float32{0.1}, 3, nil); err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	client.mu.Lock()
	id := client.collectionIDs["document_summaries"]
	client.mu.Unlock()
	if id != "col-existing" {
		t.Fatalf("expected conflict to resolve to existing id, got %q", id)
	}
}

func TestCollectionResolutionRetriesTransientFailure(t *testing.T) {
	fake := newFakeChroma(t)
	fake.collections["document_summaries"] = "col-existing"
	fake.findFailures = 1
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{})
	if _, err := client.Query(context.Background(), "document_summaries", []float32{0.1}, 3, nil); err != nil {
		t.Fatalf("Query returned error after retry: %v", err)
	}
	finds, _, _, _, _, _ := fake.counts()
	if finds < 2 {
		t.Fatalf("expected at least 2 find attempts, got %d", finds)
	}
}

func TestAuthorizationHeaderForwarded(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, Config{APIKey: "secret-token"})
	client.Available(context.Background())
	if got := fake.authHeader(); got != "Bearer secret-token" {
		t.Fatalf("expected bearer auth header, got %q", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	if cfg.Host != "localhost" || cfg.Port != 8000 || cfg.Scheme != "http" {
		t.Fatalf("unexpected connection defaults: %+v", cfg)
	}
	if cfg.SummaryCollection != "document_summaries" {
		t.Fatalf("unexpected summary collection default: %q", cfg.SummaryCollection)
	}
	if cfg.ContentCollection != "document_content" {
		t.Fatalf("unexpected content collection default: %q", cfg.ContentCollection)
	}
	if cfg.BaseURL() != "http://localhost:8000/api/v1" {
		t.Fatalf("unexpected base URL: %q", cfg.BaseURL())
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("CHROMADB_HOST", "vector.internal")
	t.Setenv("CHROMADB_PORT", "9100")
	t.Setenv("CHROMADB_SCHEME", "https")
	t.Setenv("CHROMADB_SUMMARY_COLLECTION", "summaries_v2")
	t.Setenv("CHROMADB_CONTENT_COLLECTION", "content_v2")
	t.Setenv("CHROMADB_TIMEOUT", "2s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Host != "vector.internal" || cfg.Port != 9100 || cfg.Scheme != "https" {
		t.Fatalf("unexpected connection config: %+v", cfg)
	}
	if cfg.SummaryCollection != "summaries_v2" || cfg.ContentCollection != "content_v2" {
		t.Fatalf("unexpected collection config: %+v", cfg)
	}
	if cfg.BaseURL() != "https://vector.internal:9100/api/v1" {
		t.Fatalf("unexpected base URL: %q", cfg.BaseURL())
	}
}

func TestConfigRejectsBadPort(t *testing.T) {
	t.Setenv("CHROMADB_PORT", "not-a-port")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestMergePrecedence(t *testing.T) {
	base := Config{Host: "a", Port: 1, SummaryCollection: "s1"}
	merged := base.Merge(Config{Host: "b", ContentCollection: "c2"})
	if merged.Host != "b" || merged.Port != 1 {
		t.Fatalf("unexpected merge result: %+v", merged)
	}
	if merged.SummaryCollection != "s1" || merged.ContentCollection != "c2" {
		t.Fatalf("unexpected collection merge: %+v", merged)
	}
}
