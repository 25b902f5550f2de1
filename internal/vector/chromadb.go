// File path: internal/vector/chromadb.go

// Package vector provides a ChromaDB-backed store for document
// embeddings. Summaries and content chunks live in separate
// collections; callers address each operation by collection name and
// the client resolves and caches collection IDs behind the scenes.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/common/telemetry"
)

var (
	errNotFound = errors.New("chromadb: not found")
	errConflict = errors.New("chromadb: conflict")
)

// Doc is one embedded record: the text that was vectorized plus the
// metadata stored alongside it for filtering.
type Doc struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// SearchResult is a single hit from Query or Get. Distance is the raw
// cosine distance reported by ChromaDB; similarity conversion is left
// to the caller. Get results carry a zero distance.
type SearchResult struct {
	ID       string
	Distance float64
	Document string
	Metadata map[string]any
}

// Client talks to a ChromaDB server over its REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string

	mu            sync.Mutex
	collectionIDs map[string]string
}

// NewClient builds a client from cfg without contacting the server.
// Collections are resolved lazily on first use.
func NewClient(cfg Config) *Client {
	cfg.applyDefaults()
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:       cfg.BaseURL(),
		collectionIDs: make(map[string]string),
	}
}

// Available reports whether the ChromaDB server answers its heartbeat.
func (c *Client) Available(ctx context.Context) bool {
	return c.doRequest(ctx, http.MethodGet, c.baseURL+"/heartbeat", nil, nil) == nil
}

// Upsert writes docs with their embedding vectors into the named
// collection. vectors must align one-to-one with docs.
func (c *Client) Upsert(ctx context.Context, collection string, docs []Doc, vectors [][]float32) error {
	if len(docs) == 0 {
		return nil
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("chromadb: %d docs but %d vectors", len(docs), len(vectors))
	}
	collectionID, err := c.ensureCollection(ctx, collection)
	if err != nil {
		return err
	}

	ids := make([]string, len(docs))
	documents := make([]string, len(docs))
	metadatas := make([]map[string]any, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		documents[i] = doc.Text
		metadatas[i] = doc.Metadata
	}
	payload := map[string]any{
		"ids":        ids,
		"documents":  documents,
		"metadatas":  metadatas,
		"embeddings": vectors,
	}

	url := fmt.Sprintf("%s/collections/%s/upsert", c.baseURL, collectionID)
	err = c.doRequest(ctx, http.MethodPost, url, payload, nil)
	if errors.Is(err, errNotFound) {
		// Older servers only expose /add.
		url = fmt.Sprintf("%s/collections/%s/add", c.baseURL, collectionID)
		err = c.doRequest(ctx, http.MethodPost, url, payload, nil)
	}
	if err != nil {
		return fmt.Errorf("chromadb upsert: %w", err)
	}
	return nil
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Documents [][]string         `json:"documents"`
}

// Query runs a nearest-neighbor search over the named collection and
// returns up to limit hits ordered by ascending distance. where is an
// optional metadata filter in ChromaDB's filter syntax.
func (c *Client) Query(ctx context.Context, collection string, vector []float32, limit int, where map[string]any) ([]SearchResult, error) {
	if len(vector) == 0 {
		return nil, errors.New("chromadb: empty query vector")
	}
	if limit <= 0 {
		limit = 5
	}
	collectionID, err := c.ensureCollection(ctx, collection)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"query_embeddings": [][]float32{vector},
		"n_results":        limit,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if len(where) > 0 {
		payload["where"] = where
	}

	start := time.Now()
	var resp queryResponse
	url := fmt.Sprintf("%s/collections/%s/query", c.baseURL, collectionID)
	if err := c.doRequest(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return nil, fmt.Errorf("chromadb query: %w", err)
	}
	telemetry.RecordVectorSearch(time.Since(start))

	if len(resp.IDs) == 0 {
		return nil, nil
	}
	hits := make([]SearchResult, 0, len(resp.IDs[0]))
	for i, id := range resp.IDs[0] {
		hit := SearchResult{ID: id}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			hit.Distance = resp.Distances[0][i]
		}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			hit.Document = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			hit.Metadata = resp.Metadatas[0][i]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

type getResponse struct {
	IDs       []string         `json:"ids"`
	Metadatas []map[string]any `json:"metadatas"`
	Documents []string         `json:"documents"`
}

// Get fetches records from the named collection by metadata filter
// without a vector search. Used for listings such as "all documents
// for a company".
func (c *Client) Get(ctx context.Context, collection string, where map[string]any) ([]SearchResult, error) {
	collectionID, err := c.ensureCollection(ctx, collection)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"include": []string{"documents", "metadatas"},
	}
	if len(where) > 0 {
		payload["where"] = where
	}

	var resp getResponse
	url := fmt.Sprintf("%s/collections/%s/get", c.baseURL, collectionID)
	if err := c.doRequest(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return nil, fmt.Errorf("chromadb get: %w", err)
	}

	hits := make([]SearchResult, 0, len(resp.IDs))
	for i, id := range resp.IDs {
		hit := SearchResult{ID: id}
		if i < len(resp.Documents) {
			hit.Document = resp.Documents[i]
		}
		if i < len(resp.Metadatas) {
			hit.Metadata = resp.Metadatas[i]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Count returns the number of records in the named collection.
func (c *Client) Count(ctx context.Context, collection string) (int, error) {
	collectionID, err := c.ensureCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	var count int
	url := fmt.Sprintf("%s/collections/%s/count", c.baseURL, collectionID)
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &count); err != nil {
		return 0, fmt.Errorf("chromadb count: %w", err)
	}
	return count, nil
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// ensureCollection resolves a collection name to its server-side ID,
// creating the collection when it does not exist yet. Resolution is
// retried to ride out server startup.
func (c *Client) ensureCollection(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("chromadb: empty collection name")
	}
	c.mu.Lock()
	if id, ok := c.collectionIDs[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 250 * time.Millisecond):
			}
		}
		id, err := c.findCollection(ctx, name)
		if err == nil && id != "" {
			c.rememberCollection(name, id)
			return id, nil
		}
		if err != nil && !errors.Is(err, errNotFound) {
			lastErr = err
			continue
		}
		id, err = c.createCollection(ctx, name)
		if err == nil && id != "" {
			c.rememberCollection(name, id)
			return id, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("chromadb: collection unavailable")
	}
	common.Logger().Warn("vector: collection resolution failed", "collection", name, "error", lastErr)
	return "", lastErr
}

func (c *Client) rememberCollection(name, id string) {
	c.mu.Lock()
	c.collectionIDs[name] = id
	c.mu.Unlock()
}

type collectionInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Client) findCollection(ctx context.Context, name string) (string, error) {
	var single collectionInfo
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, name)
	err := c.doRequest(ctx, http.MethodGet, url, nil, &single)
	if err == nil && single.ID != "" {
		return single.ID, nil
	}
	if err != nil && !errors.Is(err, errNotFound) {
		return "", err
	}

	// Fallback: enumerate and match by name.
	var all []collectionInfo
	if err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/collections", nil, &all); err != nil {
		return "", err
	}
	for _, info := range all {
		if info.Name == name {
			return info.ID, nil
		}
	}
	return "", errNotFound
}

func (c *Client) createCollection(ctx context.Context, name string) (string, error) {
	payload := map[string]any{
		"name":          name,
		"get_or_create": true,
		"metadata": map[string]any{
			"hnsw:space": "cosine",
		},
	}
	var created collectionInfo
	err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/collections", payload, &created)
	if errors.Is(err, errConflict) {
		// Lost the create race; the collection now exists.
		return c.findCollection(ctx, name)
	}
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return c.findCollection(ctx, name)
	}
	return created.ID, nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusConflict:
		return errConflict
	case resp.StatusCode >= 400:
		msg := strings.TrimSpace(string(raw))
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return fmt.Errorf("chromadb: status %d: %s", resp.StatusCode, msg)
	}
	if readErr != nil {
		return readErr
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
