// File path: internal/docsearch/search.go
package docsearch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/vector"
)

// Snippet is one ranked semantic-search hit surfaced to callers.
type Snippet struct {
	DocumentID      int64   `json:"document_id"`
	Filename        string  `json:"filename"`
	ContentType     string  `json:"content_type"`
	DocumentSummary string  `json:"document_summary,omitempty"`
	MatchedText     string  `json:"matched_text"`
	Similarity      float64 `json:"similarity"`
	ChunkIndex      int     `json:"chunk_index"`
	Type            string  `json:"type"`
}

// Search embeds the query and runs nearest-neighbor search over the
// company's summaries (and content chunks when enabled). Hits below the
// similarity threshold are dropped; the rest are ordered by descending
// similarity and truncated to TopK.
func (a *Agent) Search(ctx context.Context, query string, companyID int64) ([]Snippet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("docsearch: empty search query")
	}
	vecs, err := a.provider.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, errors.New("docsearch: empty query embedding")
	}
	queryVec := vecs[0]
	where := map[string]any{"company_id": companyID}

	var snippets []Snippet
	snippets = append(snippets, a.searchCollection(ctx, a.cfg.SummaryCollection, queryVec, where)...)
	if a.cfg.SearchContent {
		snippets = append(snippets, a.searchCollection(ctx, a.cfg.ContentCollection, queryVec, where)...)
	}

	kept := make([]Snippet, 0, len(snippets))
	for _, s := range snippets {
		if s.Similarity >= a.cfg.SimilarityThreshold {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Similarity > kept[j].Similarity
	})
	if len(kept) > a.cfg.TopK {
		kept = kept[:a.cfg.TopK]
	}
	return kept, nil
}

// searchCollection queries one collection; a failure is logged and
// contributes no hits so the other collection can still answer.
func (a *Agent) searchCollection(ctx context.Context, collection string, queryVec []float32, where map[string]any) []Snippet {
	hits, err := a.vectors.Query(ctx, collection, queryVec, a.cfg.TopK, where)
	if err != nil {
		common.Logger().Warn("docsearch: collection search failed", "collection", collection, "error", err)
		return nil
	}
	snippets := make([]Snippet, 0, len(hits))
	for _, hit := range hits {
		snippets = append(snippets, snippetFromHit(hit))
	}
	return snippets
}

// snippetFromHit maps a raw hit into the snippet contract. Cosine
// distance converts to similarity as 1 - distance.
func snippetFromHit(hit vector.SearchResult) Snippet {
	return Snippet{
		DocumentID:      metaInt64(hit.Metadata, "document_id"),
		Filename:        metaString(hit.Metadata, "filename", "Unknown"),
		ContentType:     metaString(hit.Metadata, "content_type", "Unknown"),
		DocumentSummary: metaString(hit.Metadata, "document_summary", ""),
		MatchedText:     hit.Document,
		Similarity:      1 - hit.Distance,
		ChunkIndex:      metaInt(hit.Metadata, "chunk_index"),
		Type:            metaString(hit.Metadata, "type", "unknown"),
	}
}
