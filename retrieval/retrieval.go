// Package retrieval implements the two-stage search: dense vector recall
// over the store followed by cross-encoder reranking. The reranker is
// best-effort; when it fails the dense order stands.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dalilchat/dalil/embed"
	"github.com/dalilchat/dalil/normalize"
	"github.com/dalilchat/dalil/rerank"
	"github.com/dalilchat/dalil/store"
)

// Result is one retrieved passage. Score is the reranker score when the
// result set was reranked, cosine similarity otherwise.
type Result struct {
	ID       string
	Content  string
	Score    float32
	Metadata map[string]any
}

// SearchResult is the outcome of a retrieval pass. OrderOnly is true when
// the reranker failed and the dense order was kept.
type SearchResult struct {
	Results   []Result
	Reranked  bool
	OrderOnly bool
}

// Config bounds the two stages.
type Config struct {
	Collection string // document collection name
	TopK       int    // dense recall width (default 15)
	TopN       int    // reranked result count (default 5)
}

// Per-stage timeouts. The reranker gets its own budget so a slow
// cross-encoder degrades to dense order instead of failing the query.
const (
	embedTimeout  = 10 * time.Second
	searchTimeout = 5 * time.Second
	rerankTimeout = 10 * time.Second
)

// Engine runs two-stage retrieval.
type Engine struct {
	store    store.Store
	embedder embed.Embedder
	reranker rerank.Reranker // nil disables the second stage
	cfg      Config
}

// New creates a retrieval engine. reranker may be nil.
func New(s store.Store, e embed.Embedder, r rerank.Reranker, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 15
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.TopN > cfg.TopK {
		cfg.TopN = cfg.TopK
	}
	return &Engine{store: s, embedder: e, reranker: r, cfg: cfg}
}

// Search retrieves passages for a query. The query is normalized before
// embedding; a query that normalizes to empty returns an empty result
// without touching any model. filter optionally restricts the dense
// stage by payload fields.
func (e *Engine) Search(ctx context.Context, query string, filter *store.Filter) (*SearchResult, error) {
	norm := normalize.Normalize(query)
	if norm == "" {
		return &SearchResult{}, nil
	}

	ectx, cancelEmbed := context.WithTimeout(ctx, embedTimeout)
	vectors, err := e.embedder.Embed(ectx, []string{norm})
	cancelEmbed()
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}

	sctx, cancelSearch := context.WithTimeout(ctx, searchTimeout)
	hits, err := e.store.Search(sctx, e.cfg.Collection, vectors[0], e.cfg.TopK, filter)
	cancelSearch()
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return &SearchResult{}, nil
	}

	dense := make([]Result, 0, len(hits))
	for _, h := range hits {
		dense = append(dense, Result{
			ID:       h.ID,
			Content:  payloadContent(h.Payload),
			Score:    h.Score,
			Metadata: metadataWithout(h.Payload, "content"),
		})
	}

	if e.reranker == nil {
		return &SearchResult{Results: truncate(dense, e.cfg.TopN)}, nil
	}

	texts := make([]string, len(dense))
	for i, d := range dense {
		texts[i] = d.Content
	}

	rctx, cancelRerank := context.WithTimeout(ctx, rerankTimeout)
	ranked, err := e.reranker.Rerank(rctx, norm, texts, e.cfg.TopN)
	cancelRerank()
	if err != nil {
		slog.Warn("retrieval: rerank failed, keeping dense order", "error", err)
		return &SearchResult{Results: truncate(dense, e.cfg.TopN), OrderOnly: true}, nil
	}

	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		res := dense[r.Index]
		res.Score = r.Score
		results = append(results, res)
	}
	return &SearchResult{Results: results, Reranked: true}, nil
}

func truncate(results []Result, n int) []Result {
	if len(results) > n {
		return results[:n]
	}
	return results
}

func payloadContent(payload map[string]any) string {
	if v, ok := payload["content"].(string); ok {
		return v
	}
	return ""
}

// metadataWithout copies the payload minus the named key, so sources
// expose chunk metadata without duplicating the content body.
func metadataWithout(payload map[string]any, key string) map[string]any {
	if len(payload) == 0 {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == key {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
