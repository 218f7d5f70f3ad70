// Package rerank scores candidate passages against a query with a
// cross-encoder served behind a TEI-style /rerank endpoint.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// Result is a reranked candidate: the index into the input slice and the
// cross-encoder relevance score.
type Result struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

// Reranker reorders candidates by relevance to the query.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []string, topN int) ([]Result, error)
}

// Config configures the rerank client.
type Config struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	Model   string `json:"model" yaml:"model"`
	APIKey  string `json:"api_key" yaml:"api_key"`
}

// Client is an HTTP client for a text-embeddings-inference style
// reranker.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New creates a rerank client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("reranker base URL not specified")
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
	Model string   `json:"model,omitempty"`
}

type rerankItem struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

// Rerank scores candidates and returns the top n sorted by score
// descending, ties broken by ascending candidate index so the ordering is
// deterministic.
func (c *Client) Rerank(ctx context.Context, query string, candidates []string, topN int) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{Query: query, Texts: candidates, Model: c.cfg.Model})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rerank response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank API error %d: %s", resp.StatusCode, string(respBody))
	}

	var items []rerankItem
	if err := json.Unmarshal(respBody, &items); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}

	results := make([]Result, 0, len(items))
	for _, it := range items {
		if it.Index < 0 || it.Index >= len(candidates) {
			return nil, fmt.Errorf("rerank response index %d out of range", it.Index)
		}
		results = append(results, Result{Index: it.Index, Score: it.Score})
	}

	Sort(results)
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// Sort orders results by score descending, ties by ascending index.
func Sort(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})
}
