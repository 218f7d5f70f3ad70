// Package embed produces dense vectors from text through any
// OpenAI-compatible embeddings endpoint (vLLM, TEI, OpenAI, LM Studio,
// Gemini's compatibility layer). Vectors are L2-normalized so cosine and
// dot-product scores agree across backends.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Embedder is the capability the retrieval and ingest paths depend on.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dim() int
}

// Config configures the embedding client.
type Config struct {
	Provider string `json:"provider" yaml:"provider"` // openai-compatible by default; "gemini" switches endpoint
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
	Dim      int    `json:"dim" yaml:"dim"`

	// BatchSize is the number of texts per request (default 64).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	// Parallel is the number of concurrent batch requests (default 4).
	Parallel int `json:"parallel" yaml:"parallel"`
}

// Client is an HTTP embedding client.
type Client struct {
	cfg        Config
	httpClient *http.Client
	pathPrefix string
}

// New creates an embedding client. Dim must match the model; every
// response vector is checked against it.
func New(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model not specified")
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = 4
	}

	prefix := "/v1"
	if cfg.Provider == "gemini" {
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
		}
		prefix = ""
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8001"
	}

	return &Client{
		cfg:        cfg,
		pathPrefix: prefix,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Dim returns the configured vector dimension.
func (c *Client) Dim() int { return c.cfg.Dim }

// Embed returns one normalized vector per input text, in input order.
// Batches run concurrently with bounded parallelism.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Parallel)

	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end
		g.Go(func() error {
			vectors, err := c.embedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
			}
			mu.Lock()
			copy(out[start:end], vectors)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

const (
	maxRetries     = 3
	baseRetryDelay = time.Second
)

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.cfg.Model, Input: texts})
	if err != nil {
		return nil, err
	}
	url := c.cfg.BaseURL + c.pathPrefix + "/embeddings"

	var respBody []byte
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1))
			slog.Warn("embed: retrying request", "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		respBody, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return c.decodeBatch(respBody, len(texts))
		}
		lastErr = fmt.Errorf("embedding API error %d: %s", resp.StatusCode, string(respBody))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) decodeBatch(respBody []byte, want int) ([][]float32, error) {
	var resp embeddingResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if len(resp.Data) != want {
		return nil, fmt.Errorf("embedding response has %d vectors, want %d", len(resp.Data), want)
	}

	vectors := make([][]float32, want)
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= want {
			return nil, fmt.Errorf("embedding response index %d out of range", d.Index)
		}
		if len(d.Embedding) != c.cfg.Dim {
			return nil, fmt.Errorf("embedding has dimension %d, configured %d", len(d.Embedding), c.cfg.Dim)
		}
		vectors[d.Index] = Normalize(d.Embedding)
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("embedding response missing vector for index %d", i)
		}
	}
	return vectors, nil
}

// Normalize scales a vector to unit L2 norm. Zero vectors are returned
// unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
