// Package dalil is an Arabic-first retrieval-augmented query engine. It
// normalizes Arabic text, routes queries to the cheapest capable path,
// retrieves passages with dense search plus reranking over Qdrant, and
// generates answers in Egyptian colloquial Arabic.
package dalil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dalilchat/dalil/embed"
	"github.com/dalilchat/dalil/extract"
	"github.com/dalilchat/dalil/llm"
	"github.com/dalilchat/dalil/memory"
	"github.com/dalilchat/dalil/rerank"
	"github.com/dalilchat/dalil/retrieval"
	"github.com/dalilchat/dalil/router"
	"github.com/dalilchat/dalil/store"
)

// Source is one passage backing an answer.
type Source struct {
	Content  string         `json:"content"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// QueryResult is the answer to one query.
type QueryResult struct {
	Answer           string   `json:"answer"`
	Sources          []Source `json:"sources,omitempty"`
	QueryType        string   `json:"query_type"`
	SessionID        string   `json:"session_id"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
	Reranked         bool     `json:"reranked"`
}

// IngestResult reports what one ingestion call stored.
type IngestResult struct {
	DocumentID string   `json:"document_id"`
	Name       string   `json:"name"`
	Format     string   `json:"format"`
	Chunks     int      `json:"chunks"`
	Skipped    bool     `json:"skipped,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// FileResult is the per-file outcome of a batch ingestion.
type FileResult struct {
	Name   string        `json:"name"`
	Result *IngestResult `json:"result,omitempty"`
	Err    error         `json:"-"`
	Error  string        `json:"error,omitempty"`
}

// CollectionStats describes the document collection.
type CollectionStats struct {
	Name     string `json:"name"`
	Points   uint64 `json:"points"`
	Dim      int    `json:"dim"`
	Distance string `json:"distance"`
}

// Engine is the query and ingestion surface.
type Engine interface {
	// Query answers one user turn. An empty sessionID mints a new session.
	Query(ctx context.Context, sessionID, text string, opts ...QueryOption) (*QueryResult, error)

	// IngestTexts chunks, embeds, and stores raw texts.
	IngestTexts(ctx context.Context, name string, texts []string, opts ...IngestOption) (*IngestResult, error)

	// IngestFile extracts, chunks, embeds, and stores one file.
	IngestFile(ctx context.Context, name string, data []byte, declaredMIME string, opts ...IngestOption) (*IngestResult, error)

	// IngestFiles ingests several files, isolating per-file failures. The
	// options apply to every file in the batch.
	IngestFiles(ctx context.Context, files []File, opts ...IngestOption) []FileResult

	// History returns a session's recent turns, oldest first.
	History(ctx context.Context, sessionID string, n int) ([]memory.Message, error)

	// ClearHistory deletes a session's turns, returning the count.
	ClearHistory(ctx context.Context, sessionID string) (int, error)

	// SweepMemory deletes expired turns across all sessions.
	SweepMemory(ctx context.Context) (int, error)

	// CollectionInfo reports document collection statistics.
	CollectionInfo(ctx context.Context) (*CollectionStats, error)

	// ClearDocuments drops and recreates the document collection.
	ClearDocuments(ctx context.Context) error

	// Close releases backend connections.
	Close() error
}

// File is one upload for batch ingestion.
type File struct {
	Name string
	MIME string
	Data []byte
}

const generateTimeout = 60 * time.Second

type engine struct {
	cfg       Config
	store     store.Store
	embedder  embed.Embedder
	retriever *retrieval.Engine
	memory    *memory.Memory
	generator llm.Provider
	vision    llm.VisionProvider
	router    *router.Router
	extractor *extract.Registry
	log       *slog.Logger
}

// Capabilities lets tests and embedders supply ready-made backends
// instead of the ones New dials from configuration. Nil fields fall back
// to configuration-driven construction where possible.
type Capabilities struct {
	Store     store.Store
	Embedder  embed.Embedder
	Reranker  rerank.Reranker
	Generator llm.Provider
	Vision    llm.VisionProvider
}

// New builds an engine from configuration, dialing Qdrant and the model
// backends.
func New(ctx context.Context, cfg Config) (Engine, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := store.NewQdrant(store.QdrantConfig{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant: %v", ErrBackendUnavailable, err)
	}

	caps := Capabilities{Store: st}

	caps.Embedder, err = embed.New(embed.Config{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
		Dim:      cfg.Embedding.Dim,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("%w: embedder: %v", ErrInvalidConfig, err)
	}

	if cfg.Rerank.BaseURL != "" {
		caps.Reranker, err = rerank.New(rerank.Config{
			Model:   cfg.Rerank.Model,
			BaseURL: cfg.Rerank.BaseURL,
			APIKey:  cfg.Rerank.APIKey,
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("%w: reranker: %v", ErrInvalidConfig, err)
		}
	}

	caps.Generator, err = llm.NewProvider(llmConfig(cfg.LLM))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("%w: generator: %v", ErrBackendUnavailable, err)
	}

	if cfg.Vision.Provider != "" {
		vp, err := llm.NewProvider(llmConfig(cfg.Vision))
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("%w: vision: %v", ErrBackendUnavailable, err)
		}
		if v, ok := vp.(llm.VisionProvider); ok {
			caps.Vision = v
		}
	}

	return NewWithCapabilities(ctx, cfg, caps)
}

// NewWithCapabilities builds an engine on top of supplied backends. Store,
// Embedder, and Generator are required; Reranker and Vision are optional.
func NewWithCapabilities(ctx context.Context, cfg Config, caps Capabilities) (Engine, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if caps.Store == nil || caps.Embedder == nil || caps.Generator == nil {
		return nil, fmt.Errorf("%w: store, embedder, and generator are required", ErrInvalidConfig)
	}

	if err := caps.Store.EnsureCollection(ctx, cfg.Collection, cfg.Embedding.Dim); err != nil {
		return nil, fmt.Errorf("%w: ensuring collection %s: %v", ErrBackendUnavailable, cfg.Collection, err)
	}

	mem, err := memory.New(ctx, caps.Store, memory.Config{
		Collection: cfg.MemoryCollection,
		Dim:        cfg.Embedding.Dim,
		MaxHistory: cfg.MaxHistory,
		TTL:        cfg.MemoryTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: memory: %v", ErrBackendUnavailable, err)
	}

	registry := extract.NewRegistry()
	if caps.Vision != nil {
		registry.SetVision(extract.NewImageExtractor(caps.Vision, ""))
	}

	return &engine{
		cfg:      cfg,
		store:    caps.Store,
		embedder: caps.Embedder,
		retriever: retrieval.New(caps.Store, caps.Embedder, caps.Reranker, retrieval.Config{
			Collection: cfg.Collection,
			TopK:       cfg.TopK,
			TopN:       cfg.TopN,
		}),
		memory:    mem,
		generator: caps.Generator,
		vision:    caps.Vision,
		router:    router.New(router.Config{}),
		extractor: registry,
		log:       slog.Default(),
	}, nil
}

func llmConfig(c LLMConfig) llm.Config {
	return llm.Config{
		Provider:         c.Provider,
		Model:            c.Model,
		BaseURL:          c.BaseURL,
		APIKey:           c.APIKey,
		Temperature:      c.Temperature,
		MaxTokens:        c.MaxTokens,
		MaxContextTokens: c.MaxContextTokens,
	}
}

func (e *engine) History(ctx context.Context, sessionID string, n int) ([]memory.Message, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	return e.memory.History(ctx, sessionID, n)
}

func (e *engine) ClearHistory(ctx context.Context, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	return e.memory.Clear(ctx, sessionID)
}

func (e *engine) SweepMemory(ctx context.Context) (int, error) {
	return e.memory.Sweep(ctx)
}

func (e *engine) CollectionInfo(ctx context.Context) (*CollectionStats, error) {
	info, err := e.store.Info(ctx, e.cfg.Collection)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: collection %s", ErrNotFound, e.cfg.Collection)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: collection info: %v", ErrBackendUnavailable, err)
	}
	return &CollectionStats{
		Name:     e.cfg.Collection,
		Points:   info.Points,
		Dim:      int(info.Dim),
		Distance: info.Distance,
	}, nil
}

func (e *engine) ClearDocuments(ctx context.Context) error {
	if err := e.store.Drop(ctx, e.cfg.Collection); err != nil {
		return fmt.Errorf("%w: dropping collection: %v", ErrBackendUnavailable, err)
	}
	if err := e.store.EnsureCollection(ctx, e.cfg.Collection, e.cfg.Embedding.Dim); err != nil {
		return fmt.Errorf("%w: recreating collection: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (e *engine) Close() error {
	return e.store.Close()
}
