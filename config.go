package dalil

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the engine. Zero values are filled in by
// DefaultConfig / applyDefaults, so callers may set only what they need.
type Config struct {
	// Qdrant connection.
	Qdrant QdrantConfig `json:"qdrant" yaml:"qdrant"`

	// Embedding backend (OpenAI-compatible /v1/embeddings or Gemini).
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`

	// Reranker backend (TEI-style /rerank). Empty BaseURL disables it.
	Rerank RerankConfig `json:"rerank" yaml:"rerank"`

	// Generation backend.
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// Vision backend for image extraction. Empty provider disables it.
	Vision LLMConfig `json:"vision" yaml:"vision"`

	// Document collection and retrieval widths.
	Collection string `json:"collection" yaml:"collection"`
	TopK       int    `json:"top_k" yaml:"top_k"`
	TopN       int    `json:"top_n" yaml:"top_n"`

	// Chunking.
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// Conversation memory.
	MemoryCollection string        `json:"memory_collection" yaml:"memory_collection"`
	MaxHistory       int           `json:"max_history" yaml:"max_history"`
	MemoryTTL        time.Duration `json:"memory_ttl" yaml:"memory_ttl"`

	// Ingestion limits.
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`
	// SkipDuplicates drops files whose content hash already exists in the
	// collection instead of ingesting them again.
	SkipDuplicates bool `json:"skip_duplicates" yaml:"skip_duplicates"`
}

// QdrantConfig mirrors store.QdrantConfig at the configuration surface.
type QdrantConfig struct {
	Host   string `json:"host" yaml:"host"`
	Port   int    `json:"port" yaml:"port"`
	APIKey string `json:"api_key" yaml:"api_key"`
	UseTLS bool   `json:"use_tls" yaml:"use_tls"`
}

// EmbeddingConfig selects and tunes the embedding backend.
type EmbeddingConfig struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
	Dim      int    `json:"dim" yaml:"dim"`
}

// RerankConfig selects the reranker backend.
type RerankConfig struct {
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url" yaml:"base_url"`
	APIKey  string `json:"api_key" yaml:"api_key"`
}

// LLMConfig selects a chat-completion backend.
type LLMConfig struct {
	Provider         string  `json:"provider" yaml:"provider"`
	Model            string  `json:"model" yaml:"model"`
	BaseURL          string  `json:"base_url" yaml:"base_url"`
	APIKey           string  `json:"api_key" yaml:"api_key"`
	Temperature      float64 `json:"temperature" yaml:"temperature"`
	MaxTokens        int     `json:"max_tokens" yaml:"max_tokens"`
	MaxContextTokens int     `json:"max_context_tokens" yaml:"max_context_tokens"`
}

// DefaultConfig returns a configuration for a local stack: Qdrant on
// localhost, a vLLM generator, and local embedding/rerank servers.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Qdrant.Host == "" {
		c.Qdrant.Host = "localhost"
	}
	if c.Qdrant.Port == 0 {
		c.Qdrant.Port = 6334
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "local"
	}
	if c.Embedding.BaseURL == "" && c.Embedding.Provider == "local" {
		c.Embedding.BaseURL = "http://localhost:8001"
	}
	if c.Embedding.Dim == 0 {
		c.Embedding.Dim = 768
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "vllm"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.Collection == "" {
		c.Collection = "arabic_documents"
	}
	if c.TopK == 0 {
		c.TopK = 15
	}
	if c.TopN == 0 {
		c.TopN = 5
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 350
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 100
	}
	if c.MemoryCollection == "" {
		c.MemoryCollection = "conversation_memory"
	}
	if c.MaxHistory == 0 {
		c.MaxHistory = 10
	}
	if c.MemoryTTL == 0 {
		c.MemoryTTL = 24 * time.Hour
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 26_214_400 // 25 MiB
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Embedding.Dim <= 0 {
		return fmt.Errorf("%w: embedding dim must be positive", ErrInvalidConfig)
	}
	if c.TopN > c.TopK {
		return fmt.Errorf("%w: top_n %d exceeds top_k %d", ErrInvalidConfig, c.TopN, c.TopK)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be below chunk size %d", ErrInvalidConfig, c.ChunkOverlap, c.ChunkSize)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: max file size must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads a YAML config file, layers DALIL_* environment
// variables on top, and fills defaults. path may be empty.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides fields from DALIL_* environment variables so
// deployments can keep secrets out of the config file.
func (c *Config) applyEnv() {
	setString(&c.Qdrant.Host, "DALIL_QDRANT_HOST")
	setInt(&c.Qdrant.Port, "DALIL_QDRANT_PORT")
	setString(&c.Qdrant.APIKey, "DALIL_QDRANT_API_KEY")
	setBool(&c.Qdrant.UseTLS, "DALIL_QDRANT_TLS")

	setString(&c.Embedding.Provider, "DALIL_EMBEDDING_PROVIDER")
	setString(&c.Embedding.Model, "DALIL_EMBEDDING_MODEL")
	setString(&c.Embedding.BaseURL, "DALIL_EMBEDDING_URL")
	setString(&c.Embedding.APIKey, "DALIL_EMBEDDING_API_KEY")
	setInt(&c.Embedding.Dim, "DALIL_EMBEDDING_DIM")

	setString(&c.Rerank.Model, "DALIL_RERANK_MODEL")
	setString(&c.Rerank.BaseURL, "DALIL_RERANK_URL")
	setString(&c.Rerank.APIKey, "DALIL_RERANK_API_KEY")

	setString(&c.LLM.Provider, "DALIL_LLM_PROVIDER")
	setString(&c.LLM.Model, "DALIL_LLM_MODEL")
	setString(&c.LLM.BaseURL, "DALIL_LLM_URL")
	setString(&c.LLM.APIKey, "DALIL_LLM_API_KEY")

	setString(&c.Vision.Provider, "DALIL_VISION_PROVIDER")
	setString(&c.Vision.Model, "DALIL_VISION_MODEL")
	setString(&c.Vision.BaseURL, "DALIL_VISION_URL")
	setString(&c.Vision.APIKey, "DALIL_VISION_API_KEY")

	setString(&c.Collection, "DALIL_COLLECTION")
	setString(&c.MemoryCollection, "DALIL_MEMORY_COLLECTION")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
