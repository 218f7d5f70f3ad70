// Package llm wraps the generation backends behind a single Provider
// interface. All supported backends speak the OpenAI chat-completions
// dialect; they differ only in base URL, path prefix, and startup checks.
package llm

import (
	"context"
	"fmt"
)

// Message is a chat turn.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ImageInput is an image passed to a vision model.
type ImageInput struct {
	MIME string
	Data []byte
}

// Provider generates a completion for a conversation.
type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// VisionProvider extends Provider with image understanding.
type VisionProvider interface {
	Provider
	GenerateVision(ctx context.Context, prompt string, images []ImageInput) (string, error)
}

// Config configures a backend.
type Config struct {
	Provider    string  `json:"provider" yaml:"provider"` // vllm, openai, gemini, openrouter, lmstudio, custom
	Model       string  `json:"model" yaml:"model"`
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	APIKey      string  `json:"api_key" yaml:"api_key"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`

	// MaxContextTokens bounds the prompt size; oldest non-system messages
	// are dropped until the estimate fits. Zero disables the guard.
	MaxContextTokens int `json:"max_context_tokens" yaml:"max_context_tokens"`
}

// NewProvider creates a backend from configuration. The vllm backend
// verifies reachability at construction and fails fast when the server
// is down.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "vllm":
		return NewVLLM(cfg)
	case "openai":
		return NewOpenAI(cfg), nil
	case "gemini":
		return NewGemini(cfg), nil
	case "openrouter":
		return NewOpenRouter(cfg), nil
	case "lmstudio":
		return NewLMStudio(cfg), nil
	case "custom":
		return NewOpenAICompat(cfg), nil
	case "":
		return nil, fmt.Errorf("llm provider not specified")
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
