package llm

import "context"

// geminiProvider targets Google's Gemini API through its OpenAI-compatible
// endpoint. Gemini uses a different path prefix than standard OpenAI
// providers (no /v1).
//
// API key: set via config or GEMINI_API_KEY env var (resolved in cmd/).
type geminiProvider struct {
	base openAICompatClient
}

// NewGemini creates a backend for Google Gemini.
func NewGemini(cfg Config) VisionProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	return &geminiProvider{base: newOpenAICompatClientPrefix(cfg, "")}
}

func (p *geminiProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	return p.base.generate(ctx, messages)
}

func (p *geminiProvider) GenerateVision(ctx context.Context, prompt string, images []ImageInput) (string, error) {
	return p.base.generateVision(ctx, prompt, images)
}
