package llm

import "context"

// openRouterProvider routes requests through OpenRouter's unified API.
type openRouterProvider struct {
	base openAICompatClient
}

// NewOpenRouter creates a backend for OpenRouter.
func NewOpenRouter(cfg Config) VisionProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api"
	}
	return &openRouterProvider{base: newOpenAICompatClient(cfg)}
}

func (p *openRouterProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	return p.base.generate(ctx, messages)
}

func (p *openRouterProvider) GenerateVision(ctx context.Context, prompt string, images []ImageInput) (string, error) {
	return p.base.generateVision(ctx, prompt, images)
}
