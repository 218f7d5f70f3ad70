package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// vllmProvider targets a self-hosted vLLM server. vLLM speaks the OpenAI
// dialect; the difference is the startup health check, which fails fast
// when the server is unreachable instead of discovering it on the first
// query.
type vllmProvider struct {
	base openAICompatClient
}

// NewVLLM creates a backend for a vLLM server and verifies it is
// reachable.
func NewVLLM(cfg Config) (VisionProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	p := &vllmProvider{base: newOpenAICompatClient(cfg)}
	if err := p.healthCheck(); err != nil {
		return nil, err
	}
	return p, nil
}

// healthCheck probes /health first (vLLM native), then /v1/models (any
// OpenAI-compatible server).
func (p *vllmProvider) healthCheck() error {
	client := &http.Client{Timeout: 5 * time.Second}

	for _, path := range []string{"/health", "/v1/models"} {
		req, err := http.NewRequest("GET", p.base.cfg.BaseURL+path, nil)
		if err != nil {
			return err
		}
		if p.base.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.base.cfg.APIKey)
		}
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 500 {
			return nil
		}
	}
	return fmt.Errorf("vllm server at %s is not reachable", p.base.cfg.BaseURL)
}

func (p *vllmProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	return p.base.generate(ctx, messages)
}

func (p *vllmProvider) GenerateVision(ctx context.Context, prompt string, images []ImageInput) (string, error) {
	return p.base.generateVision(ctx, prompt, images)
}
