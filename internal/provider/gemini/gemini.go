// Package gemini implements the provider contract on top of the Google
// Gemini API.
package gemini

import (
	"context"
	"sync"
	"time"

	"github.com/voidlock/tether/internal/provider"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client    Client
	mu        sync.RWMutex
	modelName string
}

// New creates a new GeminiProvider with the specified client and model.
func New(client Client, modelName string) *GeminiProvider {
	return &GeminiProvider{
		client:    client,
		modelName: modelName,
	}
}

// Generate sends a request to the Gemini API and returns the response.
func (p *GeminiProvider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	p.mu.RLock()
	model := p.modelName
	p.mu.RUnlock()

	contents := toGeminiContents(req.Prompt, req.History)
	config := toGeminiConfig(req.SystemInstruction)
	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}

	start := time.Now()
	resp, err := p.client.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	out, err := fromGeminiResponse(resp, model)
	if out != nil {
		out.Metadata.LatencyMs = time.Since(start).Milliseconds()
	}
	return out, err
}

// GetModel returns the currently active model name.
func (p *GeminiProvider) GetModel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modelName
}
