package ollama

import (
	"context"

	"github.com/voxprep/voxprep/internal/config"
	"github.com/voxprep/voxprep/internal/llm"
	"github.com/voxprep/voxprep/pkg/ollama"
)

// Provider adapts the Ollama client wrapper to the llm.Provider contract.
// It exists so local development can run against a local model without a
// hosted API key.
type Provider struct {
	client *ollama.Client
	model  string
}

func init() {
	llm.RegisterProvider("ollama", func(cfg config.LLMConfig) (llm.Provider, error) {
		client, err := ollama.NewDefaultClient(cfg.Ollama)
		if err != nil {
			return nil, &llm.ProviderError{
				Provider: "ollama",
				Code:     llm.ErrCodeInvalidInput,
				Message:  "failed to create Ollama client",
				Err:      err,
			}
		}
		return &Provider{client: client, model: cfg.Ollama.Model}, nil
	})
}

func (p *Provider) GenerateText(ctx context.Context, prompt, system string) (string, error) {
	text, err := p.client.Generate(ctx, p.model, prompt, system)
	if err != nil {
		return "", &llm.ProviderError{
			Provider: "ollama",
			Code:     llm.ErrCodeServiceDown,
			Message:  "failed to generate content",
			Err:      err,
		}
	}
	return text, nil
}

func (p *Provider) GetProviderName() string {
	return "ollama"
}
