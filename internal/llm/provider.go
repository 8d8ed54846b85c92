package llm

import (
	"context"

	"github.com/voxprep/voxprep/internal/config"
)

// Provider is the interface the generation pipelines depend on. The hosted
// model behind it is a black box that turns a prompt into text.
type Provider interface {
	// GenerateText sends a prompt (and an optional system instruction) to the
	// model and returns the raw response text.
	GenerateText(ctx context.Context, prompt, system string) (string, error)
	GetProviderName() string
}

// ProviderError represents an error from an LLM provider.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Common error codes shared across providers.
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)

// ProviderFactory creates a new provider instance from configuration.
type ProviderFactory func(cfg config.LLMConfig) (Provider, error)

// global registry of available providers
var providers = make(map[string]ProviderFactory)

// RegisterProvider registers a provider factory with the given name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates a provider instance based on cfg.Provider.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	factory, exists := providers[cfg.Provider]
	if !exists {
		return nil, &ProviderError{Provider: cfg.Provider, Code: ErrCodeInvalidInput, Message: "unsupported provider"}
	}
	return factory(cfg)
}
