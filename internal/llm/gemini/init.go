package gemini

import (
	"github.com/voxprep/voxprep/internal/config"
	"github.com/voxprep/voxprep/internal/llm"
)

// Register Gemini provider on package import
func init() {
	llm.RegisterProvider("gemini", func(cfg config.LLMConfig) (llm.Provider, error) {
		return NewClient(cfg.Gemini)
	})
}
