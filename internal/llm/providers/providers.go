// Package providers registers the built-in reasoning backends with the llm registry.
package providers

import (
	"labassist/internal/config"
	"labassist/internal/llm"
	"labassist/internal/llm/claude"
	"labassist/internal/llm/gemini"
	"labassist/internal/llm/ollama"
	"labassist/internal/llm/openai"
	"labassist/internal/port"
)

// Register adds the gemini, claude, openai and ollama factories.
func Register() {
	llm.RegisterProvider("gemini", func(cfg *config.ProviderConfig) (port.ReasoningBackend, error) {
		return gemini.NewBackend(cfg), nil
	})
	llm.RegisterProvider("claude", func(cfg *config.ProviderConfig) (port.ReasoningBackend, error) {
		return claude.NewBackend(cfg), nil
	})
	llm.RegisterProvider("openai", func(cfg *config.ProviderConfig) (port.ReasoningBackend, error) {
		return openai.NewBackend(cfg), nil
	})
	llm.RegisterProvider("ollama", func(cfg *config.ProviderConfig) (port.ReasoningBackend, error) {
		return ollama.NewBackend(cfg), nil
	})
}
