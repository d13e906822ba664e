package factory

import (
	"fmt"

	"medicore-triage-be/pkg/llm"
	"medicore-triage-be/pkg/llm/huggingface"
	"medicore-triage-be/pkg/llm/ollama"
	"medicore-triage-be/pkg/llm/openai"
)

// NewLLMProvider builds the configured generation backend. apiKey is unused
// for local providers.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	case "openai":
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
