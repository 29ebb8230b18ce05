package llm

import "context"

type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
)

type CompletionRequest struct {
	Prompt      string
	System      string
	Provider    Provider
	Model       string
	Temperature float64
	MaxTokens   int
}

// ILLMService routes completion requests to the configured provider.
type ILLMService interface {
	GetCompletion(ctx context.Context, req CompletionRequest) (string, error)
}

// IProvider is implemented by each LLM backend.
type IProvider interface {
	Name() Provider
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
