package llm

import (
	"context"
	"fmt"
	"strings"

	domainLLM "github.com/AzielCF/az-ravena/domains/llm"
	"google.golang.org/genai"
)

type GeminiProvider struct {
	apiKey string
	model  string
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey, model: model}
}

func (p *GeminiProvider) Name() domainLLM.Provider {
	return domainLLM.ProviderGemini
}

func (p *GeminiProvider) Complete(ctx context.Context, req domainLLM.CompletionRequest) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("gemini api key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	genConfig := &genai.GenerateContentConfig{}
	if strings.TrimSpace(req.System) != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		genConfig.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: req.Prompt}},
	}}

	result, err := client.Models.GenerateContent(ctx, model, contents, genConfig)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", fmt.Errorf("no response from gemini")
	}
	return strings.TrimSpace(result.Text()), nil
}
