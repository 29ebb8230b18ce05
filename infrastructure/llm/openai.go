package llm

import (
	"context"
	"fmt"
	"strings"

	domainLLM "github.com/AzielCF/az-ravena/domains/llm"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider serves any OpenAI compatible endpoint. OpenRouter is the
// same provider with a different base URL.
type OpenAIProvider struct {
	name    domainLLM.Provider
	apiKey  string
	baseURL string
	model   string
}

func NewOpenAIProvider(name domainLLM.Provider, apiKey, baseURL, model string) *OpenAIProvider {
	return &OpenAIProvider{name: name, apiKey: apiKey, baseURL: baseURL, model: model}
}

func (p *OpenAIProvider) Name() domainLLM.Provider {
	return p.name
}

func (p *OpenAIProvider) Complete(ctx context.Context, req domainLLM.CompletionRequest) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("%s api key not configured", p.name)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(p.apiKey),
		option.WithMaxRetries(1),
	}
	if p.baseURL != "" {
		opts = append(opts, option.WithBaseURL(p.baseURL))
	}
	client := openai.NewClient(opts...)

	model := req.Model
	if model == "" {
		model = p.model
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", p.name)
	}

	logrus.WithFields(logrus.Fields{
		"provider":      p.name,
		"model":         model,
		"input_tokens":  completion.Usage.PromptTokens,
		"output_tokens": completion.Usage.CompletionTokens,
	}).Debug("[LLM] Completion finished")

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
