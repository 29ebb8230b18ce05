package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-ravena/core/config"
	domainLLM "github.com/AzielCF/az-ravena/domains/llm"
	"github.com/AzielCF/az-ravena/pkg/botmonitor"
	"github.com/sirupsen/logrus"
)

// Service routes completion requests to a provider, falling back to the
// configured default when the requested one is unknown.
type Service struct {
	providers   map[domainLLM.Provider]domainLLM.IProvider
	fallback    domainLLM.Provider
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

func NewService(fallback domainLLM.Provider, temperature float64, maxTokens int, timeout time.Duration, providers ...domainLLM.IProvider) *Service {
	s := &Service{
		providers:   make(map[domainLLM.Provider]domainLLM.IProvider, len(providers)),
		fallback:    fallback,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
	}
	for _, p := range providers {
		s.providers[p.Name()] = p
	}
	return s
}

// NewServiceFromConfig registers every provider the configuration knows about.
func NewServiceFromConfig(cfg config.LLMConfig) *Service {
	return NewService(
		domainLLM.Provider(cfg.Provider),
		cfg.Temperature,
		cfg.MaxTokens,
		cfg.Timeout,
		NewOpenAIProvider(domainLLM.ProviderOpenRouter, cfg.OpenRouterAPIKey, cfg.OpenRouterURL, cfg.OpenRouterModel),
		NewOpenAIProvider(domainLLM.ProviderOpenAI, cfg.OpenAIAPIKey, "", cfg.OpenAIModel),
		NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel),
	)
}

func (s *Service) GetCompletion(ctx context.Context, req domainLLM.CompletionRequest) (string, error) {
	name := req.Provider
	if name == "" {
		name = s.fallback
	}
	provider, ok := s.providers[name]
	if !ok {
		provider, ok = s.providers[s.fallback]
		if !ok {
			return "", fmt.Errorf("llm provider %q not available", name)
		}
	}

	if req.Temperature == 0 {
		req.Temperature = s.temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = s.maxTokens
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	botmonitor.Record(botmonitor.Event{Stage: botmonitor.StageLLMRequest, Kind: string(provider.Name()), Status: botmonitor.StatusOK})
	start := time.Now()
	text, err := provider.Complete(ctx, req)
	event := botmonitor.Event{
		Stage:      botmonitor.StageLLMResponse,
		Kind:       string(provider.Name()),
		Status:     botmonitor.StatusOK,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		event.Status = botmonitor.StatusError
		event.Error = err.Error()
		botmonitor.Record(event)
		logrus.WithError(err).WithField("provider", provider.Name()).Error("[LLM] Completion failed")
		return "", err
	}
	botmonitor.Record(event)
	return text, nil
}
