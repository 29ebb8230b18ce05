package stt

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

const geminiPrompt = "Transcreva literalmente o que é dito neste áudio. Responda APENAS com a transcrição, sem comentários."

// GeminiTranscriber sends the wav inline to a Gemini model.
type GeminiTranscriber struct {
	apiKey string
	model  string
}

func NewGeminiTranscriber(apiKey, model string) *GeminiTranscriber {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiTranscriber{apiKey: apiKey, model: model}
}

func (g *GeminiTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("gemini api key not configured")
	}

	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return "", err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: geminiPrompt},
			{InlineData: &genai.Blob{MIMEType: "audio/wav", Data: audio}},
		},
	}}

	result, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini transcription failed: %w", err)
	}
	if result == nil {
		return "", nil
	}
	return strings.TrimSpace(result.Text()), nil
}
