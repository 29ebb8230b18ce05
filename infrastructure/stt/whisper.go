package stt

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

type runner func(ctx context.Context, bin string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, bin string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, bin, args...).CombinedOutput()
}

// WhisperTranscriber runs the whisper CLI and reads the txt file it leaves
// next to the input.
type WhisperTranscriber struct {
	bin      string
	model    string
	language string
	run      runner
}

func NewWhisperTranscriber(bin, model, language string) *WhisperTranscriber {
	if bin == "" {
		bin = "whisper"
	}
	if model == "" {
		model = "large-v3-turbo"
	}
	if language == "" {
		language = "pt"
	}
	return &WhisperTranscriber{bin: bin, model: model, language: language, run: execRunner}
}

func (w *WhisperTranscriber) Args(wavPath string) []string {
	return []string{
		wavPath,
		"--model", w.model,
		"--language", w.language,
		"--output_dir", filepath.Dir(wavPath),
		"--output_format", "txt",
	}
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	logrus.Debugf("[SPEECH] Running %s on %s", w.bin, wavPath)
	if out, err := w.run(ctx, w.bin, w.Args(wavPath)...); err != nil {
		logrus.WithError(err).WithField("output", string(out)).Error("[SPEECH] whisper failed")
		return "", fmt.Errorf("whisper failed: %w", err)
	}

	txtPath := strings.TrimSuffix(wavPath, filepath.Ext(wavPath)) + ".txt"
	defer os.Remove(txtPath)

	data, err := os.ReadFile(txtPath)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
