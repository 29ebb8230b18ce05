package stt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhisperTranscriber_Args(t *testing.T) {
	w := NewWhisperTranscriber("", "", "")
	args := w.Args("/tmp/x/audio.wav")

	assert.Equal(t, []string{
		"/tmp/x/audio.wav",
		"--model", "large-v3-turbo",
		"--language", "pt",
		"--output_dir", "/tmp/x",
		"--output_format", "txt",
	}, args)
}

func TestWhisperTranscriber_ReadsOutputFile(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "audio.wav")

	w := NewWhisperTranscriber("whisper", "base", "pt")
	w.run = func(ctx context.Context, bin string, args ...string) ([]byte, error) {
		assert.Equal(t, "whisper", bin)
		return nil, os.WriteFile(filepath.Join(dir, "audio.txt"), []byte("  bom dia pessoal\n"), 0o644)
	}

	text, err := w.Transcribe(context.Background(), wav)
	require.NoError(t, err)
	assert.Equal(t, "bom dia pessoal", text)

	_, statErr := os.Stat(filepath.Join(dir, "audio.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWhisperTranscriber_Failure(t *testing.T) {
	w := NewWhisperTranscriber("whisper", "", "")
	w.run = func(ctx context.Context, bin string, args ...string) ([]byte, error) {
		return []byte("boom"), errors.New("exit status 1")
	}

	_, err := w.Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"))
	assert.Error(t, err)
}

func TestGeminiTranscriber_RequiresKey(t *testing.T) {
	_, err := NewGeminiTranscriber("", "").Transcribe(context.Background(), "x.wav")
	assert.Error(t, err)
}
