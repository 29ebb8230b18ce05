package speech

import "context"

// ITTSClient synthesizes speech and returns the audio bytes (wav).
type ITTSClient interface {
	Generate(ctx context.Context, text, voiceFile string) ([]byte, error)
}

// ITranscriber turns a 16kHz mono wav file into text.
type ITranscriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// IAudioConverter wraps the ffmpeg invocations the commands need.
type IAudioConverter interface {
	ToWAV(ctx context.Context, in, out string) error
	ToMP3(ctx context.Context, in, out string) error
	ToVoice(ctx context.Context, in, out string) error
	AdjustVolume(ctx context.Context, in, out string, level int) error
}

type NSFWResult struct {
	IsNSFW bool               `json:"isNSFW"`
	Scores map[string]float64 `json:"scores"`
}

type INSFWClassifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) (NSFWResult, error)
}
