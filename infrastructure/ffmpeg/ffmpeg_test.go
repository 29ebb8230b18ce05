package ffmpeg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	assert.Equal(t, []string{"-y", "-i", "in.ogg", "-ar", "16000", "-ac", "1", "out.wav"}, WAVArgs("in.ogg", "out.wav"))
	assert.Contains(t, MP3Args("a", "b"), "libmp3lame")
	assert.Equal(t, []string{"-y", "-i", "a", "-acodec", "libopus", "-b:a", "128k", "-vn", "b.ogg"}, VoiceArgs("a", "b.ogg"))
	assert.Equal(t, []string{"-y", "-i", "a", "-af", "volume=2.5", "b"}, VolumeArgs("a", "b", 250))
	assert.Equal(t, "volume=0", VolumeArgs("a", "b", 0)[4])
	assert.Equal(t, "volume=10", VolumeArgs("a", "b", 1000)[4])
}

func TestConverter_UsesConfiguredBinary(t *testing.T) {
	var gotBin string
	var gotArgs []string
	c := NewConverter("/opt/ffmpeg")
	c.run = func(ctx context.Context, bin string, args ...string) ([]byte, error) {
		gotBin, gotArgs = bin, args
		return nil, nil
	}

	require.NoError(t, c.ToMP3(context.Background(), "in", "out.mp3"))
	assert.Equal(t, "/opt/ffmpeg", gotBin)
	assert.Equal(t, MP3Args("in", "out.mp3"), gotArgs)
}

func TestConverter_WrapsFailures(t *testing.T) {
	c := NewConverter("")
	c.run = func(ctx context.Context, bin string, args ...string) ([]byte, error) {
		return []byte("line1\nInvalid data found"), errors.New("exit status 1")
	}

	err := c.ToVoice(context.Background(), "in", "out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voice")
}

func TestConverter_RejectsOutOfRangeVolume(t *testing.T) {
	c := NewConverter("")
	c.run = func(ctx context.Context, bin string, args ...string) ([]byte, error) {
		t.Fatal("ffmpeg must not run")
		return nil, nil
	}

	assert.Error(t, c.AdjustVolume(context.Background(), "in", "out", 1001))
	assert.Error(t, c.AdjustVolume(context.Background(), "in", "out", -1))
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c\nd", lastLines("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a", lastLines("a", 3))
}
