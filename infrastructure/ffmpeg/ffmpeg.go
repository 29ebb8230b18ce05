package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// runner executes a binary and returns its combined output.
type runner func(ctx context.Context, bin string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, bin string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, bin, args...).CombinedOutput()
}

// Converter shells out to ffmpeg for the audio conversions used by the
// speech and conversion commands.
type Converter struct {
	bin string
	run runner
}

func NewConverter(bin string) *Converter {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Converter{bin: bin, run: execRunner}
}

// Available reports whether the configured binary can be found.
func (c *Converter) Available() bool {
	_, err := exec.LookPath(c.bin)
	return err == nil
}

func WAVArgs(in, out string) []string {
	return []string{"-y", "-i", in, "-ar", "16000", "-ac", "1", out}
}

func MP3Args(in, out string) []string {
	return []string{"-y", "-i", in, "-acodec", "libmp3lame", "-b:a", "128k", out}
}

func VoiceArgs(in, out string) []string {
	return []string{"-y", "-i", in, "-acodec", "libopus", "-b:a", "128k", "-vn", out}
}

// VolumeArgs maps a 0-1000 level onto ffmpeg's volume multiplier (0-10).
func VolumeArgs(in, out string, level int) []string {
	multiplier := strconv.FormatFloat(float64(level)/100, 'f', -1, 64)
	return []string{"-y", "-i", in, "-af", "volume=" + multiplier, out}
}

func (c *Converter) ToWAV(ctx context.Context, in, out string) error {
	return c.exec(ctx, "wav", WAVArgs(in, out))
}

func (c *Converter) ToMP3(ctx context.Context, in, out string) error {
	return c.exec(ctx, "mp3", MP3Args(in, out))
}

func (c *Converter) ToVoice(ctx context.Context, in, out string) error {
	return c.exec(ctx, "voice", VoiceArgs(in, out))
}

func (c *Converter) AdjustVolume(ctx context.Context, in, out string, level int) error {
	if level < 0 || level > 1000 {
		return fmt.Errorf("volume level out of range: %d", level)
	}
	return c.exec(ctx, "volume", VolumeArgs(in, out, level))
}

func (c *Converter) exec(ctx context.Context, kind string, args []string) error {
	output, err := c.run(ctx, c.bin, args...)
	if err != nil {
		logrus.WithError(err).WithField("output", lastLines(string(output), 5)).Errorf("[FFMPEG] %s conversion failed", kind)
		return fmt.Errorf("ffmpeg %s conversion failed: %w", kind, err)
	}
	return nil
}

// lastLines keeps the tail of ffmpeg's output, where the actual error is.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
