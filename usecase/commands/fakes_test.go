package commands

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/command"
	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/llm"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/infrastructure/storage/jsonstore"
	"github.com/stretchr/testify/require"
)

const groupID = "120363000000000001@g.us"

func newStore(t *testing.T) *jsonstore.Store {
	t.Helper()
	store, err := jsonstore.New(t.TempDir())
	require.NoError(t, err)
	return store
}

// run finds name in cmds and calls it the way the handler would, without
// the constraint checks.
func run(t *testing.T, cmds []*command.Command, name string, b domainBot.IBot, msg *message.Message, g *group.Group) []message.ReturnMessage {
	t.Helper()
	for _, c := range cmds {
		for _, n := range c.Names() {
			if n != strings.ToLower(name) {
				continue
			}
			fields := strings.Fields(msg.Text())
			var args []string
			if len(fields) > 1 {
				args = fields[1:]
			}
			req := command.NewRequest(b, msg, g, n, args)
			out, err := c.Method(context.Background(), req)
			require.NoError(t, err)
			return out
		}
	}
	t.Fatalf("command %s not registered", name)
	return nil
}

func texts(out []message.ReturnMessage) []string {
	res := make([]string, 0, len(out))
	for _, m := range out {
		res = append(res, m.Content.Text)
	}
	return res
}

type fakeConverter struct {
	mu     sync.Mutex
	calls  []string
	levels []int
	err    error
}

func (f *fakeConverter) write(kind, in, out string) error {
	f.mu.Lock()
	f.calls = append(f.calls, kind)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	return os.WriteFile(out, append([]byte(kind+":"), data...), 0644)
}

func (f *fakeConverter) ToWAV(_ context.Context, in, out string) error {
	return f.write("wav", in, out)
}
func (f *fakeConverter) ToMP3(_ context.Context, in, out string) error {
	return f.write("mp3", in, out)
}
func (f *fakeConverter) ToVoice(_ context.Context, in, out string) error {
	return f.write("voice", in, out)
}
func (f *fakeConverter) AdjustVolume(_ context.Context, in, out string, level int) error {
	f.mu.Lock()
	f.levels = append(f.levels, level)
	f.mu.Unlock()
	return f.write("volume", in, out)
}

type fakeTTS struct {
	voices []string
	texts  []string
	err    error
}

func (f *fakeTTS) Generate(_ context.Context, text, voiceFile string) ([]byte, error) {
	f.voices = append(f.voices, voiceFile)
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("RIFF"), nil
}

type fakeTranscriber struct {
	text string
	err  error
	seen []string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, wavPath string) (string, error) {
	data, _ := os.ReadFile(wavPath)
	f.seen = append(f.seen, string(data))
	return f.text, f.err
}

type fakeLLM struct {
	answer  string
	err     error
	prompts []llm.CompletionRequest
}

func (f *fakeLLM) GetCompletion(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.prompts = append(f.prompts, req)
	return f.answer, f.err
}

type fakeRegistry struct {
	bots      map[string]domainBot.IBot
	restarted []string
	reasons   []string
}

func (f *fakeRegistry) Get(id string) (domainBot.IBot, bool) {
	b, ok := f.bots[id]
	return b, ok
}

func (f *fakeRegistry) List() []domainBot.IBot {
	out := make([]domainBot.IBot, 0, len(f.bots))
	for _, b := range f.bots {
		out = append(out, b)
	}
	return out
}

func (f *fakeRegistry) RestartBot(_ context.Context, id, reason string) error {
	if _, ok := f.bots[id]; !ok {
		return errors.New("unknown bot")
	}
	f.restarted = append(f.restarted, id)
	f.reasons = append(f.reasons, reason)
	return nil
}

type fakeRequests struct{ cleared []string }

func (f *fakeRequests) Clear(code string) { f.cleared = append(f.cleared, code) }
