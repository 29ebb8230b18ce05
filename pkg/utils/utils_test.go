package utils

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserJID(t *testing.T) {
	assert.Equal(t, "5511999990000@s.whatsapp.net", UserJID("+55 (11) 99999-0000"))
	assert.Equal(t, "123@g.us", UserJID("123@g.us"))
	assert.Equal(t, "", UserJID("abc"))
}

func TestUserPartAndSameUser(t *testing.T) {
	assert.Equal(t, "5511999990000", UserPart("5511999990000:23@s.whatsapp.net"))
	assert.True(t, SameUser("5511999990000:23@s.whatsapp.net", "5511999990000@s.whatsapp.net"))
	assert.False(t, SameUser("", ""))
}

func TestDefaultGroupName(t *testing.T) {
	assert.Equal(t, "120363041234567", DefaultGroupName("120363041234567@g.us"))
	assert.Equal(t, "abcdefghijklmnop", DefaultGroupName("ABC DEF GHI JKL MNOP QRS@g.us"))
}

func TestMultilineItalic(t *testing.T) {
	got := MultilineItalic("primeira linha\n\n  segunda linha  \n")
	assert.Equal(t, "_primeira linha_\n\n_segunda linha_", got)
}

func TestReplacePlaceholders(t *testing.T) {
	got := ReplacePlaceholders("Bem-vindo {pessoa} ao {grupo}! {pessoa}", map[string]string{"pessoa": "Ana", "grupo": "Clube"})
	assert.Equal(t, "Bem-vindo Ana ao Clube! Ana", got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7))
}

func TestToggleString(t *testing.T) {
	list, added := ToggleString([]string{"a", "b"}, "c")
	assert.True(t, added)
	assert.Equal(t, []string{"a", "b", "c"}, list)

	list, added = ToggleString(list, "B")
	assert.False(t, added)
	assert.Equal(t, []string{"a", "c"}, list)
}

func TestTempPath(t *testing.T) {
	dir := t.TempDir()
	p := TempPath(dir, "tts", ".wav")
	assert.Equal(t, dir, filepath.Dir(p))
	assert.True(t, strings.HasPrefix(filepath.Base(p), "tts-"))
	assert.True(t, strings.HasSuffix(p, ".wav"))
	assert.NotEqual(t, p, TempPath(dir, "tts", "wav"))
}
