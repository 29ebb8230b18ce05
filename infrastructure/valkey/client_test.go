package valkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClient_Key(t *testing.T) {
	assert.Equal(t, "ravena:history:1@g.us", (&Client{prefix: "ravena"}).Key("history", "1@g.us"))
	assert.Equal(t, "cooldown:a|b", (&Client{}).Key("cooldown", "a|b"))
}

func TestNewClient_UnreachableServer(t *testing.T) {
	_, err := NewClient(Config{Address: "127.0.0.1:1", ConnectTimeout: 1})
	assert.Error(t, err)
}
