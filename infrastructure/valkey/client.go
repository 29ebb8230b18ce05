// Package valkey holds the shared connection used by the distributed
// history, the command cooldowns and the dashboard fan-out.
package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"
)

const connectTimeout = 5 * time.Second

type Config struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	// ConnectTimeout bounds the first ping; zero means five seconds.
	ConnectTimeout time.Duration
}

// Client scopes every key under one prefix so several deployments can share
// a server.
type Client struct {
	inner  valkeylib.Client
	prefix string
}

// NewClient connects and pings the server. Close releases it.
func NewClient(cfg Config) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
		Password:    cfg.Password,
	}
	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	c := &Client{inner: inner, prefix: strings.TrimSuffix(cfg.KeyPrefix, ":")}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = connectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		inner.Close()
		return nil, fmt.Errorf("valkey at %s did not answer within %v: %w", cfg.Address, timeout, err)
	}
	return c, nil
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key joins parts under the prefix: Key("history", "1@g.us") gives
// "ravena:history:1@g.us".
func (c *Client) Key(parts ...string) string {
	if c.prefix == "" {
		return strings.Join(parts, ":")
	}
	return strings.Join(append([]string{c.prefix}, parts...), ":")
}

func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// PushCapped appends value to the list and keeps only the newest max entries.
func (c *Client) PushCapped(ctx context.Context, key, value string, max int) error {
	cmds := valkeylib.Commands{
		c.inner.B().Rpush().Key(key).Element(value).Build(),
		c.inner.B().Ltrim().Key(key).Start(int64(-max)).Stop(-1).Build(),
	}
	for _, resp := range c.inner.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("valkey push %s: %w", key, err)
		}
	}
	return nil
}

// Tail returns up to n entries from the end of a list, oldest first.
func (c *Client) Tail(ctx context.Context, key string, n int) ([]string, error) {
	values, err := c.inner.Do(ctx, c.inner.B().Lrange().Key(key).Start(int64(-n)).Stop(-1).Build()).AsStrSlice()
	if err != nil && !valkeylib.IsValkeyNil(err) {
		return nil, fmt.Errorf("valkey range %s: %w", key, err)
	}
	return values, nil
}

// Acquire creates key with a ttl unless it already exists, and reports
// whether it did.
func (c *Client) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	err := c.inner.Do(ctx, c.inner.B().Set().Key(key).Value("1").Nx().Px(ttl).Build()).Error()
	switch {
	case valkeylib.IsValkeyNil(err):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("valkey acquire %s: %w", key, err)
	}
	return true, nil
}

func (c *Client) Publish(ctx context.Context, channel, payload string) error {
	return c.inner.Do(ctx, c.inner.B().Publish().Channel(channel).Message(payload).Build()).Error()
}

// Subscribe calls fn for every message on channel until ctx is done.
func (c *Client) Subscribe(ctx context.Context, channel string, fn func(payload string)) error {
	return c.inner.Receive(ctx, c.inner.B().Subscribe().Channel(channel).Build(), func(msg valkeylib.PubSubMessage) {
		fn(msg.Message)
	})
}
