package config

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// BotConfig describes one WhatsApp session managed by the process.
type BotConfig struct {
	ID            string `mapstructure:"id" json:"id"`
	PhoneNumber   string `mapstructure:"phoneNumber" json:"phoneNumber"`
	Prefix        string `mapstructure:"prefix" json:"prefix"`
	Enabled       bool   `mapstructure:"enabled" json:"enabled"`
	IgnorePrivate bool   `mapstructure:"ignorePrivate" json:"ignorePrivate"`
}

var (
	botIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{8,15}$`)
)

func (b BotConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.ID, validation.Required, validation.Length(1, 32), validation.Match(botIDPattern)),
		validation.Field(&b.PhoneNumber, validation.When(b.PhoneNumber != "", validation.Match(phonePattern))),
		validation.Field(&b.Prefix, validation.Length(0, 3)),
	)
}

// LoadBots reads the bot list from a JSON or YAML file. When the file is
// missing it falls back to a single bot described by BOT_ID / BOT_PHONE.
func LoadBots(path, defaultPrefix string) ([]BotConfig, error) {
	var bots []BotConfig

	if path != "" && fileExists(path) {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read bots config %s: %w", path, err)
		}
		if err := v.UnmarshalKey("bots", &bots); err != nil {
			return nil, fmt.Errorf("failed to parse bots config %s: %w", path, err)
		}
		// Entries without an explicit enabled flag are enabled.
		raw, _ := v.Get("bots").([]any)
		for i := range bots {
			if bots[i].Prefix == "" {
				bots[i].Prefix = defaultPrefix
			}
			if i < len(raw) {
				if m, ok := raw[i].(map[string]any); ok {
					if _, set := m["enabled"]; !set {
						bots[i].Enabled = true
					}
				}
			}
		}
	} else {
		bots = []BotConfig{{
			ID:          getEnv("BOT_ID", "ravena"),
			PhoneNumber: getEnv("BOT_PHONE", ""),
			Prefix:      getEnvRaw("BOT_PREFIX", defaultPrefix),
			Enabled:     true,
		}}
	}

	seen := make(map[string]bool, len(bots))
	enabled := make([]BotConfig, 0, len(bots))
	for _, b := range bots {
		b.ID = strings.TrimSpace(b.ID)
		b.PhoneNumber = strings.TrimPrefix(strings.TrimSpace(b.PhoneNumber), "+")
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("invalid bot %q: %w", b.ID, err)
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("duplicated bot id %q", b.ID)
		}
		seen[b.ID] = true
		if !b.Enabled {
			continue
		}
		enabled = append(enabled, b)
	}

	if len(enabled) == 0 {
		return nil, fmt.Errorf("no enabled bots configured")
	}
	return enabled, nil
}
