package group

import (
	"context"
	"strings"
	"time"
)

type Filters struct {
	Words  []string `json:"words"`
	Links  bool     `json:"links"`
	People []string `json:"people"`
	NSFW   bool     `json:"nsfw"`
}

type Greeting struct {
	Text string `json:"text,omitempty"`
}

type CustomCommand struct {
	Trigger      string    `json:"startsWith"`
	Responses    []string  `json:"responses"`
	IgnorePrefix bool      `json:"ignorePrefix"`
	Count        int       `json:"count"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Group is the per-chat configuration persisted for every group a bot sits in.
type Group struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Prefix           *string         `json:"prefix,omitempty"`
	Paused           bool            `json:"paused"`
	Filters          Filters         `json:"filters"`
	IgnoredNumbers   []string        `json:"ignoredNumbers"`
	MutedStrings     []string        `json:"mutedStrings"`
	Greetings        Greeting        `json:"greetings"`
	Farewells        Greeting        `json:"farewells"`
	AutoSTT          bool            `json:"autoStt"`
	AdditionalAdmins []string        `json:"additionalAdmins"`
	CustomCommands   []CustomCommand `json:"customCommands"`
	AddedBy          string          `json:"addedBy,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// New returns a group with empty lists so it serializes without nulls.
func New(id, name string) *Group {
	now := time.Now().UTC()
	return &Group{
		ID:               id,
		Name:             name,
		Filters:          Filters{Words: []string{}, People: []string{}},
		IgnoredNumbers:   []string{},
		MutedStrings:     []string{},
		AdditionalAdmins: []string{},
		CustomCommands:   []CustomCommand{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// EffectivePrefix returns the group prefix when set, otherwise botPrefix.
func (g *Group) EffectivePrefix(botPrefix string) string {
	if g != nil && g.Prefix != nil {
		return *g.Prefix
	}
	return botPrefix
}

// FindCustomCommand looks up a custom command by trigger, case-insensitively.
func (g *Group) FindCustomCommand(trigger string) (int, *CustomCommand) {
	for i := range g.CustomCommands {
		if strings.EqualFold(g.CustomCommands[i].Trigger, trigger) {
			return i, &g.CustomCommands[i]
		}
	}
	return -1, nil
}

// IsAdditionalAdmin reports whether the author (by user part) was granted admin rights.
func (g *Group) IsAdditionalAdmin(authorUser string) bool {
	if authorUser == "" {
		return false
	}
	for _, admin := range g.AdditionalAdmins {
		if strings.SplitN(admin, "@", 2)[0] == authorUser {
			return true
		}
	}
	return false
}

type IGroupRepository interface {
	GetGroups(ctx context.Context) ([]*Group, error)
	GetGroup(ctx context.Context, id string) (*Group, error)
	SaveGroup(ctx context.Context, group *Group) error
	DeleteGroup(ctx context.Context, id string) error
}
