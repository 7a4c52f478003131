package model

import "github.com/samber/mo"

type InteractionKind string

const (
	KindPing               InteractionKind = "ping"
	KindApplicationCommand InteractionKind = "application_command"
	KindUnknown            InteractionKind = "unknown"
)

type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Interaction is a single decoded webhook event. It is built once per request
// and treated as read-only afterwards.
type Interaction struct {
	ID          string          `json:"id"`
	Kind        InteractionKind `json:"kind"`
	CommandName string          `json:"command_name,omitempty"`
	Options     []Option        `json:"options,omitempty"`
	UserID      string          `json:"user_id"`
}

func NewPing(id string) Interaction {
	return Interaction{ID: id, Kind: KindPing}
}

func NewCommand(id, userID, name string, options ...Option) Interaction {
	return Interaction{
		ID:          id,
		Kind:        KindApplicationCommand,
		CommandName: name,
		Options:     options,
		UserID:      userID,
	}
}

func NewUnknown(id string) Interaction {
	return Interaction{ID: id, Kind: KindUnknown}
}

// Option returns the value of the first option with the given name.
// Empty values count as absent.
func (i Interaction) Option(name string) mo.Option[string] {
	for _, o := range i.Options {
		if o.Name == name && o.Value != "" {
			return mo.Some(o.Value)
		}
	}
	return mo.None[string]()
}

func (i Interaction) IsCommand() bool {
	return i.Kind == KindApplicationCommand
}
