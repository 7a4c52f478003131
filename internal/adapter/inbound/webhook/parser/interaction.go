// Package parser turns verified webhook bodies into domain interactions.
package parser

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/times-relay/internal/domain/model"
)

// ParseInteraction decodes a Discord interaction payload. Bodies that do not
// decode, and interaction types the relay does not serve, become an Unknown
// interaction rather than an error so the caller can still answer with 200.
func ParseInteraction(body []byte) (model.Interaction, error) {
	var raw discordgo.Interaction
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.NewUnknown(""), fmt.Errorf("decoding interaction: %w", err)
	}

	switch raw.Type {
	case discordgo.InteractionPing:
		return model.NewPing(raw.ID), nil
	case discordgo.InteractionApplicationCommand:
		data := raw.ApplicationCommandData()
		return model.NewCommand(raw.ID, invokingUser(&raw), data.Name, flattenOptions(data.Options)...), nil
	default:
		return model.NewUnknown(raw.ID), nil
	}
}

// invokingUser prefers the guild member's user and falls back to the DM user.
func invokingUser(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// flattenOptions lists leaf options in order, descending into subcommands.
func flattenOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) []model.Option {
	var out []model.Option
	for _, o := range opts {
		if o == nil {
			continue
		}
		if len(o.Options) > 0 {
			out = append(out, flattenOptions(o.Options)...)
			continue
		}
		out = append(out, model.Option{Name: o.Name, Value: optionString(o.Value)})
	}
	return out
}

func optionString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
