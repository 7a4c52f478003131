package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Commands returns the slash command definitions the relay serves.
func Commands() []*discordgo.ApplicationCommand {
	content := []*discordgo.ApplicationCommandOption{{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "content",
		Description: "Text to relay to your channels",
		Required:    true,
	}}
	channelID := []*discordgo.ApplicationCommandOption{{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "channel_id",
		Description: "ID of the Discord channel",
		Required:    true,
	}}

	return []*discordgo.ApplicationCommand{
		{Name: "post", Description: "Post a message to your registered channels", Options: content},
		{Name: "times", Description: "Post a message to your registered channels", Options: content},
		{Name: "show_channel_id", Description: "List your registered channels"},
		{Name: "add_channel_id", Description: "Register a channel to post to", Options: channelID},
		{Name: "remove_channel_id", Description: "Unregister a channel", Options: channelID},
	}
}

// Registrar installs the command set for an application.
type Registrar struct {
	session       *discordgo.Session
	applicationID string
	guildID       string
}

// NewRegistrar targets the global command list, or a single guild when guildID is set.
func NewRegistrar(session *discordgo.Session, applicationID, guildID string) *Registrar {
	return &Registrar{session: session, applicationID: applicationID, guildID: guildID}
}

// Register overwrites the application's commands with Commands().
func (r *Registrar) Register(ctx context.Context) ([]*discordgo.ApplicationCommand, error) {
	if r.applicationID == "" {
		return nil, fmt.Errorf("application id is required")
	}
	created, err := r.session.ApplicationCommandBulkOverwrite(r.applicationID, r.guildID, Commands(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("registering commands: %s: %w", describeError(err), err)
	}
	return created, nil
}
