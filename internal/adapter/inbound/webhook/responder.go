package webhook

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jonny/times-relay/internal/domain/model"
)

// Respond maps a dispatch outcome onto the Discord interaction response body.
func Respond(outcome model.CommandOutcome) *discordgo.InteractionResponse {
	if outcome.Response == model.ResponsePong {
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: outcome.Content},
	}
}
