// Package discord talks to the Discord REST API through discordgo.
package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// NewSession builds a REST-only discordgo session authenticated as the bot.
// Automatic retries are disabled: a failed request surfaces immediately.
func NewSession(botToken string, httpClient *http.Client) (*discordgo.Session, error) {
	if botToken == "" {
		return nil, errors.New("discord bot token is required")
	}
	s, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	if httpClient != nil {
		s.Client = httpClient
	}
	s.MaxRestRetries = 0
	s.ShouldRetryOnRateLimit = false
	return s, nil
}

// describeError renders a REST failure as "status body" when the response is known.
func describeError(err error) string {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return fmt.Sprintf("%d %s", restErr.Response.StatusCode, string(restErr.ResponseBody))
	}
	var rlErr *discordgo.RateLimitError
	if errors.As(err, &rlErr) {
		return fmt.Sprintf("%d rate limited", http.StatusTooManyRequests)
	}
	return err.Error()
}
