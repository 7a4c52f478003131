package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/jonny/times-relay/internal/adapter/outbound/discord"
	"github.com/jonny/times-relay/internal/config"
)

func register(c *cli.Context) error {
	cfg, err := config.Parse(c.String("config"))
	if err != nil {
		return err
	}
	if err := config.ValidateRegistration(cfg); err != nil {
		return err
	}
	logger := buildLogger(cfg.Logging)

	guildID := cfg.Discord.GuildID
	if g := c.String("guild"); g != "" {
		guildID = g
	}

	session, err := discord.NewSession(cfg.Discord.BotToken, &http.Client{Timeout: cfg.Discord.RequestTimeout})
	if err != nil {
		return err
	}
	created, err := discord.NewRegistrar(session, cfg.Discord.ApplicationID, guildID).Register(c.Context)
	if err != nil {
		return err
	}

	scope := "global"
	if guildID != "" {
		scope = "guild " + guildID
	}
	for _, cmd := range created {
		logger.Info("registered command", "name", cmd.Name, "id", cmd.ID, "scope", scope)
	}
	fmt.Fprintf(c.App.Writer, "registered %d commands (%s)\n", len(created), scope)
	return nil
}
