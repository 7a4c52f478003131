package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/jonny/times-relay/internal/config"
	"github.com/jonny/times-relay/pkg/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "timesrelay:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "timesrelay"
	app.Usage = "Relay Discord slash-command posts to registered channels"
	app.Version = version.Version
	app.HideVersion = true
	app.Action = cli.ShowAppHelp
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "configs/config.yaml",
			Usage:   "path to config file",
			EnvVars: []string{"TIMESRELAY_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "env-file",
			Value: ".env",
			Usage: "optional dotenv file loaded before the config is expanded",
		},
	}
	app.Before = func(c *cli.Context) error {
		return config.LoadDotEnv(c.String("env-file"))
	}
	app.Commands = []*cli.Command{
		{
			Action:      serve,
			Name:        "serve",
			Usage:       "Start the interaction webhook",
			Category:    "Server",
			Description: `Serves Discord interaction callbacks on server.port and health/metrics on server.metricsPort.`,
		},
		{
			Action:   register,
			Name:     "register",
			Usage:    "Install the slash commands for the application",
			Category: "Setup",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "guild", Usage: "register for one guild instead of globally (overrides discord.guildId)"},
			},
			Description: `Overwrites the application's command list with post, times, show_channel_id, add_channel_id and remove_channel_id.`,
		},
		{
			Action: func(c *cli.Context) error {
				fmt.Fprintln(c.App.Writer, version.String())
				return nil
			},
			Name:  "version",
			Usage: "Print version information",
		},
	}
	return app
}
