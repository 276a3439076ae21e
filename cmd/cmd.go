// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, detectCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configFlag is shared by every command that reads config.toml.
func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the config file and local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the history database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand runs the Spotify OAuth2 authorization flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Auth,
	}
}

// detectCommand runs the emotion detection and recommendation loop.
func detectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "detect",
		Usage: "Detect your mood and open a matching playlist",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Stop after the first recommendation",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the playlist URL instead of opening a browser",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record recommendations to the local database",
			},
		},
		Action: r.Detect,
	}
}

// historyCommand lists past recommendations.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past recommendations",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of recommendations to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "mood",
				Usage: "Filter by mood (e.g. party, chill)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.History,
	}
}

// tuiCommand launches the interactive terminal UI.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive terminal UI",
		Flags:  []cli.Flag{configFlag()},
		Action: r.TUI,
	}
}
