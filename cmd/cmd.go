// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand creates the config file and session store
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the session store",
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: r.SetupDatabase,
	}
}

// authCommand handles the Spotify OAuth flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the stored credential and token state",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// tracksCommand lists library data
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tracks",
		Aliases: []string{"t"},
		Usage:   "Spotify library operations",
		Commands: []*cli.Command{
			{
				Name:  "saved",
				Usage: "List saved tracks (liked songs)",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks to return",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of tracks to skip",
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
				Action: r.TracksSaved,
			},
			{
				Name:  "top",
				Usage: "List most played tracks",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks to return",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "time-range",
						Usage: "Play history window (short_term, medium_term, long_term)",
						Value: "medium_term",
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
				Action: r.TracksTop,
			},
			{
				Name:  "profile",
				Usage: "Show the authenticated user's profile",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.Profile,
			},
		},
	}
}

// shelveCommand runs the genre categorization pipeline
func shelveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "shelve",
		Aliases: []string{"s"},
		Usage:   "Sort saved tracks into genre shelves",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of saved tracks to shelve",
				Value: 50,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Number of saved tracks to skip",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Keep only the N largest genre shelves (0 keeps all)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, json, csv, markdown)",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file base path (extension added per format)",
			},
		},
		Action: r.Shelve,
	}
}

// serveCommand runs the JSON API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the genre shelf JSON API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// browseCommand launches the TUI
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"b"},
		Usage:   "Browse genre shelves interactively",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of saved tracks to shelve",
				Value: 50,
			},
		},
		Action: r.Browse,
	}
}
