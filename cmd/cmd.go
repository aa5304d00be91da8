// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// filterFlags are shared between `filter preview` and `generate`.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "genre",
			Usage: "Genre to match (repeatable; a track matches ANY given genre)",
		},
		&cli.StringFlag{
			Name:  "tempo",
			Usage: "Tempo range in BPM, e.g. 100-140",
		},
		&cli.StringFlag{
			Name:  "energy",
			Usage: "Energy range, e.g. 0.5-1",
		},
		&cli.StringFlag{
			Name:  "danceability",
			Usage: "Danceability range, e.g. 0.6-1",
		},
		&cli.StringFlag{
			Name:  "valence",
			Usage: "Valence (positivity) range, e.g. 0-0.4",
		},
		&cli.StringFlag{
			Name:  "acousticness",
			Usage: "Acousticness range",
		},
		&cli.StringFlag{
			Name:  "instrumentalness",
			Usage: "Instrumentalness range",
		},
		&cli.StringFlag{
			Name:  "popularity",
			Usage: "Popularity range, e.g. 50-100",
		},
		&cli.IntSliceFlag{
			Name:  "key",
			Usage: "Musical key 0-11 (repeatable)",
		},
		&cli.IntSliceFlag{
			Name:  "mode",
			Usage: "Modality: 1 major, 0 minor (repeatable)",
		},
		&cli.IntSliceFlag{
			Name:  "time-signature",
			Usage: "Time signature (repeatable)",
		},
	}
}

// setupCommand handles database and config initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles Spotify authentication.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show authentication status",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the saved token",
				Action: r.AuthLogout,
			},
		},
	}
}

// syncCommand runs the library mirror.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Mirror your Spotify library into the local store",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show an interactive progress view",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the sync summary as JSON",
			},
		},
		Action: r.Sync,
	}
}

// filterCommand inspects the mirrored library.
func filterCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "filter",
		Usage: "Preview filters against the mirrored library",
		Commands: []*cli.Command{
			{
				Name:  "domain",
				Usage: "Show the filterable value space derived from mirrored data",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.FilterDomain,
			},
			{
				Name:  "preview",
				Usage: "List tracks matching the given filters",
				Flags: append(filterFlags(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: text, csv, markdown",
						Value: "text",
					},
					&cli.BoolFlag{
						Name:  "count",
						Usage: "Print only the candidate count",
					},
				),
				Action: r.FilterPreview,
			},
		},
	}
}

// generateCommand creates a playlist from a filter.
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Create a Spotify playlist from the filtered candidate set",
		Flags: append(filterFlags(),
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "Playlist name",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Usage:   "Playlist description",
			},
			&cli.BoolFlag{
				Name:  "public",
				Usage: "Create the playlist as public",
			},
			&cli.IntFlag{
				Name:  "max",
				Usage: "Maximum number of tracks (0 = no cap)",
			},
			&cli.BoolFlag{
				Name:  "shuffle",
				Usage: "Shuffle candidates before applying the cap",
			},
			&cli.BoolFlag{
				Name:  "no-dedup",
				Usage: "Keep one entry per playlist membership instead of one per song",
			},
		),
		Action: r.Generate,
	}
}

// playlistsCommand lists mirrored and generated playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Mirrored playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List mirrored playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Browse playlists interactively",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "generated",
				Usage: "Show the generation log, most recent first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistsGenerated,
			},
		},
	}
}

// storeCommand handles storage hygiene and observability.
func storeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Local store operations",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show row counts per collection",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.StoreStats,
			},
			{
				Name:  "purge",
				Usage: "Delete rows older than the retention window",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "Retention window in days (defaults to storage.purge_days)",
					},
				},
				Action: r.StorePurge,
			},
		},
	}
}
