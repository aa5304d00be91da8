package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/temeke/spotify-playlists/internal/auth"
	"github.com/temeke/spotify-playlists/internal/services"
	"github.com/temeke/spotify-playlists/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}

	var authenticator *auth.Authenticator
	var catalog services.RemoteCatalog

	creds := config.Credentials.Spotify
	if creds.ClientID != "" && creds.ClientSecret != "" {
		tokenStore, err := auth.NewFileStore(creds.TokenPath)
		if err == nil {
			authenticator, err = auth.New(auth.Opts{
				ClientID:     creds.ClientID,
				ClientSecret: creds.ClientSecret,
				RedirectURI:  creds.RedirectURI,
				Store:        tokenStore,
				Logger:       logger,
			})
		}
		if err != nil {
			logger.Warn("spotify credentials incomplete", "error", err)
		}
	}
	if authenticator != nil {
		catalog = services.NewSpotifyClient(authenticator, services.SpotifyClientOpts{Logger: logger})
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: catalog,
		Auth:    authenticator,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:    "spl",
		Usage:   "Mirror, filter, and generate Spotify playlists",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Enable debug logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
