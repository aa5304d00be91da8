package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/temeke/spotify-playlists/internal/tasks"
)

// Generate creates a Spotify playlist from the filtered candidate set.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	spec, err := specFromFlags(cmd)
	if err != nil {
		return err
	}

	st, closeStore, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	generator := tasks.NewGenerator(r.catalog, st, r.logger)
	record, err := generator.Generate(ctx, spec, tasks.GenerateOptions{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Public:      cmd.Bool("public"),
		MaxTracks:   cmd.Int("max"),
		Shuffle:     cmd.Bool("shuffle"),
		NoDedup:     cmd.Bool("no-dedup"),
	})
	if err != nil {
		return err
	}

	r.writePlainln("✓ Playlist created")
	r.writePlain("Name: %s\n", record.Name)
	r.writePlain("Tracks: %d\n", record.TrackCount)
	if record.SpotifyURL != "" {
		r.writePlain("URL: %s\n", record.SpotifyURL)
	}
	return nil
}
