package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/temeke/spotify-playlists/internal/tasks"
	"github.com/temeke/spotify-playlists/internal/ui"
)

// Sync mirrors the remote library into the local store.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	st, closeStore, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	engine := r.newSyncEngine(st)

	if cmd.Bool("tui") {
		model := ui.NewSyncModel(ctx, engine)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("failed to run sync view: %w", err)
		}
		result, err := model.Result()
		if err != nil {
			return err
		}
		return r.printSyncResult(result, cmd.Bool("json"))
	}

	result, err := engine.Run(ctx, func(update tasks.ProgressUpdate) {
		r.logger.Info(update.Message, "stage", update.Stage.String(), "percent", fmt.Sprintf("%.0f%%", update.Percent))
	})
	if err != nil {
		return err
	}

	return r.printSyncResult(result, cmd.Bool("json"))
}

func (r *Runner) printSyncResult(result *tasks.SyncResult, useJSON bool) error {
	if useJSON {
		return r.writeJSON(result, true)
	}

	r.writePlainln("✓ Sync complete")
	r.writePlain("Playlists: %d\n", result.PlaylistCount)
	r.writePlain("Tracks: %d\n", result.TrackCount)
	r.writePlain("Audio features fetched: %d\n", result.FeaturesFetched)
	r.writePlain("Artists fetched: %d\n", result.ArtistsFetched)
	if len(result.FailedPlaylists) > 0 {
		r.writePlain("Skipped playlists: %d (see log)\n", len(result.FailedPlaylists))
	}
	return nil
}
