package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/temeke/spotify-playlists/internal/ui"
)

// PlaylistsList prints the mirrored playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	st, closeStore, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	playlists, err := st.Playlists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("tui") {
		if _, err := tea.NewProgram(ui.NewBrowseModel(playlists), tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("failed to run playlist browser: %w", err)
		}
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	if len(playlists) == 0 {
		r.writePlain("No playlists mirrored yet. Run: spl sync\n")
		return nil
	}

	for _, pl := range playlists {
		r.writePlain("%s  %s (%d tracks)\n", pl.ID, pl.Name, pl.TrackCount)
	}
	return nil
}

// PlaylistsGenerated prints the generation log, most recent first.
func (r *Runner) PlaylistsGenerated(ctx context.Context, cmd *cli.Command) error {
	st, closeStore, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := st.GeneratedPlaylists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		r.writePlain("No playlists generated yet. Run: spl generate --name ...\n")
		return nil
	}

	for _, record := range records {
		r.writePlain("%s  %s (%d tracks)\n", record.CreatedAt.Format("2006-01-02 15:04"), record.Name, record.TrackCount)
		r.writePlain("    filters: %s\n", record.Filters)
	}
	return nil
}

// StoreStats prints row counts per collection.
func (r *Runner) StoreStats(ctx context.Context, cmd *cli.Command) error {
	st, closeStore, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	return r.writeJSON(stats, cmd.Bool("pretty"))
}

// StorePurge deletes rows older than the retention window.
func (r *Runner) StorePurge(ctx context.Context, cmd *cli.Command) error {
	days := cmd.Int("days")
	if days <= 0 {
		days = r.config.Storage.PurgeDays
	}
	if days <= 0 {
		days = 30
	}

	st, closeStore, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	if err := st.PurgeOlderThan(ctx, cutoff); err != nil {
		return err
	}

	r.writePlain("✓ Purged rows older than %s\n", cutoff.Format("2006-01-02"))
	return nil
}
