package store

import (
	"context"
	"fmt"

	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/shared"
)

// RecordGeneratedPlaylist appends one record to the generated-playlist
// log. Records are immutable: an insert for an already-recorded playlist
// ID fails rather than silently replacing it.
func (s *Store) RecordGeneratedPlaylist(ctx context.Context, gp models.GeneratedPlaylist) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generated_playlists
			(id, name, description, filters, track_count, spotify_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, gp.ID, gp.Name, gp.Description, gp.Filters, gp.TrackCount, gp.SpotifyURL, gp.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to record generated playlist %s: %v", shared.ErrStorage, gp.ID, err)
	}
	return nil
}

// GeneratedPlaylists returns the log most-recent-first.
func (s *Store) GeneratedPlaylists(ctx context.Context) ([]models.GeneratedPlaylist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, filters, track_count, spotify_url, created_at
		FROM generated_playlists
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query generated playlists: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var playlists []models.GeneratedPlaylist
	for rows.Next() {
		var gp models.GeneratedPlaylist
		err := rows.Scan(&gp.ID, &gp.Name, &gp.Description, &gp.Filters,
			&gp.TrackCount, &gp.SpotifyURL, &gp.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan generated playlist: %v", shared.ErrStorage, err)
		}
		playlists = append(playlists, gp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: generated playlist iteration: %v", shared.ErrStorage, err)
	}

	return playlists, nil
}
