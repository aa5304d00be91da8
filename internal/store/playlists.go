package store

import (
	"context"
	"fmt"
	"time"

	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/shared"
)

// UpsertPlaylists bulk-replaces playlist rows by ID. Each stored row gets
// its last_sync_at and updated_at stamped with the write time.
func (s *Store) UpsertPlaylists(ctx context.Context, playlists []models.Playlist) error {
	if len(playlists) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin playlist upsert: %v", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO playlists
			(id, name, description, public, collaborative, owner_id, owner_name,
			 track_count, image_url, spotify_url, last_sync_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare playlist upsert: %v", shared.ErrStorage, err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range playlists {
		_, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.Description, p.Public, p.Collaborative,
			p.OwnerID, p.OwnerName, p.TrackCount, p.ImageURL, p.SpotifyURL,
			now, now,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to upsert playlist %s: %v", shared.ErrStorage, p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit playlist upsert: %v", shared.ErrStorage, err)
	}
	return nil
}

// Playlists returns all stored playlist rows, ordered by name.
func (s *Store) Playlists(ctx context.Context) ([]models.Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, public, collaborative, owner_id, owner_name,
		       track_count, COALESCE(image_url, ''), COALESCE(spotify_url, ''),
		       last_sync_at, updated_at
		FROM playlists
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query playlists: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Public, &p.Collaborative,
			&p.OwnerID, &p.OwnerName, &p.TrackCount, &p.ImageURL, &p.SpotifyURL,
			&p.LastSyncAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan playlist: %v", shared.ErrStorage, err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: playlist row iteration: %v", shared.ErrStorage, err)
	}

	return playlists, nil
}
